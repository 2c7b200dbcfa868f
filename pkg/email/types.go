package email

type Message struct {
	To       []string
	CC       []string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}
