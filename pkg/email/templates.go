package email

import (
	"fmt"
	"strings"
	"time"
)

// ResultEmailData describes one completed attempt for the admin summary.
type ResultEmailData struct {
	Name         string
	Phone        string
	Username     string
	CategoryName string
	Score        int
	SessionID    int64
	CompletedAt  time.Time
}

// BuildResultEmail renders the plain-text summary sent to administrators.
func BuildResultEmail(to []string, d ResultEmailData) Message {
	name := d.Name
	if name == "" {
		name = "Unknown"
	}
	username := "-"
	if d.Username != "" {
		username = "@" + strings.TrimPrefix(d.Username, "@")
	}

	subject := fmt.Sprintf("Test result: %s scored %d in %s", name, d.Score, d.CategoryName)

	var b strings.Builder
	fmt.Fprintf(&b, "A test was completed.\n\n")
	fmt.Fprintf(&b, "Name:      %s\n", name)
	fmt.Fprintf(&b, "Phone:     %s\n", d.Phone)
	fmt.Fprintf(&b, "Username:  %s\n", username)
	fmt.Fprintf(&b, "Category:  %s\n", d.CategoryName)
	fmt.Fprintf(&b, "Score:     %d\n", d.Score)
	fmt.Fprintf(&b, "Session:   #%d\n", d.SessionID)
	fmt.Fprintf(&b, "Completed: %s\n", d.CompletedAt.UTC().Format(time.RFC3339))

	return Message{
		To:       to,
		Subject:  subject,
		TextBody: b.String(),
		Headers:  map[string]string{"X-Surveybot-Session": fmt.Sprint(d.SessionID)},
	}
}
