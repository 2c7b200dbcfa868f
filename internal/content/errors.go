package content

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrNoAnswers rejects a question write that carries no answers.
	ErrNoAnswers = errors.New("question requires at least one answer")
)
