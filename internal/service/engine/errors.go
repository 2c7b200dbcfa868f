package engine

import (
	"errors"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/session"
)

var (
	ErrNotFound          = content.ErrNotFound
	ErrIllegalTransition = session.ErrIllegalTransition

	ErrCategoryEmpty   = errors.New("category has no presentable questions")
	ErrStaleSelection  = errors.New("selection does not match the current question")
	ErrNoActiveAttempt = errors.New("no active attempt")
	ErrNotRegistered   = errors.New("user has not shared a phone number")
	ErrInvalidPhone    = errors.New("invalid phone number")
)
