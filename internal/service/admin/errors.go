package admin

import (
	"fmt"

	"github.com/Alijeyrad/surveybot/internal/content"
)

var ErrNotFound = content.ErrNotFound

// ValidationError rejects administrator input before anything is written.
// Line is 1-based and only set for errors inside an answers block.
type ValidationError struct {
	Line   int    `json:"line,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", e.Field, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
