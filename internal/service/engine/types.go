package engine

import (
	"time"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/session"
)

// Prompt is the question the user must answer next.
type Prompt struct {
	SessionID    int64                    `json:"session_id"`
	CategoryName string                   `json:"category_name"`
	Position     int                      `json:"position"` // 1-based
	Total        int                      `json:"total"`
	Question     session.SnapshotQuestion `json:"question"`
}

// Result summarizes a completed attempt. Response is nil when no score
// rule covers TotalScore.
type Result struct {
	SessionID    int64                     `json:"session_id"`
	CategoryID   int64                     `json:"category_id"`
	CategoryName string                    `json:"category_name"`
	TotalScore   int                       `json:"total_score"`
	Response     *content.CategoryResponse `json:"response,omitempty"`
	CompletedAt  time.Time                 `json:"completed_at"`
}

// Step is the outcome of SubmitAnswer: exactly one of Next or Result is set.
type Step struct {
	Next   *Prompt `json:"next,omitempty"`
	Result *Result `json:"result,omitempty"`
}

type CategoryInfo struct {
	Category      content.Category `json:"category"`
	QuestionCount int              `json:"question_count"`
}

type Welcome struct {
	Registered bool          `json:"registered"`
	User       *content.User `json:"user,omitempty"`
	// Discarded is the session id of an attempt dropped by the welcome.
	Discarded int64 `json:"discarded,omitempty"`
}

type Contact struct {
	Phone       string
	DisplayName string
	Username    string
}
