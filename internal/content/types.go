// Package content defines the survey data model and the repository
// contract the engine and the admin editor depend on.
package content

import "time"

type User struct {
	ChatID      int64     `json:"chat_id"`
	PhoneNumber string    `json:"phone_number"`
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"created_at"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Question struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Text       string    `json:"text"`
	OrderNum   int       `json:"order_num"`
	CreatedAt  time.Time `json:"created_at"`
}

type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	Text       string    `json:"text"`
	Value      int       `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewAnswer is an answer option that has not been persisted yet.
type NewAnswer struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// QuestionWithAnswers is a question together with its answers ordered by value.
type QuestionWithAnswers struct {
	Question
	Answers []Answer `json:"answers"`
}

// CategoryResponse maps an inclusive score range to a result message.
type CategoryResponse struct {
	ID           int64     `json:"id"`
	CategoryID   int64     `json:"category_id"`
	MinScore     int       `json:"min_score"`
	MaxScore     int       `json:"max_score"`
	Title        string    `json:"title"`
	ResponseText string    `json:"response_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// Covers reports whether score falls inside the inclusive range.
func (r CategoryResponse) Covers(score int) bool {
	return r.MinScore <= score && score <= r.MaxScore
}

// Overlaps reports whether two ranges share at least one score.
func (r CategoryResponse) Overlaps(o CategoryResponse) bool {
	return r.MinScore <= o.MaxScore && o.MinScore <= r.MaxScore
}

// TestSession is the persisted record of one attempt.
type TestSession struct {
	ID          int64      `json:"id"`
	UserChatID  int64      `json:"user_chat_id"`
	CategoryID  int64      `json:"category_id"`
	TotalScore  int        `json:"total_score"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// UserResponse is one append-only answer-selection log row.
type UserResponse struct {
	ID         int64     `json:"id"`
	UserChatID int64     `json:"user_chat_id"`
	CategoryID int64     `json:"category_id"`
	SessionID  int64     `json:"session_id"`
	QuestionID int64     `json:"question_id"`
	AnswerID   int64     `json:"answer_id"`
	Value      int       `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntry is a completed session joined with its category name.
type HistoryEntry struct {
	SessionID    int64     `json:"session_id"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	TotalScore   int       `json:"total_score"`
	CompletedAt  time.Time `json:"completed_at"`
}

type CategoryStats struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	QuestionsCount int    `json:"questions_count"`
}

type Stats struct {
	TotalCategories int             `json:"total_categories"`
	Categories      []CategoryStats `json:"categories"`
}
