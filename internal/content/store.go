package content

import (
	"context"
	"time"
)

// Store is the durable repository for survey content and attempt records.
//
// Multi-row writes (question with answers, category cascade, final answer
// with session completion) are atomic: readers see all of them or none.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	UpsertUser(ctx context.Context, u User) (*User, error)
	GetUser(ctx context.Context, chatID int64) (*User, error)

	CreateCategory(ctx context.Context, name, description string) (*Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateQuestionWithAnswers(ctx context.Context, q Question, answers []NewAnswer) (*QuestionWithAnswers, error)
	GetQuestion(ctx context.Context, id int64) (*Question, error)
	// QuestionsForCategory returns questions ordered by (order_num, id).
	QuestionsForCategory(ctx context.Context, categoryID int64) ([]Question, error)
	DeleteQuestion(ctx context.Context, id int64) error

	// AnswersForQuestion returns answers ordered by (value, id).
	AnswersForQuestion(ctx context.Context, questionID int64) ([]Answer, error)
	GetAnswer(ctx context.Context, id int64) (*Answer, error)
	DeleteAnswer(ctx context.Context, id int64) error

	CreateCategoryResponse(ctx context.Context, r CategoryResponse) (*CategoryResponse, error)
	// CategoryResponses returns rules ordered by (min_score, id).
	CategoryResponses(ctx context.Context, categoryID int64) ([]CategoryResponse, error)
	DeleteCategoryResponse(ctx context.Context, id int64) error

	CreateSession(ctx context.Context, userChatID, categoryID int64) (*TestSession, error)
	GetSession(ctx context.Context, id int64) (*TestSession, error)
	// CompleteSession marks the session completed with score. changed is false
	// when the session was already completed; the stored record is returned
	// untouched in that case.
	CompleteSession(ctx context.Context, id int64, score int, at time.Time) (s *TestSession, changed bool, err error)
	// RecordResponse appends r once per (session, question). A repeat returns
	// the row already stored and writes nothing.
	RecordResponse(ctx context.Context, r UserResponse) (*UserResponse, error)
	// RecordFinalResponse appends r and completes its session in one transaction.
	RecordFinalResponse(ctx context.Context, r UserResponse, score int, at time.Time) (s *TestSession, changed bool, err error)
	SessionResponses(ctx context.Context, sessionID int64) ([]UserResponse, error)

	// UserHistory returns completed sessions, most recent first.
	UserHistory(ctx context.Context, userChatID int64, limit int) ([]HistoryEntry, error)
	Stats(ctx context.Context) (*Stats, error)
	CountAbandonedSessions(ctx context.Context, olderThan time.Time) (int, error)
}
