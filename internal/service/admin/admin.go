// Package admin is the administrator's content editor. Every write is
// validated before it reaches the store.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/Alijeyrad/surveybot/internal/content"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CategoryRequest struct {
	Name        string `json:"name" validate:"notblank,max=255"`
	Description string `json:"description" validate:"max=4000"`
}

type QuestionRequest struct {
	CategoryID int64  `json:"category_id" validate:"required"`
	Text       string `json:"text" validate:"notblank,max=2000"`
	OrderNum   int    `json:"order_num" validate:"gte=0"`
	// Answers is a block of "text | value" lines.
	Answers string `json:"answers"`
}

type ResponseRequest struct {
	CategoryID   int64  `json:"category_id" validate:"required"`
	MinScore     int    `json:"min_score"`
	MaxScore     int    `json:"max_score"`
	Title        string `json:"title" validate:"notblank,max=255"`
	ResponseText string `json:"response_text" validate:"notblank"`
}

type CategorySummary struct {
	content.Category
	QuestionsCount int `json:"questions_count"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	CreateCategory(ctx context.Context, req CategoryRequest) (*content.Category, error)
	ListCategories(ctx context.Context) ([]CategorySummary, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateQuestion(ctx context.Context, req QuestionRequest) (*content.QuestionWithAnswers, error)
	ListQuestions(ctx context.Context, categoryID int64) ([]content.QuestionWithAnswers, error)
	DeleteQuestion(ctx context.Context, id int64) error
	DeleteAnswer(ctx context.Context, id int64) error

	CreateResponse(ctx context.Context, req ResponseRequest) (*content.CategoryResponse, error)
	ListResponses(ctx context.Context, categoryID int64) ([]content.CategoryResponse, error)
	DeleteResponse(ctx context.Context, id int64) error

	Stats(ctx context.Context) (*content.Stats, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type adminService struct {
	store content.Store
	log   *slog.Logger
}

func New(store content.Store, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &adminService{store: store, log: log.With("component", "admin")}
}

func (s *adminService) CreateCategory(ctx context.Context, req CategoryRequest) (*content.Category, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	c, err := s.store.CreateCategory(ctx, req.Name, req.Description)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.log.Info("category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *adminService) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	counts := lo.SliceToMap(stats.Categories, func(c content.CategoryStats) (int64, int) {
		return c.ID, c.QuestionsCount
	})
	return lo.Map(cats, func(c content.Category, _ int) CategorySummary {
		return CategorySummary{Category: c, QuestionsCount: counts[c.ID]}
	}), nil
}

func (s *adminService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.log.Info("category deleted", "category_id", id)
	return nil
}

func (s *adminService) CreateQuestion(ctx context.Context, req QuestionRequest) (*content.QuestionWithAnswers, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	answers, err := ParseAnswers(req.Answers)
	if err != nil {
		return nil, err
	}
	q, err := s.store.CreateQuestionWithAnswers(ctx, content.Question{
		CategoryID: req.CategoryID,
		Text:       req.Text,
		OrderNum:   req.OrderNum,
	}, answers)
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.log.Info("question created", "question_id", q.ID, "category_id", q.CategoryID, "answers", len(q.Answers))
	return q, nil
}

func (s *adminService) ListQuestions(ctx context.Context, categoryID int64) ([]content.QuestionWithAnswers, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("get category %d: %w", categoryID, err)
	}
	qs, err := s.store.QuestionsForCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]content.QuestionWithAnswers, 0, len(qs))
	for _, q := range qs {
		answers, err := s.store.AnswersForQuestion(ctx, q.ID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
		out = append(out, content.QuestionWithAnswers{Question: q, Answers: answers})
	}
	return out, nil
}

func (s *adminService) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	s.log.Info("question deleted", "question_id", id)
	return nil
}

func (s *adminService) DeleteAnswer(ctx context.Context, id int64) error {
	if err := s.store.DeleteAnswer(ctx, id); err != nil {
		return fmt.Errorf("delete answer %d: %w", id, err)
	}
	s.log.Info("answer deleted", "answer_id", id)
	return nil
}

func (s *adminService) CreateResponse(ctx context.Context, req ResponseRequest) (*content.CategoryResponse, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if req.MinScore > req.MaxScore {
		return nil, &ValidationError{Field: "max_score", Reason: "must not be less than min_score"}
	}

	existing, err := s.store.CategoryResponses(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	r, err := s.store.CreateCategoryResponse(ctx, content.CategoryResponse{
		CategoryID:   req.CategoryID,
		MinScore:     req.MinScore,
		MaxScore:     req.MaxScore,
		Title:        req.Title,
		ResponseText: req.ResponseText,
	})
	if err != nil {
		return nil, fmt.Errorf("create response: %w", err)
	}

	// Overlaps are allowed; scoring takes the lowest (min_score, id).
	overlapping := lo.Filter(existing, func(o content.CategoryResponse, _ int) bool { return r.Overlaps(o) })
	if len(overlapping) > 0 {
		s.log.Warn("score range overlaps existing rules",
			"response_id", r.ID,
			"category_id", r.CategoryID,
			"overlaps", lo.Map(overlapping, func(o content.CategoryResponse, _ int) int64 { return o.ID }))
	}
	s.log.Info("response created", "response_id", r.ID, "category_id", r.CategoryID)
	return r, nil
}

func (s *adminService) ListResponses(ctx context.Context, categoryID int64) ([]content.CategoryResponse, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("get category %d: %w", categoryID, err)
	}
	rs, err := s.store.CategoryResponses(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return rs, nil
}

func (s *adminService) DeleteResponse(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategoryResponse(ctx, id); err != nil {
		return fmt.Errorf("delete response %d: %w", id, err)
	}
	s.log.Info("response deleted", "response_id", id)
	return nil
}

func (s *adminService) Stats(ctx context.Context) (*content.Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
