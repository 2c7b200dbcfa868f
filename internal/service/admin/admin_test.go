package admin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/content/sqlstore"
	"github.com/Alijeyrad/surveybot/pkg/database"
)

func newService(t *testing.T) (Service, *bytes.Buffer) {
	t.Helper()
	drv, err := database.OpenMemory("admin_" + uuid.NewString())
	require.NoError(t, err)
	store := sqlstore.New(drv)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(store, log), &buf
}

func validationField(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Field
}

func TestCreateCategory_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CategoryRequest{Name: "   "})
	assert.Equal(t, "name", validationField(t, err))

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.CreateCategory(ctx, CategoryRequest{Name: string(long)})
	assert.Equal(t, "name", validationField(t, err))

	c, err := svc.CreateCategory(ctx, CategoryRequest{Name: "Stress", Description: "weekly check"})
	require.NoError(t, err)
	assert.Equal(t, "Stress", c.Name)
}

func TestCreateQuestion(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, CategoryRequest{Name: "Stress"})
	require.NoError(t, err)

	t.Run("bad answer line writes nothing", func(t *testing.T) {
		_, err := svc.CreateQuestion(ctx, QuestionRequest{CategoryID: cat.ID, Text: "Sleep?", Answers: "Well | 0\nBadly"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, 2, verr.Line)

		qs, err := svc.ListQuestions(ctx, cat.ID)
		require.NoError(t, err)
		assert.Empty(t, qs)
	})

	t.Run("missing text", func(t *testing.T) {
		_, err := svc.CreateQuestion(ctx, QuestionRequest{CategoryID: cat.ID, Answers: "a | 1"})
		assert.Equal(t, "text", validationField(t, err))
	})

	t.Run("negative order", func(t *testing.T) {
		_, err := svc.CreateQuestion(ctx, QuestionRequest{CategoryID: cat.ID, Text: "q", OrderNum: -1, Answers: "a | 1"})
		assert.Equal(t, "order_num", validationField(t, err))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.CreateQuestion(ctx, QuestionRequest{CategoryID: 999, Text: "q", Answers: "a | 1"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("created with answers", func(t *testing.T) {
		q, err := svc.CreateQuestion(ctx, QuestionRequest{CategoryID: cat.ID, Text: "Sleep?", OrderNum: 1, Answers: "Well | 0\nBadly | 3"})
		require.NoError(t, err)
		assert.Len(t, q.Answers, 2)

		qs, err := svc.ListQuestions(ctx, cat.ID)
		require.NoError(t, err)
		require.Len(t, qs, 1)
		assert.Len(t, qs[0].Answers, 2)

		cats, err := svc.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, 1, cats[0].QuestionsCount)

		require.NoError(t, svc.DeleteAnswer(ctx, q.Answers[0].ID))
		assert.ErrorIs(t, svc.DeleteAnswer(ctx, q.Answers[0].ID), ErrNotFound)
		require.NoError(t, svc.DeleteQuestion(ctx, q.ID))
		assert.ErrorIs(t, svc.DeleteQuestion(ctx, q.ID), ErrNotFound)
	})
}

func TestCreateResponse(t *testing.T) {
	svc, logs := newService(t)
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, CategoryRequest{Name: "Stress"})
	require.NoError(t, err)

	_, err = svc.CreateResponse(ctx, ResponseRequest{CategoryID: cat.ID, MinScore: 5, MaxScore: 1, Title: "x", ResponseText: "y"})
	assert.Equal(t, "max_score", validationField(t, err))

	_, err = svc.CreateResponse(ctx, ResponseRequest{CategoryID: cat.ID, MinScore: 0, MaxScore: 1, ResponseText: "y"})
	assert.Equal(t, "title", validationField(t, err))

	_, err = svc.CreateResponse(ctx, ResponseRequest{CategoryID: 777, MinScore: 0, MaxScore: 1, Title: "x", ResponseText: "y"})
	assert.ErrorIs(t, err, ErrNotFound)

	low, err := svc.CreateResponse(ctx, ResponseRequest{CategoryID: cat.ID, MinScore: 0, MaxScore: 5, Title: "Low", ResponseText: "fine"})
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "overlaps existing rules")

	_, err = svc.CreateResponse(ctx, ResponseRequest{CategoryID: cat.ID, MinScore: 5, MaxScore: 10, Title: "High", ResponseText: "rest"})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "overlaps existing rules")

	rs, err := svc.ListResponses(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, low.ID, rs[0].ID)

	require.NoError(t, svc.DeleteResponse(ctx, low.ID))
	assert.ErrorIs(t, svc.DeleteResponse(ctx, low.ID), ErrNotFound)

	_, err = svc.ListResponses(ctx, 777)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.CreateCategory(ctx, CategoryRequest{Name: "A"})
	require.NoError(t, err)
	b, err := svc.CreateCategory(ctx, CategoryRequest{Name: "B"})
	require.NoError(t, err)
	for _, text := range []string{"q1", "q2"} {
		_, err := svc.CreateQuestion(ctx, QuestionRequest{CategoryID: a.ID, Text: text, Answers: "x | 1"})
		require.NoError(t, err)
	}

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalCategories)
	byID := map[int64]content.CategoryStats{}
	for _, c := range st.Categories {
		byID[c.ID] = c
	}
	assert.Equal(t, 2, byID[a.ID].QuestionsCount)
	assert.Equal(t, 0, byID[b.ID].QuestionsCount)

	require.NoError(t, svc.DeleteCategory(ctx, a.ID))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, a.ID), ErrNotFound)

	st, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalCategories)
	_, err = svc.ListQuestions(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
