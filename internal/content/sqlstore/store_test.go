package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/pkg/crypto"
	"github.com/Alijeyrad/surveybot/pkg/database"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	drv, err := database.OpenMemory("sqlstore_" + uuid.NewString())
	require.NoError(t, err)

	s := New(drv, opts...)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedQuestion(t *testing.T, s *Store, categoryID int64, text string, order int, answers ...content.NewAnswer) *content.QuestionWithAnswers {
	t.Helper()
	q, err := s.CreateQuestionWithAnswers(context.Background(), content.Question{
		CategoryID: categoryID,
		Text:       text,
		OrderNum:   order,
	}, answers)
	require.NoError(t, err)
	return q
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestQuestionsForCategory_Order(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cat, err := s.CreateCategory(ctx, "Stress", "")
	require.NoError(t, err)

	a := content.NewAnswer{Text: "yes", Value: 1}
	q3 := seedQuestion(t, s, cat.ID, "third", 2, a)
	q1 := seedQuestion(t, s, cat.ID, "first", 1, a)
	q2 := seedQuestion(t, s, cat.ID, "second", 1, a)

	qs, err := s.QuestionsForCategory(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, []int64{q1.ID, q2.ID, q3.ID}, []int64{qs[0].ID, qs[1].ID, qs[2].ID})
}

func TestCreateQuestionWithAnswers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cat, err := s.CreateCategory(ctx, "Mood", "daily mood")
	require.NoError(t, err)

	q := seedQuestion(t, s, cat.ID, "How are you?", 0,
		content.NewAnswer{Text: "great", Value: 3},
		content.NewAnswer{Text: "bad", Value: -1},
		content.NewAnswer{Text: "ok", Value: 0},
	)
	require.Len(t, q.Answers, 3)
	assert.Equal(t, []int{-1, 0, 3}, []int{q.Answers[0].Value, q.Answers[1].Value, q.Answers[2].Value})

	t.Run("missing category writes nothing", func(t *testing.T) {
		_, err := s.CreateQuestionWithAnswers(ctx, content.Question{CategoryID: 999, Text: "x"},
			[]content.NewAnswer{{Text: "a", Value: 1}})
		require.ErrorIs(t, err, content.ErrNotFound)
	})

	t.Run("no answers rejected", func(t *testing.T) {
		_, err := s.CreateQuestionWithAnswers(ctx, content.Question{CategoryID: cat.ID, Text: "x"}, nil)
		require.ErrorIs(t, err, content.ErrNoAnswers)

		qs, err := s.QuestionsForCategory(ctx, cat.ID)
		require.NoError(t, err)
		assert.Len(t, qs, 1)
	})
}

func TestDeleteCategory_Cascade(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	doomed, err := s.CreateCategory(ctx, "Doomed", "")
	require.NoError(t, err)
	kept, err := s.CreateCategory(ctx, "Kept", "")
	require.NoError(t, err)

	dq := seedQuestion(t, s, doomed.ID, "q", 0, content.NewAnswer{Text: "a", Value: 1})
	kq := seedQuestion(t, s, kept.ID, "q", 0, content.NewAnswer{Text: "a", Value: 1})
	_, err = s.CreateCategoryResponse(ctx, content.CategoryResponse{CategoryID: doomed.ID, MinScore: 0, MaxScore: 5, ResponseText: "r"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, doomed.ID))

	_, err = s.GetCategory(ctx, doomed.ID)
	assert.ErrorIs(t, err, content.ErrNotFound)
	_, err = s.GetQuestion(ctx, dq.ID)
	assert.ErrorIs(t, err, content.ErrNotFound)
	_, err = s.GetAnswer(ctx, dq.Answers[0].ID)
	assert.ErrorIs(t, err, content.ErrNotFound)

	rs, err := s.CategoryResponses(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, rs)

	_, err = s.GetQuestion(ctx, kq.ID)
	assert.NoError(t, err)
	_, err = s.GetAnswer(ctx, kq.Answers[0].ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, s.DeleteCategory(ctx, doomed.ID), content.ErrNotFound)
}

func TestDeleteQuestion_CascadesAnswers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cat, err := s.CreateCategory(ctx, "C", "")
	require.NoError(t, err)
	q := seedQuestion(t, s, cat.ID, "q", 0, content.NewAnswer{Text: "a", Value: 1}, content.NewAnswer{Text: "b", Value: 2})

	require.NoError(t, s.DeleteQuestion(ctx, q.ID))
	as, err := s.AnswersForQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, as)

	assert.ErrorIs(t, s.DeleteQuestion(ctx, q.ID), content.ErrNotFound)
	assert.ErrorIs(t, s.DeleteAnswer(ctx, q.Answers[0].ID), content.ErrNotFound)
}

func TestCompleteSession_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertUser(ctx, content.User{ChatID: 42, PhoneNumber: "+15550001"})
	require.NoError(t, err)
	cat, err := s.CreateCategory(ctx, "C", "")
	require.NoError(t, err)

	ts, err := s.CreateSession(ctx, 42, cat.ID)
	require.NoError(t, err)
	assert.False(t, ts.Completed)
	assert.Zero(t, ts.TotalScore)
	assert.Nil(t, ts.CompletedAt)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	done, changed, err := s.CompleteSession(ctx, ts.ID, 7, at)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, done.Completed)
	assert.Equal(t, 7, done.TotalScore)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, at.Equal(*done.CompletedAt))

	again, changed, err := s.CompleteSession(ctx, ts.ID, 99, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 7, again.TotalScore)
	assert.True(t, at.Equal(*again.CompletedAt))

	_, _, err = s.CompleteSession(ctx, 12345, 1, at)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestRecordFinalResponse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertUser(ctx, content.User{ChatID: 1})
	require.NoError(t, err)
	cat, err := s.CreateCategory(ctx, "C", "")
	require.NoError(t, err)
	q := seedQuestion(t, s, cat.ID, "q", 0, content.NewAnswer{Text: "a", Value: 4})
	ts, err := s.CreateSession(ctx, 1, cat.ID)
	require.NoError(t, err)

	resp := content.UserResponse{
		UserChatID: 1,
		CategoryID: cat.ID,
		SessionID:  ts.ID,
		QuestionID: q.ID,
		AnswerID:   q.Answers[0].ID,
		Value:      4,
	}
	done, changed, err := s.RecordFinalResponse(ctx, resp, 4, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 4, done.TotalScore)

	_, changed, err = s.RecordFinalResponse(ctx, resp, 4, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	rows, err := s.SessionResponses(ctx, ts.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, q.Answers[0].ID, rows[0].AnswerID)
}

func TestRecordResponse_OncePerQuestion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertUser(ctx, content.User{ChatID: 1})
	require.NoError(t, err)
	cat, err := s.CreateCategory(ctx, "C", "")
	require.NoError(t, err)
	q := seedQuestion(t, s, cat.ID, "q", 0,
		content.NewAnswer{Text: "no", Value: 0},
		content.NewAnswer{Text: "yes", Value: 3},
	)
	ts, err := s.CreateSession(ctx, 1, cat.ID)
	require.NoError(t, err)

	resp := content.UserResponse{
		UserChatID: 1,
		CategoryID: cat.ID,
		SessionID:  ts.ID,
		QuestionID: q.ID,
		AnswerID:   q.Answers[1].ID,
		Value:      3,
	}
	orig, err := s.RecordResponse(ctx, resp)
	require.NoError(t, err)

	resp.AnswerID, resp.Value = q.Answers[0].ID, 0
	again, err := s.RecordResponse(ctx, resp)
	require.NoError(t, err)
	assert.Equal(t, orig.ID, again.ID)
	assert.Equal(t, 3, again.Value)

	rows, err := s.SessionResponses(ctx, ts.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, q.Answers[1].ID, rows[0].AnswerID)

	// A new session for the same question gets its own row.
	other, err := s.CreateSession(ctx, 1, cat.ID)
	require.NoError(t, err)
	resp.SessionID = other.ID
	_, err = s.RecordResponse(ctx, resp)
	require.NoError(t, err)
	rows, err = s.SessionResponses(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUserHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertUser(ctx, content.User{ChatID: 5})
	require.NoError(t, err)
	a, err := s.CreateCategory(ctx, "A", "")
	require.NoError(t, err)
	b, err := s.CreateCategory(ctx, "B", "")
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, cat := range []int64{a.ID, b.ID, a.ID} {
		ts, err := s.CreateSession(ctx, 5, cat)
		require.NoError(t, err)
		_, _, err = s.CompleteSession(ctx, ts.ID, i, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	_, err = s.CreateSession(ctx, 5, b.ID)
	require.NoError(t, err)

	hist, err := s.UserHistory(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []int{2, 1, 0}, []int{hist[0].TotalScore, hist[1].TotalScore, hist[2].TotalScore})
	assert.Equal(t, "B", hist[1].CategoryName)

	limited, err := s.UserHistory(ctx, 5, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, s.DeleteCategory(ctx, b.ID))
	hist, err = s.UserHistory(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Empty(t, hist[1].CategoryName)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.TotalCategories)
	assert.NotNil(t, st.Categories)

	a, err := s.CreateCategory(ctx, "A", "")
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, "B", "")
	require.NoError(t, err)
	seedQuestion(t, s, a.ID, "1", 0, content.NewAnswer{Text: "x", Value: 1})
	seedQuestion(t, s, a.ID, "2", 0, content.NewAnswer{Text: "x", Value: 1})

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, st.TotalCategories)
	assert.Equal(t, 2, st.Categories[0].QuestionsCount)
	assert.Equal(t, 0, st.Categories[1].QuestionsCount)
}

func TestUpsertUser_EncryptsPhone(t *testing.T) {
	ctx := context.Background()
	cipher, err := crypto.NewFieldCipher("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)

	now := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithPhoneCipher(cipher), WithClock(func() time.Time { return now }))

	u, err := s.UpsertUser(ctx, content.User{ChatID: 9, PhoneNumber: "+998901234567", DisplayName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "+998901234567", u.PhoneNumber)

	var raw string
	require.NoError(t, s.drv.DB().QueryRowContext(ctx, "SELECT phone_number FROM users WHERE chat_id = 9").Scan(&raw))
	assert.NotEqual(t, "+998901234567", raw)

	now = now.Add(time.Hour)
	u2, err := s.UpsertUser(ctx, content.User{ChatID: 9, PhoneNumber: "+998901234568", DisplayName: "Ann B"})
	require.NoError(t, err)
	assert.Equal(t, "+998901234568", u2.PhoneNumber)
	assert.Equal(t, "Ann B", u2.DisplayName)
	assert.True(t, u.CreatedAt.Equal(u2.CreatedAt))
}

func TestCountAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return now }))

	_, err := s.UpsertUser(ctx, content.User{ChatID: 3})
	require.NoError(t, err)
	cat, err := s.CreateCategory(ctx, "C", "")
	require.NoError(t, err)

	_, err = s.CreateSession(ctx, 3, cat.ID)
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, 3, cat.ID)
	require.NoError(t, err)
	done, err := s.CreateSession(ctx, 3, cat.ID)
	require.NoError(t, err)
	_, _, err = s.CompleteSession(ctx, done.ID, 1, now)
	require.NoError(t, err)

	n, err := s.CountAbandonedSessions(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountAbandonedSessions(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}
