package sqlstore

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/surveybot/internal/content"
)

var (
	sessionColumns      = []string{"id", "user_chat_id", "category_id", "total_score", "completed", "created_at", "completed_at"}
	userResponseColumns = []string{"id", "user_chat_id", "category_id", "session_id", "question_id", "answer_id", "value", "created_at"}
)

func scanSession(rows *sql.Rows) (content.TestSession, error) {
	var (
		ts        content.TestSession
		created   int64
		completed stdsql.NullInt64
	)
	if err := rows.Scan(&ts.ID, &ts.UserChatID, &ts.CategoryID, &ts.TotalScore, &ts.Completed, &created, &completed); err != nil {
		return ts, err
	}
	ts.CreatedAt = fromMillis(created)
	if completed.Valid {
		at := fromMillis(completed.Int64)
		ts.CompletedAt = &at
	}
	return ts, nil
}

func scanUserResponse(rows *sql.Rows) (content.UserResponse, error) {
	var (
		r       content.UserResponse
		created int64
	)
	err := rows.Scan(&r.ID, &r.UserChatID, &r.CategoryID, &r.SessionID, &r.QuestionID, &r.AnswerID, &r.Value, &created)
	r.CreatedAt = fromMillis(created)
	return r, err
}

func (s *Store) CreateSession(ctx context.Context, userChatID, categoryID int64) (*content.TestSession, error) {
	id, err := s.insert(ctx, s.drv, s.b().Insert(tableSessions).
		Columns("user_chat_id", "category_id", "total_score", "completed", "created_at").
		Values(userChatID, categoryID, 0, false, s.stamp()))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.GetSession(ctx, id)
}

func (s *Store) GetSession(ctx context.Context, id int64) (*content.TestSession, error) {
	return s.getSession(ctx, s.drv, id)
}

func (s *Store) getSession(ctx context.Context, q dialect.ExecQuerier, id int64) (*content.TestSession, error) {
	return first(ctx, q, s.b().Select(sessionColumns...).
		From(s.b().Table(tableSessions)).
		Where(sql.EQ("id", id)), scanSession)
}

func (s *Store) CompleteSession(ctx context.Context, id int64, score int, at time.Time) (*content.TestSession, bool, error) {
	var (
		out     *content.TestSession
		changed bool
	)
	err := s.withTx(ctx, func(tx dialect.Tx) error {
		var err error
		out, changed, err = s.completeSession(ctx, tx, id, score, at)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("complete session %d: %w", id, err)
	}
	return out, changed, nil
}

// completeSession flips completed exactly once. The completed = false guard
// makes a repeated call a no-op that reports the stored record.
func (s *Store) completeSession(ctx context.Context, q dialect.ExecQuerier, id int64, score int, at time.Time) (*content.TestSession, bool, error) {
	n, err := execB(ctx, q, s.b().Update(tableSessions).
		Set("total_score", score).
		Set("completed", true).
		Set("completed_at", at.UnixMilli()).
		Where(sql.And(sql.EQ("id", id), sql.EQ("completed", false))))
	if err != nil {
		return nil, false, err
	}
	ts, err := s.getSession(ctx, q, id)
	if err != nil {
		return nil, false, err
	}
	return ts, n > 0, nil
}

func (s *Store) RecordResponse(ctx context.Context, r content.UserResponse) (*content.UserResponse, error) {
	var out *content.UserResponse
	err := s.withTx(ctx, func(tx dialect.Tx) error {
		var err error
		out, err = s.recordResponse(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}
	return out, nil
}

// recordResponse appends r unless its session already has a row for the
// question, in which case the stored row is returned unchanged.
func (s *Store) recordResponse(ctx context.Context, q dialect.ExecQuerier, r content.UserResponse) (*content.UserResponse, error) {
	existing, err := first(ctx, q, s.b().Select(userResponseColumns...).
		From(s.b().Table(tableUserResp)).
		Where(sql.And(sql.EQ("session_id", r.SessionID), sql.EQ("question_id", r.QuestionID))), scanUserResponse)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, content.ErrNotFound) {
		return nil, err
	}

	r.CreatedAt = fromMillis(s.stamp())
	id, err := s.insert(ctx, q, s.b().Insert(tableUserResp).
		Columns("user_chat_id", "category_id", "session_id", "question_id", "answer_id", "value", "created_at").
		Values(r.UserChatID, r.CategoryID, r.SessionID, r.QuestionID, r.AnswerID, r.Value, r.CreatedAt.UnixMilli()))
	if err != nil {
		return nil, err
	}
	r.ID = id
	return &r, nil
}

// RecordFinalResponse completes the session and appends its last response
// atomically. When the session was already completed nothing is written.
func (s *Store) RecordFinalResponse(ctx context.Context, r content.UserResponse, score int, at time.Time) (*content.TestSession, bool, error) {
	var (
		out     *content.TestSession
		changed bool
	)
	err := s.withTx(ctx, func(tx dialect.Tx) error {
		var err error
		out, changed, err = s.completeSession(ctx, tx, r.SessionID, score, at)
		if err != nil || !changed {
			return err
		}
		_, err = s.recordResponse(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("record final response for session %d: %w", r.SessionID, err)
	}
	return out, changed, nil
}

func (s *Store) SessionResponses(ctx context.Context, sessionID int64) ([]content.UserResponse, error) {
	rs, err := queryAll(ctx, s.drv, s.b().Select(userResponseColumns...).
		From(s.b().Table(tableUserResp)).
		Where(sql.EQ("session_id", sessionID)).
		OrderBy("id"), scanUserResponse)
	if err != nil {
		return nil, fmt.Errorf("session responses for %d: %w", sessionID, err)
	}
	return rs, nil
}

// UserHistory lists completed sessions, newest first. Sessions whose
// category was deleted keep an empty category name.
func (s *Store) UserHistory(ctx context.Context, userChatID int64, limit int) ([]content.HistoryEntry, error) {
	ts := s.b().Table(tableSessions)
	c := s.b().Table(tableCategories)

	sel := s.b().Select(
		ts.C("id"), ts.C("category_id"), c.C("name"), ts.C("total_score"), ts.C("completed_at"),
	).
		From(ts).
		LeftJoin(c).On(ts.C("category_id"), c.C("id")).
		Where(sql.And(
			sql.EQ(ts.C("user_chat_id"), userChatID),
			sql.EQ(ts.C("completed"), true),
		)).
		OrderBy(sql.Desc(ts.C("completed_at")), sql.Desc(ts.C("id")))
	if limit > 0 {
		sel.Limit(limit)
	}

	entries, err := queryAll(ctx, s.drv, sel, func(rows *sql.Rows) (content.HistoryEntry, error) {
		var (
			h         content.HistoryEntry
			name      stdsql.NullString
			completed stdsql.NullInt64
		)
		err := rows.Scan(&h.SessionID, &h.CategoryID, &name, &h.TotalScore, &completed)
		h.CategoryName = name.String
		h.CompletedAt = fromMillis(completed.Int64)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("user history for %d: %w", userChatID, err)
	}
	return entries, nil
}

// Stats is computed from the current rows on every call.
func (s *Store) Stats(ctx context.Context) (*content.Stats, error) {
	c := s.b().Table(tableCategories)
	q := s.b().Table(tableQuestions)

	cats, err := queryAll(ctx, s.drv, s.b().Select(c.C("id"), c.C("name"), sql.Count(q.C("id"))).
		From(c).
		LeftJoin(q).On(c.C("id"), q.C("category_id")).
		GroupBy(c.C("id"), c.C("name")).
		OrderBy(c.C("id")), func(rows *sql.Rows) (content.CategoryStats, error) {
		var cs content.CategoryStats
		err := rows.Scan(&cs.ID, &cs.Name, &cs.QuestionsCount)
		return cs, err
	})
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if cats == nil {
		cats = []content.CategoryStats{}
	}
	return &content.Stats{TotalCategories: len(cats), Categories: cats}, nil
}

// CountAbandonedSessions counts incomplete sessions created before olderThan.
func (s *Store) CountAbandonedSessions(ctx context.Context, olderThan time.Time) (int, error) {
	query, args := s.b().Select(sql.Count("*")).
		From(s.b().Table(tableSessions)).
		Where(sql.And(
			sql.EQ("completed", false),
			sql.LT("created_at", olderThan.UnixMilli()),
		)).Query()

	var n int
	if _, err := queryOne(ctx, s.drv, query, args, func(rows *sql.Rows) error {
		return rows.Scan(&n)
	}); err != nil {
		return 0, fmt.Errorf("count abandoned sessions: %w", err)
	}
	return n, nil
}
