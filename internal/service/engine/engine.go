// Package engine runs the test-taking state machine: it starts attempts,
// validates and records answers, completes and scores sessions, and hands
// finished results to the notifier.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/service/notifier"
	"github.com/Alijeyrad/surveybot/internal/service/scoring"
	"github.com/Alijeyrad/surveybot/internal/session"
	"github.com/Alijeyrad/surveybot/pkg/phone"
)

const DefaultHistoryLimit = 10

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Service operations that touch a user's state hold that user's lock for
// their whole duration, so events for one user never interleave.
type Service interface {
	Welcome(ctx context.Context, chatID int64) (*Welcome, error)
	SharePhone(ctx context.Context, chatID int64, c Contact) (*content.User, error)
	ListCategories(ctx context.Context) ([]content.Category, error)
	DescribeCategory(ctx context.Context, chatID, categoryID int64) (*CategoryInfo, error)
	StartAttempt(ctx context.Context, chatID, categoryID int64) (*Prompt, error)
	SubmitAnswer(ctx context.Context, chatID, questionID, answerID int64, value int) (*Step, error)
	CompleteAttempt(ctx context.Context, chatID int64) (*Result, error)
	CancelAttempt(ctx context.Context, chatID int64) error
	History(ctx context.Context, chatID int64, limit int) ([]content.HistoryEntry, error)
	State(ctx context.Context, chatID int64) (session.State, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Options struct {
	// DefaultRegion is used for phone numbers without a country code.
	DefaultRegion string
	Now           func() time.Time
}

type engineService struct {
	store    content.Store
	states   session.Store
	locks    *session.Locker
	resolver *scoring.Resolver
	notify   notifier.Notifier
	log      *slog.Logger
	region   string
	now      func() time.Time
	metrics  metrics
}

func New(store content.Store, states session.Store, locks *session.Locker, notify notifier.Notifier, log *slog.Logger, opts Options) Service {
	if notify == nil {
		notify = notifier.Discard{}
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &engineService{
		store:    store,
		states:   states,
		locks:    locks,
		resolver: scoring.New(store),
		notify:   notify,
		log:      log.With("component", "engine"),
		region:   opts.DefaultRegion,
		now:      opts.Now,
		metrics:  newMetrics(),
	}
}

func (e *engineService) locked(ctx context.Context, chatID int64, fn func() error) error {
	unlock, err := e.locks.Lock(ctx, chatID)
	if err != nil {
		return fmt.Errorf("lock user %d: %w", chatID, err)
	}
	defer unlock()
	return fn()
}

// save stores st. Idle users need no entry since a missing one reads as idle.
func (e *engineService) save(ctx context.Context, chatID int64, st session.State) error {
	if st.Phase == session.PhaseIdle {
		return e.states.Delete(ctx, chatID)
	}
	return e.states.Put(ctx, chatID, st)
}

func (e *engineService) registeredUser(ctx context.Context, chatID int64) (*content.User, error) {
	u, err := e.store.GetUser(ctx, chatID)
	if errors.Is(err, content.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", chatID, err)
	}
	if u.PhoneNumber == "" {
		return nil, nil
	}
	return u, nil
}

func (e *engineService) Welcome(ctx context.Context, chatID int64) (*Welcome, error) {
	var out Welcome
	err := e.locked(ctx, chatID, func() error {
		st, err := e.states.Get(ctx, chatID)
		if err != nil {
			return err
		}
		user, err := e.registeredUser(ctx, chatID)
		if err != nil {
			return err
		}

		event := session.EventReset
		if user == nil {
			event = session.EventAwaitPhone
		}
		phase, err := session.Transition(ctx, st.Phase, event)
		if err != nil {
			return err
		}
		if err := e.save(ctx, chatID, session.State{Phase: phase}); err != nil {
			return err
		}

		if st.Active() {
			out.Discarded = st.Attempt.SessionID
			e.log.Info("attempt discarded by welcome", "chat_id", chatID, "session_id", st.Attempt.SessionID)
		}
		out.Registered = user != nil
		out.User = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *engineService) SharePhone(ctx context.Context, chatID int64, c Contact) (*content.User, error) {
	normalized, err := phone.Normalize(c.Phone, e.region)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	var user *content.User
	err = e.locked(ctx, chatID, func() error {
		st, err := e.states.Get(ctx, chatID)
		if err != nil {
			return err
		}

		user, err = e.store.UpsertUser(ctx, content.User{
			ChatID:      chatID,
			PhoneNumber: normalized,
			DisplayName: c.DisplayName,
			Username:    c.Username,
		})
		if err != nil {
			return err
		}

		// Sharing a contact mid-test keeps the attempt running.
		if st.Active() {
			return nil
		}
		phase, err := session.Transition(ctx, st.Phase, session.EventRegister)
		if err != nil {
			return err
		}
		return e.save(ctx, chatID, session.State{Phase: phase})
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("user registered", "chat_id", chatID)
	return user, nil
}

func (e *engineService) ListCategories(ctx context.Context) ([]content.Category, error) {
	return e.store.ListCategories(ctx)
}

// snapshot copies the category's presentable questions in traversal order.
// Questions without answers are skipped.
func (e *engineService) snapshot(ctx context.Context, categoryID int64) ([]session.SnapshotQuestion, error) {
	qs, err := e.store.QuestionsForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	out := make([]session.SnapshotQuestion, 0, len(qs))
	for _, q := range qs {
		answers, err := e.store.AnswersForQuestion(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		if len(answers) == 0 {
			continue
		}
		sq := session.SnapshotQuestion{ID: q.ID, Text: q.Text, Answers: make([]session.SnapshotAnswer, len(answers))}
		for i, a := range answers {
			sq.Answers[i] = session.SnapshotAnswer{ID: a.ID, Text: a.Text, Value: a.Value}
		}
		out = append(out, sq)
	}
	return out, nil
}

func (e *engineService) DescribeCategory(ctx context.Context, chatID, categoryID int64) (*CategoryInfo, error) {
	var info *CategoryInfo
	err := e.locked(ctx, chatID, func() error {
		cat, err := e.store.GetCategory(ctx, categoryID)
		if err != nil {
			return err
		}
		qs, err := e.snapshot(ctx, categoryID)
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			return ErrCategoryEmpty
		}
		info = &CategoryInfo{Category: *cat, QuestionCount: len(qs)}
		return nil
	})
	return info, err
}

func (e *engineService) StartAttempt(ctx context.Context, chatID, categoryID int64) (*Prompt, error) {
	var prompt *Prompt
	err := e.locked(ctx, chatID, func() error {
		user, err := e.registeredUser(ctx, chatID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotRegistered
		}

		cat, err := e.store.GetCategory(ctx, categoryID)
		if err != nil {
			return err
		}
		qs, err := e.snapshot(ctx, categoryID)
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			return ErrCategoryEmpty
		}

		st, err := e.states.Get(ctx, chatID)
		if err != nil {
			return err
		}
		phase, err := session.Transition(ctx, st.Phase, session.EventStart)
		if err != nil {
			return err
		}

		ts, err := e.store.CreateSession(ctx, chatID, cat.ID)
		if err != nil {
			return err
		}
		att := &session.Attempt{
			SessionID:    ts.ID,
			CategoryID:   cat.ID,
			CategoryName: cat.Name,
			Questions:    qs,
		}
		if err := e.save(ctx, chatID, session.State{Phase: phase, Attempt: att}); err != nil {
			return err
		}

		if st.Active() {
			e.log.Info("attempt replaced", "chat_id", chatID, "old_session_id", st.Attempt.SessionID, "session_id", ts.ID)
		}
		e.metrics.attemptStarted(ctx, cat.ID)
		e.log.Info("attempt started", "chat_id", chatID, "session_id", ts.ID, "category_id", cat.ID, "questions", len(qs))

		prompt = promptFor(att)
		return nil
	})
	return prompt, err
}

func (e *engineService) SubmitAnswer(ctx context.Context, chatID, questionID, answerID int64, value int) (*Step, error) {
	var step Step
	err := e.locked(ctx, chatID, func() error {
		st, err := e.states.Get(ctx, chatID)
		if err != nil {
			return err
		}
		if !st.Active() {
			return ErrNoActiveAttempt
		}
		att := st.Attempt

		q, ok := att.Current()
		if !ok || q.ID != questionID {
			return ErrStaleSelection
		}
		// The snapshot value is authoritative; a mismatch means the button
		// was rendered from different content.
		a, ok := q.Answer(answerID)
		if !ok || a.Value != value {
			return ErrStaleSelection
		}

		resp := content.UserResponse{
			UserChatID: chatID,
			CategoryID: att.CategoryID,
			SessionID:  att.SessionID,
			QuestionID: q.ID,
			AnswerID:   a.ID,
			Value:      a.Value,
		}
		next := *att
		next.TotalScore += a.Value
		next.CurrentIndex++

		if next.Exhausted() {
			ts, changed, err := e.store.RecordFinalResponse(ctx, resp, next.TotalScore, e.now())
			if err != nil {
				return err
			}
			step.Result, err = e.finish(ctx, chatID, &next, ts, changed)
			return err
		}

		// A retry after a failed state write gets the row already stored,
		// so the score follows what was recorded.
		rec, err := e.store.RecordResponse(ctx, resp)
		if err != nil {
			return err
		}
		next.TotalScore = att.TotalScore + rec.Value
		phase, err := session.Transition(ctx, st.Phase, session.EventAdvance)
		if err != nil {
			return err
		}
		if err := e.save(ctx, chatID, session.State{Phase: phase, Attempt: &next}); err != nil {
			return err
		}
		step.Next = promptFor(&next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// CompleteAttempt finishes the active attempt with the score accumulated
// so far.
func (e *engineService) CompleteAttempt(ctx context.Context, chatID int64) (*Result, error) {
	var result *Result
	err := e.locked(ctx, chatID, func() error {
		st, err := e.states.Get(ctx, chatID)
		if err != nil {
			return err
		}
		if !st.Active() {
			return ErrNoActiveAttempt
		}

		ts, changed, err := e.store.CompleteSession(ctx, st.Attempt.SessionID, st.Attempt.TotalScore, e.now())
		if err != nil {
			return err
		}
		result, err = e.finish(ctx, chatID, st.Attempt, ts, changed)
		return err
	})
	return result, err
}

// finish runs after the session row is complete. changed is false when an
// earlier call already completed it; the stored score is reported and
// nothing is exported again.
func (e *engineService) finish(ctx context.Context, chatID int64, att *session.Attempt, ts *content.TestSession, changed bool) (*Result, error) {
	bucket, err := e.resolver.Resolve(ctx, ts.CategoryID, ts.TotalScore)
	if err != nil {
		e.log.Warn("score resolution failed, using fallback", "session_id", ts.ID, "error", err)
		bucket = nil
	}

	phase, err := session.Transition(ctx, session.PhaseAttemptActive, session.EventFinish)
	if err != nil {
		return nil, err
	}
	if err := e.save(ctx, chatID, session.State{Phase: phase}); err != nil {
		return nil, fmt.Errorf("clear attempt state: %w", err)
	}

	result := &Result{
		SessionID:    ts.ID,
		CategoryID:   ts.CategoryID,
		CategoryName: att.CategoryName,
		TotalScore:   ts.TotalScore,
		Response:     bucket,
	}
	if ts.CompletedAt != nil {
		result.CompletedAt = *ts.CompletedAt
	}

	if !changed {
		e.log.Info("attempt already completed", "chat_id", chatID, "session_id", ts.ID)
		return result, nil
	}

	e.metrics.attemptCompleted(ctx, ts.CategoryID)
	e.log.Info("attempt completed", "chat_id", chatID, "session_id", ts.ID, "score", ts.TotalScore)
	e.export(ctx, chatID, result)
	return result, nil
}

func (e *engineService) export(ctx context.Context, chatID int64, r *Result) {
	ex := notifier.Export{
		Score:        r.TotalScore,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		SessionID:    r.SessionID,
		CompletedAt:  r.CompletedAt,
	}
	if u, err := e.store.GetUser(ctx, chatID); err == nil {
		ex.Name, ex.Phone, ex.Username = u.DisplayName, u.PhoneNumber, u.Username
	} else {
		e.log.Warn("export without user details", "chat_id", chatID, "error", err)
	}
	if !e.notify.Enqueue(ex) {
		e.log.Warn("result export dropped", "session_id", r.SessionID)
	}
}

func (e *engineService) CancelAttempt(ctx context.Context, chatID int64) error {
	return e.locked(ctx, chatID, func() error {
		st, err := e.states.Get(ctx, chatID)
		if err != nil {
			return err
		}
		if !st.Active() {
			return ErrNoActiveAttempt
		}
		phase, err := session.Transition(ctx, st.Phase, session.EventCancel)
		if err != nil {
			return err
		}
		if err := e.save(ctx, chatID, session.State{Phase: phase}); err != nil {
			return err
		}
		e.log.Info("attempt cancelled", "chat_id", chatID, "session_id", st.Attempt.SessionID)
		return nil
	})
}

func (e *engineService) History(ctx context.Context, chatID int64, limit int) ([]content.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return e.store.UserHistory(ctx, chatID, limit)
}

func (e *engineService) State(ctx context.Context, chatID int64) (session.State, error) {
	return e.states.Get(ctx, chatID)
}

func promptFor(att *session.Attempt) *Prompt {
	q, _ := att.Current()
	return &Prompt{
		SessionID:    att.SessionID,
		CategoryName: att.CategoryName,
		Position:     att.CurrentIndex + 1,
		Total:        len(att.Questions),
		Question:     q,
	}
}
