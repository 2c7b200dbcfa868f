// Package session holds the per-user ephemeral dialogue state: a tagged
// phase plus, while a test is running, the attempt snapshot.
package session

type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAwaitingPhone Phase = "awaiting_phone"
	PhaseAttemptActive Phase = "attempt_active"
)

type SnapshotAnswer struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// SnapshotQuestion is a question as it looked when the attempt started.
type SnapshotQuestion struct {
	ID      int64            `json:"id"`
	Text    string           `json:"text"`
	Answers []SnapshotAnswer `json:"answers"`
}

// Answer returns the snapshot answer with id.
func (q SnapshotQuestion) Answer(id int64) (SnapshotAnswer, bool) {
	for _, a := range q.Answers {
		if a.ID == id {
			return a, true
		}
	}
	return SnapshotAnswer{}, false
}

// Attempt is the in-flight state of one test. Questions is copied at start
// and never changes afterwards.
type Attempt struct {
	SessionID    int64              `json:"session_id"`
	CategoryID   int64              `json:"category_id"`
	CategoryName string             `json:"category_name"`
	Questions    []SnapshotQuestion `json:"questions"`
	CurrentIndex int                `json:"current_index"`
	TotalScore   int                `json:"total_score"`
}

// Current returns the question awaiting an answer.
func (a *Attempt) Current() (SnapshotQuestion, bool) {
	if a == nil || a.CurrentIndex < 0 || a.CurrentIndex >= len(a.Questions) {
		return SnapshotQuestion{}, false
	}
	return a.Questions[a.CurrentIndex], true
}

// Exhausted reports whether every question has been answered.
func (a *Attempt) Exhausted() bool {
	return a.CurrentIndex >= len(a.Questions)
}

// State is the per-user record. Attempt is non-nil exactly when Phase is
// PhaseAttemptActive.
type State struct {
	Phase   Phase    `json:"phase"`
	Attempt *Attempt `json:"attempt,omitempty"`
}

// Idle is the state of a user with nothing in progress.
func Idle() State {
	return State{Phase: PhaseIdle}
}

func (s State) Active() bool {
	return s.Phase == PhaseAttemptActive && s.Attempt != nil
}

func (s State) clone() State {
	if s.Attempt != nil {
		a := *s.Attempt
		s.Attempt = &a
	}
	return s
}
