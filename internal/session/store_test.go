package session

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func sampleState() State {
	return State{
		Phase: PhaseAttemptActive,
		Attempt: &Attempt{
			SessionID:    7,
			CategoryID:   3,
			CategoryName: "Stress",
			Questions: []SnapshotQuestion{
				{ID: 1, Text: "Sleep well?", Answers: []SnapshotAnswer{{ID: 10, Text: "no", Value: -2}, {ID: 11, Text: "yes", Value: 0}}},
				{ID: 2, Text: "Tired?", Answers: []SnapshotAnswer{{ID: 20, Text: "yes", Value: 5}}},
			},
			CurrentIndex: 1,
			TotalScore:   -2,
		},
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	const chatID = 100

	st, err := s.Get(ctx, chatID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.Phase != PhaseIdle || st.Attempt != nil {
		t.Fatalf("expected idle for unknown user, got %+v", st)
	}

	if err := s.Put(ctx, chatID, sampleState()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	st, err = s.Get(ctx, chatID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !st.Active() {
		t.Fatalf("expected active attempt, got %+v", st)
	}
	q, ok := st.Attempt.Current()
	if !ok || q.ID != 2 {
		t.Fatalf("expected current question 2, got %+v", q)
	}
	if a, ok := st.Attempt.Questions[0].Answer(10); !ok || a.Value != -2 {
		t.Fatalf("expected snapshot answer value -2, got %+v", a)
	}

	// Mutating the returned copy must not leak into the store.
	st.Attempt.TotalScore = 1000
	again, _ := s.Get(ctx, chatID)
	if again.Attempt.TotalScore != -2 {
		t.Errorf("store state changed through returned copy: %d", again.Attempt.TotalScore)
	}

	if err := s.Delete(ctx, chatID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	st, _ = s.Get(ctx, chatID)
	if st.Phase != PhaseIdle {
		t.Errorf("expected idle after delete, got %s", st.Phase)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379", DialTimeout: 200 * time.Millisecond})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	exerciseStore(t, NewRedisStore(client, "surveybot:test:"+t.Name()+":"))
}

func TestAttemptExhausted(t *testing.T) {
	a := sampleState().Attempt
	if a.Exhausted() {
		t.Fatal("attempt at index 1 of 2 is not exhausted")
	}
	a.CurrentIndex = 2
	if !a.Exhausted() {
		t.Fatal("expected exhausted attempt")
	}
	if _, ok := a.Current(); ok {
		t.Fatal("exhausted attempt has no current question")
	}
}
