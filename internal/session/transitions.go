package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

var ErrIllegalTransition = errors.New("illegal phase transition")

const (
	EventAwaitPhone = "await_phone"
	EventReset      = "reset"
	EventRegister   = "register"
	EventStart      = "start"
	EventAdvance    = "advance"
	EventFinish     = "finish"
	EventCancel     = "cancel"
)

var (
	anyPhase = []string{string(PhaseIdle), string(PhaseAwaitingPhone), string(PhaseAttemptActive)}

	events = fsm.Events{
		{Name: EventAwaitPhone, Src: anyPhase, Dst: string(PhaseAwaitingPhone)},
		{Name: EventReset, Src: anyPhase, Dst: string(PhaseIdle)},
		{Name: EventRegister, Src: []string{string(PhaseAwaitingPhone), string(PhaseIdle)}, Dst: string(PhaseIdle)},
		{Name: EventStart, Src: anyPhase, Dst: string(PhaseAttemptActive)},
		{Name: EventAdvance, Src: []string{string(PhaseAttemptActive)}, Dst: string(PhaseAttemptActive)},
		{Name: EventFinish, Src: []string{string(PhaseAttemptActive)}, Dst: string(PhaseIdle)},
		{Name: EventCancel, Src: []string{string(PhaseAttemptActive)}, Dst: string(PhaseIdle)},
	}
)

// Can reports whether event is allowed from phase.
func Can(from Phase, event string) bool {
	return fsm.NewFSM(string(from), events, fsm.Callbacks{}).Can(event)
}

// Transition returns the phase reached by firing event from from.
func Transition(ctx context.Context, from Phase, event string) (Phase, error) {
	if from == "" {
		from = PhaseIdle
	}
	f := fsm.NewFSM(string(from), events, fsm.Callbacks{})
	if !f.Can(event) {
		return from, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, event, from)
	}
	if err := f.Event(ctx, event); err != nil {
		// Self transitions report NoTransitionError; the phase is still valid.
		var same fsm.NoTransitionError
		if !errors.As(err, &same) {
			return from, fmt.Errorf("transition %s from %s: %w", event, from, err)
		}
	}
	return Phase(f.Current()), nil
}
