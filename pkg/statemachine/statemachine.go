package statemachine

import (
	"context"
	"fmt"
)

// Guard vetoes a transition for a given subject.
type Guard[T any] func(ctx context.Context, subject T) bool

// Action runs before the state changes. An error aborts the transition.
type Action[S ~string, T any] func(ctx context.Context, from, to S, subject T) error

// Transition is one edge of the table.
type Transition[S ~string, E ~string, T any] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[T]  // all must pass
	Actions []Action[S, T]
}

// Machine is an immutable transition table. It keeps no current state: the
// caller passes it in and stores the result, so one Machine serves every
// record and is safe for concurrent use.
type Machine[S ~string, E ~string, T any] struct {
	table map[S]map[E][]Transition[S, E, T]
}

// Fire resolves event from the current state. The first transition whose
// guards all pass wins; its actions run in order and the target state is
// returned.
func (m *Machine[S, E, T]) Fire(ctx context.Context, current S, event E, subject T) (S, error) {
	t, err := m.match(ctx, current, event, subject)
	if err != nil {
		return current, err
	}
	for _, action := range t.Actions {
		if err := action(ctx, current, t.To, subject); err != nil {
			return current, fmt.Errorf("%w: %s -> %s on %s: %w", ErrActionFailed, current, t.To, event, err)
		}
	}
	return t.To, nil
}

// CanFire reports whether Fire would find a transition, without running actions.
func (m *Machine[S, E, T]) CanFire(ctx context.Context, current S, event E, subject T) bool {
	_, err := m.match(ctx, current, event, subject)
	return err == nil
}

// Events lists the events that have at least one transition out of state.
func (m *Machine[S, E, T]) Events(state S) []E {
	out := make([]E, 0, len(m.table[state]))
	for e := range m.table[state] {
		out = append(out, e)
	}
	return out
}

func (m *Machine[S, E, T]) match(ctx context.Context, current S, event E, subject T) (*Transition[S, E, T], error) {
	candidates := m.table[current][event]
	if len(candidates) == 0 {
		return nil, &NoTransitionError{State: string(current), Event: string(event)}
	}
	for i := range candidates {
		if passes(ctx, candidates[i].Guards, subject) {
			return &candidates[i], nil
		}
	}
	return nil, &RejectedError{State: string(current), Event: string(event)}
}

func passes[T any](ctx context.Context, guards []Guard[T], subject T) bool {
	for _, g := range guards {
		if !g(ctx, subject) {
			return false
		}
	}
	return true
}
