package statemachine

import "fmt"

// Builder collects transitions and produces a Machine.
//
//	m, err := statemachine.NewBuilder[Status, Event, *Record]().
//		From(Trialing, Active).When(Paid).To(Active).Do(applyPayment).Add().
//		Build()
type Builder[S ~string, E ~string, T any] struct {
	transitions []Transition[S, E, T]
	err         error

	from    []S
	event   E
	to      S
	hasTo   bool
	guards  []Guard[T]
	actions []Action[S, T]
}

func NewBuilder[S ~string, E ~string, T any]() *Builder[S, E, T] {
	return &Builder[S, E, T]{}
}

// From starts a transition leaving any of states.
func (b *Builder[S, E, T]) From(states ...S) *Builder[S, E, T] {
	b.reset()
	b.from = states
	return b
}

func (b *Builder[S, E, T]) When(event E) *Builder[S, E, T] {
	b.event = event
	return b
}

func (b *Builder[S, E, T]) To(state S) *Builder[S, E, T] {
	b.to = state
	b.hasTo = true
	return b
}

// If adds a guard. Nil guards are ignored.
func (b *Builder[S, E, T]) If(g Guard[T]) *Builder[S, E, T] {
	if g != nil {
		b.guards = append(b.guards, g)
	}
	return b
}

// Do adds an action. Nil actions are ignored.
func (b *Builder[S, E, T]) Do(a Action[S, T]) *Builder[S, E, T] {
	if a != nil {
		b.actions = append(b.actions, a)
	}
	return b
}

// Add records the pending transition for every From state. Earlier
// transitions for the same state and event take priority.
func (b *Builder[S, E, T]) Add() *Builder[S, E, T] {
	if b.err != nil {
		return b
	}
	if len(b.from) == 0 || b.event == "" || !b.hasTo {
		b.err = fmt.Errorf("%w: from=%v event=%q to=%q", ErrInvalidTransition, b.from, b.event, b.to)
		return b
	}
	for _, from := range b.from {
		b.transitions = append(b.transitions, Transition[S, E, T]{
			From:    from,
			To:      b.to,
			Event:   b.event,
			Guards:  b.guards,
			Actions: b.actions,
		})
	}
	b.reset()
	return b
}

// Build returns the machine or the first error met while adding transitions.
func (b *Builder[S, E, T]) Build() (*Machine[S, E, T], error) {
	if b.err != nil {
		return nil, b.err
	}
	m := &Machine[S, E, T]{table: make(map[S]map[E][]Transition[S, E, T])}
	for _, t := range b.transitions {
		if m.table[t.From] == nil {
			m.table[t.From] = make(map[E][]Transition[S, E, T])
		}
		m.table[t.From][t.Event] = append(m.table[t.From][t.Event], t)
	}
	return m, nil
}

// MustBuild is Build that panics, for tables fixed at compile time.
func (b *Builder[S, E, T]) MustBuild() *Machine[S, E, T] {
	m, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

func (b *Builder[S, E, T]) reset() {
	var zeroS S
	var zeroE E
	b.from = nil
	b.event = zeroE
	b.to = zeroS
	b.hasTo = false
	b.guards = nil
	b.actions = nil
}
