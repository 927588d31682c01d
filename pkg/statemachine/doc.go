// Package statemachine provides a typed, stateless finite-state transition
// table.
//
// A Machine holds transitions keyed by source state and event. Fire takes the
// current state from the caller, evaluates guards in the order transitions
// were added, runs the winning transition's actions and returns the target
// state. Because the machine holds no state of its own, one instance can drive
// many persisted records concurrently; the caller writes the returned state
// back.
//
// Fire distinguishes "no edge defined" (NoTransitionError, IsNoTransition)
// from "every edge vetoed" (RejectedError, IsRejected). Action failures wrap
// ErrActionFailed and leave the state unchanged.
package statemachine
