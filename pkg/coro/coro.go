// Package coro abstracts saving and restoring execution contexts.
//
// A Platform creates suspended contexts that begin at an entry function and
// transfers control between them. Exactly one context of a platform runs at
// a time; Swap is the only point where control moves.
package coro

import "errors"

var (
	// ErrNilEntry is returned by Make when no entry function is given.
	ErrNilEntry = errors.New("coro: nil entry function")

	// ErrNoStack is returned by Make when the stack buffer is empty.
	ErrNoStack = errors.New("coro: empty stack")

	// ErrForeignContext is returned for contexts created by another platform.
	ErrForeignContext = errors.New("coro: context belongs to another platform")

	// ErrReleased is returned when resuming a released context.
	ErrReleased = errors.New("coro: context released")
)

// Context is an opaque saved execution state.
type Context interface {
	// Released reports whether the context was discarded.
	Released() bool
}

// Platform captures, restores and discards execution contexts.
type Platform interface {
	// Bootstrap returns a context for the calling flow of control, so it
	// can be switched away from and later resumed.
	Bootstrap() Context

	// Make returns a suspended context that calls entry(arg) when first
	// resumed. entry must transfer control away before it returns.
	Make(stack []byte, entry func(arg any), arg any) (Context, error)

	// Swap saves the calling flow into from and resumes to. It returns
	// when from is resumed by a later Swap.
	Swap(from, to Context) error

	// Release discards a context that will never be resumed again. Its
	// pending deferred calls run before Release returns.
	Release(c Context) error
}
