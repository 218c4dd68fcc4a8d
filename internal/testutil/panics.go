// Package testutil provides helpers shared by collection tests.
package testutil

import (
	"errors"
	"testing"
)

// ExpectPanic runs fn and fails the test unless it panics with an error
// wrapping want.
func ExpectPanic(t testing.TB, want error, fn func()) {
	t.Helper()
	err := CapturePanic(fn)
	if err == nil {
		t.Fatalf("expected panic wrapping %v, got none", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("panic = %v, want error wrapping %v", err, want)
	}
}

// CapturePanic runs fn and returns the error it panicked with, or nil if it
// returned normally. Non-error panic values are re-raised.
func CapturePanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	fn()
	return nil
}
