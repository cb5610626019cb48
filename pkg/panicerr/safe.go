package panicerr

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/panics"
)

// Safe wraps a function that returns an error, catching any panics and returning them as an error.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeContext wraps a function that takes a context and returns an error.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// Go runs fn on a new goroutine and logs instead of crashing when it
// panics or fails. Meant for background loops whose errors should not
// take the process down.
func Go(ctx context.Context, name string, fn func(context.Context) error) {
	go func() {
		if err := SafeContext(fn)(ctx); err != nil {
			slog.ErrorContext(ctx, "background task failed", "task", name, "error", err)
		}
	}()
}
