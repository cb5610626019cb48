package panicerr

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSafe(t *testing.T) {
	wantErr := errors.New("boom")
	if err := Safe(func() error { return wantErr })(); !errors.Is(err, wantErr) {
		t.Errorf("Expected wrapped function error, got %v", err)
	}
	if err := Safe(func() error { return nil })(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	err := Safe(func() error { panic("exploded") })()
	if err == nil {
		t.Fatal("Expected an error from a panicking function")
	}
	if !strings.Contains(err.Error(), "exploded") {
		t.Errorf("Expected panic value in error, got %v", err)
	}
}

func TestSafeContext(t *testing.T) {
	ctx := context.Background()
	err := SafeContext(func(ctx context.Context) error { panic("exploded") })(ctx)
	if err == nil {
		t.Fatal("Expected an error from a panicking function")
	}
	if !strings.Contains(err.Error(), "exploded") {
		t.Errorf("Expected panic value in error, got %v", err)
	}
	if err := SafeContext(func(ctx context.Context) error { return nil })(ctx); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestGo(t *testing.T) {
	done := make(chan struct{})
	Go(context.Background(), "test-task", func(ctx context.Context) error {
		defer close(done)
		panic("exploded")
	})
	<-done
}
