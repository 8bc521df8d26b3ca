package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	t.Run("succeeds first attempt", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, time.Millisecond, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		if calls != 1 {
			t.Errorf("Retry() calls = %d, want 1", calls)
		}
	})

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("Retry() calls = %d, want 3", calls)
		}
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		wantErr := fmt.Errorf("attempt %d", 3)
		err := Retry(context.Background(), 3, time.Millisecond, func() error {
			calls++
			return fmt.Errorf("attempt %d", calls)
		})
		if err == nil {
			t.Fatal("Retry() expected error after exhausting attempts")
		}
		if err.Error() != wantErr.Error() {
			t.Errorf("Retry() error = %v, want %v", err, wantErr)
		}
		if calls != 3 {
			t.Errorf("Retry() calls = %d, want 3", calls)
		}
	})

	t.Run("zero attempts treated as one", func(t *testing.T) {
		calls := 0
		Retry(context.Background(), 0, time.Millisecond, func() error {
			calls++
			return fmt.Errorf("fail")
		})
		if calls != 1 {
			t.Errorf("Retry() calls = %d, want 1", calls)
		}
	})

	t.Run("honors context cancellation between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		calls := 0
		err := Retry(ctx, 5, time.Minute, func() error {
			calls++
			cancel()
			return fmt.Errorf("fail")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Retry() error = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("Retry() calls = %d, want 1 before cancellation", calls)
		}
	})
}
