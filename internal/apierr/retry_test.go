package apierr_test

// Notes:
// - Retry count, shouldRetry filtering, cancellation and normalization are
//   observable; exact backoff timing is not tested.

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alnah/go-notetaker/internal/apierr"
)

// ---------------------------------------------------------------------------
// TestRetryWithBackoff - Generic retry utility
// ---------------------------------------------------------------------------

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	t.Run("success on first try returns immediately", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		result, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Minute},
			func() (string, error) {
				callCount++
				return "immediate", nil
			},
			func(error) bool { return true },
		)

		if err != nil {
			t.Errorf("RetryWithBackoff() unexpected error: %v", err)
		}
		if result != "immediate" {
			t.Errorf("got %q, want %q", result, "immediate")
		}
		if callCount != 1 {
			t.Errorf("call count = %d, want 1", callCount)
		}
	})

	t.Run("shouldRetry false stops immediately", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		testErr := errors.New("non-retryable")
		_, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				return "", testErr
			},
			func(error) bool { return false },
		)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if callCount != 1 {
			t.Errorf("call count = %d, want 1 (no retry)", callCount)
		}
	})

	t.Run("MaxRetries 0 means single attempt", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		testErr := errors.New("always fails")
		_, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				return "", testErr
			},
			func(error) bool { return true },
		)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if callCount != 1 {
			t.Errorf("call count = %d, want 1", callCount)
		}
	})

	t.Run("retries then succeeds", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		result, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				if callCount < 3 {
					return "", errors.New("transient")
				}
				return "success", nil
			},
			func(error) bool { return true },
		)

		if err != nil {
			t.Errorf("RetryWithBackoff() unexpected error: %v", err)
		}
		if result != "success" {
			t.Errorf("got %q, want %q", result, "success")
		}
		if callCount != 3 {
			t.Errorf("call count = %d, want 3", callCount)
		}
	})

	t.Run("max retries exceeded wraps last error", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		testErr := errors.New("always fails")
		_, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				return "", testErr
			},
			func(error) bool { return true },
		)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if callCount != 3 {
			t.Errorf("call count = %d, want 3 (1 initial + 2 retries)", callCount)
		}
		if !errors.Is(err, testErr) {
			t.Errorf("error should wrap original: got %v", err)
		}
	})

	t.Run("already cancelled context returns immediately", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		callCount := 0
		_, err := apierr.RetryWithBackoff(
			ctx,
			apierr.RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Minute},
			func() (string, error) {
				callCount++
				return "", errors.New("should retry")
			},
			func(error) bool { return true },
		)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		// First call happens, then context check on retry wait
		if callCount != 1 {
			t.Errorf("call count = %d, want 1", callCount)
		}
	})

	t.Run("context cancellation during retry stops early", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		callCount := 0
		_, err := apierr.RetryWithBackoff(
			ctx,
			apierr.RetryConfig{MaxRetries: 10, BaseDelay: 50 * time.Millisecond, MaxDelay: 100 * time.Millisecond},
			func() (string, error) {
				callCount++
				if callCount == 1 {
					// Cancel after first call
					go func() {
						time.Sleep(5 * time.Millisecond)
						cancel()
					}()
				}
				return "", errors.New("transient")
			},
			func(error) bool { return true },
		)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if callCount >= 5 {
			t.Errorf("call count = %d, should be less than 5 (cancelled early)", callCount)
		}
	})

	t.Run("negative MaxRetries normalized to 0", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		testErr := errors.New("always fails")
		_, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxRetries: -5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				return "", testErr
			},
			func(error) bool { return true },
		)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if callCount != 1 {
			t.Errorf("call count = %d, want 1", callCount)
		}
	})

	t.Run("selective retry based on error type", func(t *testing.T) {
		t.Parallel()

		retryableErr := apierr.ErrRateLimit
		nonRetryableErr := apierr.ErrAuthFailed

		callCount := 0
		_, err := apierr.RetryWithBackoff(
			context.Background(),
			apierr.RetryConfig{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			func() (string, error) {
				callCount++
				if callCount == 1 {
					return "", retryableErr
				}
				return "", nonRetryableErr
			},
			apierr.IsRetryable,
		)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if callCount != 2 {
			t.Errorf("call count = %d, want 2 (1 retryable + 1 non-retryable)", callCount)
		}
		if !errors.Is(err, apierr.ErrAuthFailed) {
			t.Errorf("error = %v, want ErrAuthFailed", err)
		}
	})
}

// ---------------------------------------------------------------------------
// RetryConfig.OnRetry - retry notifications
// ---------------------------------------------------------------------------

func TestRetryWithBackoff_OnRetry(t *testing.T) {
	t.Parallel()

	var attempts []int
	var delays []time.Duration
	cfg := apierr.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			if !errors.Is(err, apierr.ErrServer) {
				t.Errorf("OnRetry err = %v, want ErrServer", err)
			}
			attempts = append(attempts, attempt)
			delays = append(delays, delay)
		},
	}

	_, err := apierr.RetryWithBackoff(context.Background(), cfg,
		func() (int, error) { return 0, apierr.ErrServer },
		apierr.IsRetryable)

	if !errors.Is(err, apierr.ErrServer) {
		t.Fatalf("error = %v, want ErrServer", err)
	}
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("attempts = %v, want [1 2 3]", attempts)
	}
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond}
	for i := range want {
		if i < len(delays) && delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestRetryWithBackoff_OnRetryCalls(t *testing.T) {
	t.Parallel()

	errTransient := errors.New("transient")
	errFinal := errors.New("final")

	tests := []struct {
		name        string
		errs        []error // per attempt; past the end means success
		shouldRetry func(error) bool
		wantHooks   []error
	}{
		{
			name:        "first try succeeds",
			shouldRetry: func(error) bool { return true },
		},
		{
			name:        "non-retryable error",
			errs:        []error{errFinal},
			shouldRetry: func(error) bool { return false },
		},
		{
			name:        "hook sees the error of the failed attempt",
			errs:        []error{errTransient, errFinal},
			shouldRetry: func(error) bool { return true },
			wantHooks:   []error{errTransient, errFinal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got []error
			cfg := apierr.RetryConfig{
				MaxRetries: 5,
				BaseDelay:  time.Millisecond,
				MaxDelay:   time.Millisecond,
				OnRetry:    func(_ int, err error, _ time.Duration) { got = append(got, err) },
			}

			calls := 0
			_, _ = apierr.RetryWithBackoff(context.Background(), cfg, func() (int, error) {
				defer func() { calls++ }()
				if calls < len(tt.errs) {
					return 0, tt.errs[calls]
				}
				return 1, nil
			}, tt.shouldRetry)

			if len(got) != len(tt.wantHooks) {
				t.Fatalf("OnRetry calls = %d, want %d", len(got), len(tt.wantHooks))
			}
			for i := range got {
				if !errors.Is(got[i], tt.wantHooks[i]) {
					t.Errorf("OnRetry[%d] err = %v, want %v", i, got[i], tt.wantHooks[i])
				}
			}
		})
	}
}

func TestRetryWithBackoff_OnRetryRunsBeforeWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hooks, calls := 0, 0
	cfg := apierr.RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Minute,
		MaxDelay:   time.Minute,
		OnRetry: func(int, error, time.Duration) {
			hooks++
			cancel()
		},
	}

	_, err := apierr.RetryWithBackoff(ctx, cfg, func() (int, error) {
		calls++
		return 0, apierr.ErrServer
	}, apierr.IsRetryable)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if hooks != 1 || calls != 1 {
		t.Errorf("hooks = %d, calls = %d, want 1 and 1", hooks, calls)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()

	cfg := apierr.DefaultRetryConfig()
	if cfg.MaxRetries != apierr.DefaultMaxRetries || cfg.BaseDelay != apierr.DefaultBaseDelay || cfg.MaxDelay != apierr.DefaultMaxDelay {
		t.Errorf("DefaultRetryConfig() = %+v", cfg)
	}
}
