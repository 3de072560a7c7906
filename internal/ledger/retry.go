package ledger

import (
	"context"
	"errors"
	"time"

	"arcade_wallet/internal/fault"
)

// RetryPolicy retries transient failures with exponential backoff. Terminal
// errors (any non-transient kind) pass through on the first attempt: a
// logical fact does not change by asking again.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	Sleep     func(time.Duration) // injectable for tests
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Second, Sleep: time.Sleep}
}

func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	delay := p.BaseDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, fault.ErrTransient) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sleep(delay)
		delay *= 2
	}
	return err
}
