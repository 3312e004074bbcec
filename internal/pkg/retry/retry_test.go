package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Do_AllAttemptsTimeOut(t *testing.T) {
	p := Policy{
		Timeouts:  []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond},
		BaseDelay: time.Millisecond,
	}

	var budgets []time.Duration
	start := time.Now()
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		budgets = append(budgets, time.Until(deadline))
		<-ctx.Done()
		return ctx.Err()
	})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, budgets, 3)
	assert.LessOrEqual(t, budgets[0], 10*time.Millisecond)
	assert.Greater(t, budgets[1], 10*time.Millisecond)
	assert.Greater(t, budgets[2], 20*time.Millisecond)
	// 10 + 1 + 20 + 2 + 30
	assert.GreaterOrEqual(t, elapsed, 63*time.Millisecond)
}

func TestPolicy_Do_NonRetryableStopsImmediately(t *testing.T) {
	rejected := errors.New("bad request")
	p := Policy{Timeouts: []time.Duration{time.Second, time.Second, time.Second}, BaseDelay: time.Millisecond}

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return rejected
	})

	require.ErrorIs(t, err, rejected)
	assert.Equal(t, 1, attempts)
}

func TestPolicy_Do_SucceedsAfterTimeout(t *testing.T) {
	p := Fixed(3, 5*time.Millisecond, time.Millisecond)

	var seen []int
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		seen = append(seen, attempt)
		if attempt == 0 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestPolicy_Do_CustomPredicate(t *testing.T) {
	transient := errors.New("transient")
	p := Policy{
		Timeouts:  []time.Duration{time.Second, time.Second},
		BaseDelay: time.Millisecond,
		Retryable: func(err error) bool { return errors.Is(err, transient) },
	}

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return transient
	})

	require.ErrorIs(t, err, transient)
	assert.Equal(t, 2, attempts)
}

func TestPolicy_Do_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Fixed(3, time.Second, time.Millisecond)

	attempts := 0
	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts++
		cancel()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestPolicy_Do_EmptyPolicy(t *testing.T) {
	err := Policy{}.Do(context.Background(), func(ctx context.Context, attempt int) error { return nil })
	require.Error(t, err)
}
