package specialist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		MaxDelay:     5 * time.Millisecond,
		MaxAttempts:  5,
	}
}

func TestDispatcher_SucceedsFirstTry(t *testing.T) {
	d := NewDispatcher(fastPolicy(), 1000, []string{"extractor"}, nil)
	calls := 0
	success, errMsg, err := d.Call(context.Background(), "extractor", func(ctx context.Context) (bool, string, error) {
		calls++
		return true, "", nil
	})
	require.NoError(t, err)
	assert.True(t, success)
	assert.Empty(t, errMsg)
	assert.Equal(t, 1, calls)
}

func TestDispatcher_RetriesTransientThenSucceeds(t *testing.T) {
	d := NewDispatcher(fastPolicy(), 1000, []string{"extractor"}, nil)
	calls := 0
	success, _, err := d.Call(context.Background(), "extractor", func(ctx context.Context) (bool, string, error) {
		calls++
		if calls < 3 {
			return false, "", errors.New("transport: connection reset")
		}
		return true, "", nil
	})
	require.NoError(t, err)
	assert.True(t, success)
	assert.Equal(t, 3, calls)
}

func TestDispatcher_PermanentFailsImmediately(t *testing.T) {
	d := NewDispatcher(fastPolicy(), 1000, []string{"analyzer"}, nil)
	calls := 0
	success, errMsg, err := d.Call(context.Background(), "analyzer", func(ctx context.Context) (bool, string, error) {
		calls++
		return false, "validation: missing cv_text", nil
	})
	assert.NoError(t, err)
	assert.False(t, success)
	assert.Equal(t, "validation: missing cv_text", errMsg)
	assert.Equal(t, 1, calls)
}

// TestDispatcher_FailsAfterFifthAttempt grounds B2: a chain of rate-limit
// errors fails the step after the fifth attempt, not before and not after.
func TestDispatcher_FailsAfterFifthAttempt(t *testing.T) {
	d := NewDispatcher(fastPolicy(), 1000, []string{"interviewer"}, nil)
	calls := 0
	success, _, err := d.Call(context.Background(), "interviewer", func(ctx context.Context) (bool, string, error) {
		calls++
		return false, "", errors.New("rate-limit: too many requests")
	})
	assert.False(t, success)
	require.Error(t, err)
	assert.Equal(t, 5, calls)
}

func TestDispatcher_ContextCanceledStopsRetries(t *testing.T) {
	d := NewDispatcher(fastPolicy(), 1000, []string{"charter"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	success, _, err := d.Call(ctx, "charter", func(ctx context.Context) (bool, string, error) {
		calls++
		cancel()
		return false, "", errors.New("transport: timeout")
	})
	assert.False(t, success)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
