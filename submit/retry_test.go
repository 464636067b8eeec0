package submit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	sleep := func(d time.Duration) { delays = append(delays, d) }

	calls := 0
	v, err := Retry(3, ExpBackoff(time.Second), sleep, func(attempt int) (string, error) {
		calls++
		if attempt < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	// Backoff doubles from the base: 2s after the first failure, 4s after the
	// second. No sleep after success.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestRetryExhaustsAndReturnsLastError(t *testing.T) {
	var delays []time.Duration
	sleep := func(d time.Duration) { delays = append(delays, d) }

	calls := 0
	last := errors.New("final failure")
	_, err := Retry(3, ExpBackoff(time.Second), sleep, func(attempt int) (int, error) {
		calls++
		if attempt == 3 {
			return 0, last
		}
		return 0, errors.New("earlier failure")
	})

	assert.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls)
	// No sleep after the final attempt.
	assert.Len(t, delays, 2)
}

func TestRetryFirstTrySuccess(t *testing.T) {
	slept := false
	v, err := Retry(3, ExpBackoff(time.Second), func(time.Duration) { slept = true }, func(int) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, slept)
}
