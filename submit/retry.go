package submit

import "time"

// BackoffFunc returns the wait before the next attempt, given the 1-based
// attempt number that just failed.
type BackoffFunc func(attempt int) time.Duration

// ExpBackoff doubles the base per attempt: base=1s gives 2s after the first
// failure, 4s after the second.
func ExpBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(1<<attempt)
	}
}

// Retry runs op up to attempts times, sleeping backoff(attempt) between
// failures. There is no wait after the final attempt. A successful attempt
// short-circuits; after exhaustion the last error is returned. sleep is
// injectable for tests; pass time.Sleep in production.
func Retry[T any](attempts int, backoff BackoffFunc, sleep func(time.Duration), op func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := op(attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt < attempts {
			sleep(backoff(attempt))
		}
	}
	return zero, lastErr
}
