package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrz1836/deepplan/internal/config"
)

// maxBackoff caps the exponential backoff between retry attempts.
const maxBackoff = 30 * time.Second

// httpStatusError marks a provider error carrying an HTTP status code, so
// the retry loop can match it against the configured allow-list.
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// callWithRetry runs fn up to cfg.MaxRetries times, retrying only on HTTP
// status codes in cfg.RetryCodes with capped exponential backoff (1s, 2s,
// 4s, ...). Any other error returns immediately.
func callWithRetry(ctx context.Context, cfg config.LLMClientConfig, fn func() (string, error)) (string, error) {
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var statusErr *httpStatusError
		if !errors.As(err, &statusErr) || !retryableCode(statusErr.StatusCode, cfg.RetryCodes) || attempt == attempts-1 {
			return "", err
		}

		backoff := time.Duration(1<<attempt) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", lastErr
}

func retryableCode(code int, retryCodes []int) bool {
	for _, c := range retryCodes {
		if c == code {
			return true
		}
	}
	return false
}
