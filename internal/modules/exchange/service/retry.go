package service

import (
	"context"
	"time"
)

// RetryPolicy — единая политика повторов для PlaceOrder и CancelOrder.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Retryable:   IsTransport,
	}
}

// Do вызывает fn, пока она не вернёт nil, неретраибельную ошибку
// или не кончатся попытки. Возвращает число сделанных попыток и последнюю ошибку.
// Пауза — фиксированная, только между попытками.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransport
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(attempt); err == nil {
			return attempt, nil
		}
		if !retryable(err) || attempt == maxAttempts {
			return attempt, err
		}
		if p.Delay <= 0 {
			continue
		}
		t := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return attempt, err
		case <-t.C:
		}
	}
	return maxAttempts, err
}
