package service

import (
	"errors"
	"fmt"
)

// TransportError — сеть, таймаут, TLS или открытый circuit breaker.
// Только такие ошибки ретраятся.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport — предикат ретраев по умолчанию.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// APIError — корректно сформированный отказ биржи. Терминальный.
type APIError struct {
	HTTPStatus int
	Code       int
	Msg        string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange error: http=%d code=%d msg=%s", e.HTTPStatus, e.Code, e.Msg)
}
