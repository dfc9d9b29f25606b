package pipeline

import (
	"errors"
	"net/http"

	"signal_bot/internal/signal"
)

// Kind — вид ошибки пайплайна, он же code в ответе вебхука и outcome в аудите.
type Kind string

const (
	KindParse                  Kind = "parse_error"
	KindValidation             Kind = "validation_error"
	KindNumeric                Kind = "numeric_error"
	KindInsufficientBalance    Kind = "insufficient_balance"
	KindUnsupportedContentType Kind = "unsupported_content_type"
	KindBalanceQuery           Kind = "balance_query_error"
	KindExchange               Kind = "exchange_error"
	KindTransport              Kind = "transport_error"
)

// OutcomeSuccess — outcome в аудите для принятого биржей ордера.
const OutcomeSuccess = "success"

func (k Kind) HTTPStatus() int {
	switch k {
	case KindParse, KindValidation, KindNumeric, KindInsufficientBalance:
		return http.StatusBadRequest
	case KindUnsupportedContentType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// classifyParse переводит ошибку разбора сигнала в вид ошибки пайплайна.
func classifyParse(err error) *Error {
	var se *signal.Error
	if !errors.As(err, &se) {
		return &Error{Kind: KindParse, Msg: err.Error(), Err: err}
	}

	kind := KindParse
	switch se.Reason {
	case signal.ReasonUnsupportedContentType:
		kind = KindUnsupportedContentType
	case signal.ReasonMissingField, signal.ReasonInvalidField:
		kind = KindValidation
	case signal.ReasonBadNumber:
		kind = KindNumeric
	}
	return &Error{Kind: kind, Msg: se.Error(), Err: err}
}
