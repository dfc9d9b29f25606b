package signal

import "fmt"

// Reason — почему сигнал не удалось разобрать. По нему пайплайн
// выбирает вид ошибки и HTTP-код.
type Reason string

const (
	ReasonUnsupportedContentType Reason = "unsupported_content_type"
	ReasonMalformed              Reason = "malformed"
	ReasonMissingField           Reason = "missing_field"
	ReasonInvalidField           Reason = "invalid_field"
	ReasonBadNumber              Reason = "bad_number"
)

type Error struct {
	Reason Reason
	Field  string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func malformed(msg string, err error) *Error {
	return &Error{Reason: ReasonMalformed, Msg: msg, Err: err}
}

func missing(field string) *Error {
	return &Error{Reason: ReasonMissingField, Field: field, Msg: "required field is missing"}
}

func badNumber(field, value, msg string) *Error {
	return &Error{Reason: ReasonBadNumber, Field: field, Msg: fmt.Sprintf("%s (got %q)", msg, value)}
}
