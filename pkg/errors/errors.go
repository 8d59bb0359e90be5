// Package errors carries the typed application error used from repositories
// up to the HTTP layer. Handlers translate it with MetadataFor.
package errors

import (
	stderrors "errors"
)

// Error is a coded failure with optional client-visible details and an
// internal cause that is only ever logged.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches cause. A nil cause behaves like New.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Code is CodeInternal for a nil receiver so callers can chain off As.
func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

// WithReason sets details.reason plus any extra key/value pairs, merging
// into map details already present. Non-string keys are skipped.
func (e *Error) WithReason(reason Reason, kv ...any) *Error {
	if e == nil {
		return nil
	}
	details, _ := e.details.(map[string]any)
	if details == nil {
		details = make(map[string]any, 1+len(kv)/2)
	}
	details["reason"] = string(reason)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			details[key] = kv[i+1]
		}
	}
	e.details = details
	return e
}

func (e *Error) Reason() Reason {
	if e == nil {
		return ""
	}
	details, _ := e.details.(map[string]any)
	reason, _ := details["reason"].(string)
	return Reason(reason)
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stderrors.As(err, &typed) {
		return typed
	}
	return nil
}

// ReasonOf returns the reason carried anywhere in err's chain.
func ReasonOf(err error) Reason {
	return As(err).Reason()
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
