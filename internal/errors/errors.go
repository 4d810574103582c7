// Package errors defines the error taxonomy shared by the stores, the
// feature pipeline and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// DomainError is a coded error. Two DomainErrors match under errors.Is when
// their codes are equal, so wrapped instances still match the sentinels below.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of base carrying err as its cause.
func Wrap(base *DomainError, err error) *DomainError {
	return &DomainError{Code: base.Code, Message: base.Message, Err: err}
}

// Newf returns a copy of base with a more specific message.
func Newf(base *DomainError, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

// Code extracts the code of the outermost DomainError in err's chain.
func Code(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}
