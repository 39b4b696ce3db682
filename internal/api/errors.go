package api

import "fmt"

// Class is the §7 error taxonomy the HTTP layer maps every handler error
// onto: Input/NotFound/Transient/Internal.
type Class string

const (
	ClassInput     Class = "input"
	ClassNotFound  Class = "not_found"
	ClassTransient Class = "transient"
	ClassInternal  Class = "internal"
)

// Error is a classified API error; the router maps Class to an HTTP status
// and renders {error:{type,code,message}} (§6.1).
type Error struct {
	Class   Class
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func NewInputError(code, message string) *Error {
	return &Error{Class: ClassInput, Code: code, Message: message}
}

func NewNotFoundError(code, message string) *Error {
	return &Error{Class: ClassNotFound, Code: code, Message: message}
}

func NewTransientError(code, message string) *Error {
	return &Error{Class: ClassTransient, Code: code, Message: message}
}

func NewInternalError(code, message string) *Error {
	return &Error{Class: ClassInternal, Code: code, Message: message}
}

// Status returns the HTTP status code for e's class.
func (e *Error) Status() int {
	switch e.Class {
	case ClassInput:
		return 400
	case ClassNotFound:
		return 404
	case ClassTransient:
		return 503
	default:
		return 500
	}
}
