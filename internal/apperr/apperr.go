// Package apperr defines the coded errors that the HTTP layer turns into responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeNotFound        Code = "NOT_FOUND"
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Metadata describes how an error code is presented to API clients.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
	ShowMessage   bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "invalid request",
		ShowMessage:   true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ShowMessage:   true,
	},
	CodePayloadTooLarge: {
		HTTPStatus:    http.StatusRequestEntityTooLarge,
		PublicMessage: "upload too large",
		ShowMessage:   true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
		ShowMessage:   false,
	},
}

// MetadataFor returns the presentation of a code. Unknown codes are treated as internal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func Internal(err error, message string) *Error {
	return Wrap(CodeInternal, err, message)
}

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

// PublicMessage is the text that may be shown to the caller. Internal errors never leak
// their message.
func (e *Error) PublicMessage() string {
	meta := MetadataFor(e.Code())
	if meta.ShowMessage && e.Message() != "" {
		return e.Message()
	}
	return meta.PublicMessage
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first *Error in the chain. Any other error is reported as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return Internal(err, "unexpected error")
}
