package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeConnection      Code = "CONNECTION_ERROR"
	CodeTimeout         Code = "TIMEOUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidQuantity Code = "INVALID_QUANTITY"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeInternal        Code = "INTERNAL_ERROR"
)

type Metadata struct {
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

// The connection-class messages are deliberately distinct from the
// credential-rejection message so operators can tell a network outage
// apart from a failed login.
var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeConnection: {
		Retryable:      true,
		PublicMessage:  "cannot reach the server",
		DetailsAllowed: true,
	},
	CodeTimeout: {
		Retryable:      true,
		PublicMessage:  "the server took too long to respond",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeInvalidQuantity: {
		Retryable:      false,
		PublicMessage:  "requested quantity is not available",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		Retryable:      false,
		PublicMessage:  "invalid username or password",
		DetailsAllowed: false,
	},
	CodeInternal: {
		Retryable:      false,
		PublicMessage:  "internal error",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
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

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// IsConnection reports whether err is a transport-level failure. Callers
// must treat these as "cannot determine", never as a negative result.
func IsConnection(err error) bool {
	return HasCode(err, CodeConnection) || HasCode(err, CodeTimeout)
}
