package services

import (
	"fmt"
	"strings"
)

// Kind classifies a service failure for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Error is an expected, client-facing failure. Fields maps a field or
// category name to a message and is returned to the client as-is.
type Error struct {
	Kind   Kind
	Fields map[string]string
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, ", "))
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

func notFound(field, msg string) *Error {
	return &Error{Kind: KindNotFound, Fields: map[string]string{field: msg}}
}

func unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Fields: map[string]string{"error": msg}}
}

func badRequest(msg string) *Error {
	return validationError(map[string]string{"error": msg})
}
