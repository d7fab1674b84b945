// Package errors defines the domain error type shared by the engine, the
// collaborators and the CLI boundary.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeTypeNotFound      ErrorCode = "TYPE_NOT_FOUND"
	CodeComponentNotFound ErrorCode = "COMPONENT_NOT_FOUND"
	CodeManifestNotFound  ErrorCode = "MANIFEST_NOT_FOUND"
	CodeManifestMalformed ErrorCode = "MANIFEST_MALFORMED"
	CodeIntrospection     ErrorCode = "INTROSPECTION_FAILED"
	CodeValidationError   ErrorCode = "VALIDATION_ERROR"
	CodeNotSupported      ErrorCode = "NOT_SUPPORTED"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// Context keys attached to domain errors.
const (
	CtxType      = "type"
	CtxPath      = "path"
	CtxPackage   = "package"
	CtxOperation = "operation"
)

// Sentinels for errors.Is. A DomainError matches a sentinel when the codes are equal.
var (
	ErrTypeNotFound      = New(CodeTypeNotFound, "type not found")
	ErrComponentNotFound = New(CodeComponentNotFound, "component not found")
	ErrManifestNotFound  = New(CodeManifestNotFound, "manifest not found")
	ErrManifestMalformed = New(CodeManifestMalformed, "manifest malformed")
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
		}
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...any) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches key=value to err, wrapping non-domain errors as internal.
func AddContext(err error, key string, value any) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]any{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost DomainError in err's chain.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
