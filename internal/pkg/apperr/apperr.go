// Package apperr defines the structured error returned by every stage of the
// listing pipeline and rendered verbatim by the REST layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API callers.
const (
	CodeNoFields          = "no_fields"
	CodeInvalidPost       = "invalid_post"
	CodeInvalidImage      = "invalid_image"
	CodeInvalidField      = "invalid_field"
	CodeInvalidFieldValue = "invalid_field_value"
	CodeInvalidMetaFields = "invalid_meta_fields"
	CodeInvalidRegion     = "invalid_region"
	CodeInvalidHierarchy  = "invalid_region_hierarchy"
	CodeInvalidCategory   = "invalid_category"
	CodeInvalidCategories = "invalid_categories"
	CodeInvalidTag        = "invalid_tag"
	CodeInvalidTags       = "invalid_tags"
	CodeInvalidStatus     = "invalid_status"
	CodeInvalidParam      = "rest_invalid_param"
	CodeMissingTitle      = "missing_title"
	CodeDuplicateTitle    = "duplicate_title"
	CodeInsertFailed      = "insert_failed"
	CodeUpdateFailed      = "update_failed"
	CodeTagUpdateFailed   = "tag_update_failed"
	CodeLookupNotReady    = "lookup_not_ready"
	CodeForbidden         = "rest_forbidden"
)

// Error is a client-facing failure with an HTTP status and optional extra data.
type Error struct {
	Code    string
	Message string
	Status  int
	Extra   map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// With attaches an extra key to the error payload and returns the same error.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Extra == nil {
		e.Extra = map[string]interface{}{}
	}
	e.Extra[key] = value
	return e
}

// Wrap records the underlying cause without exposing it in the payload.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

// New creates an Error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func BadRequest(code, message string) *Error {
	return New(code, http.StatusBadRequest, message)
}

func NotFound(code, message string) *Error {
	return New(code, http.StatusNotFound, message)
}

func Conflict(code, message string) *Error {
	return New(code, http.StatusConflict, message)
}

func Internal(code, message string, cause error) *Error {
	return New(code, http.StatusInternalServerError, message).Wrap(cause)
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return ""
}
