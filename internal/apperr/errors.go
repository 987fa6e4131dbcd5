// Package apperr defines the error taxonomy shared by the services and the
// HTTP layer. Validation and duplicate errors carry field messages meant for
// the caller; authorization and persistence errors are logged in full and
// surfaced as generic messages.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrForbidden is the sentinel every AuthorizationError unwraps to.
var ErrForbidden = errors.New("forbidden")

// AuthorizationError reports that the actor may not perform Action.
type AuthorizationError struct {
	Action  string
	ActorID uint
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("forbidden: user %d may not %s", e.ActorID, e.Action)
}

func (e *AuthorizationError) Unwrap() error {
	return ErrForbidden
}

// ValidationError maps input field names to human readable messages.
type ValidationError struct {
	Fields map[string]string
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

const duplicateMemberMessage = "This user is already a member of the project"

// DuplicateMemberError is returned when an invite targets an existing member.
type DuplicateMemberError struct {
	ProjectID uint
	UserID    uint
}

func (e *DuplicateMemberError) Error() string {
	return duplicateMemberMessage
}

// FieldErrors reports the error against the email input.
func (e *DuplicateMemberError) FieldErrors() map[string]string {
	return map[string]string{"email": duplicateMemberMessage}
}

// NotFoundError reports that a referenced id did not resolve.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError unless it already belongs to
// the taxonomy, in which case it is returned unchanged.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsKnown reports whether err is one of the typed errors of this package.
func IsKnown(err error) bool {
	var (
		authErr *AuthorizationError
		valErr  *ValidationError
		dupErr  *DuplicateMemberError
		nfErr   *NotFoundError
		persErr *PersistenceError
	)
	return errors.Is(err, ErrForbidden) ||
		errors.As(err, &authErr) ||
		errors.As(err, &valErr) ||
		errors.As(err, &dupErr) ||
		errors.As(err, &nfErr) ||
		errors.As(err, &persErr)
}

var retryMessages = map[string]string{
	"task-create":          "Failed to create task. Please try again.",
	"task-status-update":   "Failed to update status. Please try again.",
	"task-priority-update": "Failed to update the priority. Please try again.",
	"task-delete":          "Failed to delete task. Please try again.",
	"project-create":       "Failed to create project. Please try again.",
	"project-update":       "Failed to update project. Please try again.",
	"project-delete":       "Failed to delete project. Please try again.",
	"member-invite":        "Failed to add member. Please try again.",
	"post-comment":         "Failed to post comment. Please try again.",
	"update-profile":       "Failed to update profile. Please try again.",
	"user-register":        "Failed to create account. Please try again.",
}

// RetryMessage is the user-facing message for a failed operation.
func RetryMessage(op string) string {
	if msg, ok := retryMessages[op]; ok {
		return msg
	}
	return "Failed to load data. Please try again."
}
