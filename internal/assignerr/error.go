// Package assignerr defines the failure kinds of the auto-assignment pipeline.
package assignerr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Kind string

const (
	KindNotFound                Kind = "not_found"
	KindEmptyProject            Kind = "empty_project"
	KindNoEligibleMembers       Kind = "no_eligible_members"
	KindDependenciesNotComplete Kind = "dependencies_not_complete"
	KindNoSuitableMember        Kind = "no_suitable_member"
	KindPersistence             Kind = "persistence"
)

// Reasons carried by KindNoEligibleMembers.
const (
	ReasonRole         = "no appropriate role"
	ReasonAvailability = "insufficient availability"
	ReasonExhausted    = "no eligible members after filtering"
)

type Error struct {
	Kind Kind
	Msg  string // returned to the caller as the rejection message
	Err  error  // underlying cause, if any

	// Pending lists the unfinished predecessor tasks for KindDependenciesNotComplete.
	Pending []uuid.UUID
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrEmptyProject            = &Error{Kind: KindEmptyProject}
	ErrNoEligibleMembers       = &Error{Kind: KindNoEligibleMembers}
	ErrDependenciesNotComplete = &Error{Kind: KindDependenciesNotComplete}
	ErrNoSuitableMember        = &Error{Kind: KindNoSuitableMember}
	ErrPersistence             = &Error{Kind: KindPersistence}
)

func New(kind Kind, msg string, underlying error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: underlying}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Kind, msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func ProjectNotFound(projectID uuid.UUID) *Error {
	return New(KindNotFound, fmt.Sprintf("project %s not found", projectID), nil)
}

func TaskNotFound(taskID uuid.UUID) *Error {
	return New(KindNotFound, fmt.Sprintf("task %s not found", taskID), nil)
}

func EmptyProject(projectID uuid.UUID) *Error {
	return New(KindEmptyProject, fmt.Sprintf("project %s has no usable members", projectID), nil)
}

func NoEligibleMembers(reason string) *Error {
	return New(KindNoEligibleMembers, reason, nil)
}

func DependenciesNotComplete(pending []uuid.UUID, cause error) *Error {
	e := New(KindDependenciesNotComplete, "dependencies not completed", cause)
	e.Pending = pending
	return e
}

func NoSuitableMember() *Error {
	return New(KindNoSuitableMember, "no suitable member found", nil)
}

// Persistence wraps a data-access failure; errors.Is still sees the cause.
func Persistence(op string, err error) *Error {
	return New(KindPersistence, op, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
