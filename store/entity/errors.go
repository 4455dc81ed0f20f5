// store/entity/errors.go
package entitystore

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors for matching with errors.Is. The typed errors below
// carry detail and answer Is() for their sentinel, so callers can branch
// on the kind without unpacking the struct.
var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("mutation in progress")
	ErrTransport        = errors.New("transport failure")
)

// ValidationError reports a malformed request. It is raised before the
// optimistic apply; the repository port is never called.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PermissionDeniedError reports a failed capability gate. The check runs
// before dispatch; the repository port is never called.
type PermissionDeniedError struct {
	Capability string
}

func (e *PermissionDeniedError) Error() string {
	if e.Capability == "" {
		return "permission denied"
	}
	return "permission denied: missing capability " + e.Capability
}

func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }

// NotFoundError reports an absent entity, either locally or from the port.
type NotFoundError struct {
	Store string
	ID    primitive.ObjectID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Store, e.ID.Hex())
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a mutation rejected because another mutation on
// the same id is still in flight.
type ConflictError struct {
	Store string
	ID    primitive.ObjectID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: mutation already in flight for %s", e.Store, e.ID.Hex())
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// TransportError reports a failed repository port call. On a mutation it
// accompanies an automatic rollback of the optimistic cache state; on a
// load the prior cache contents are left untouched.
type TransportError struct {
	Store string
	Op    string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Store, e.Op, e.Err)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }
