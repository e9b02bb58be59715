// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"errors"
	"fmt"
)

// Sentinel errors for the coding engine. Handlers map these onto HTTP
// status codes; everything else is a 500.
var (
	// ErrNotFound indicates a missing project, code, annotation, or
	// annotation target.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate code name within a project.
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates the actor lacks the role the operation
	// requires.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidArgument indicates a malformed input (bad span, unknown
	// target kind).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidOperation indicates a structurally illegal taxonomy
	// mutation (self-parent, cyclic reparent).
	ErrInvalidOperation = errors.New("invalid operation")
)

// ConflictError reports a duplicate code name. Name comparison is
// case-folded, so "Foo" conflicts with "foo".
type ConflictError struct {
	ProjectID string
	Name      string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("code name %q already exists in project %s", e.Name, e.ProjectID)
}

// Unwrap returns the sentinel error.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// CycleError reports a reparent that would make a code its own ancestor.
type CycleError struct {
	CodeID   string
	ParentID string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if e.CodeID == e.ParentID {
		return fmt.Sprintf("code %s cannot be its own parent", e.CodeID)
	}
	return fmt.Sprintf("reparenting code %s under %s would create a cycle", e.CodeID, e.ParentID)
}

// Unwrap returns the sentinel error.
func (e *CycleError) Unwrap() error {
	return ErrInvalidOperation
}

// SpanError reports an invalid annotation span.
type SpanError struct {
	StartIndex int
	EndIndex   int
	Reason     string
}

// Error implements the error interface.
func (e *SpanError) Error() string {
	return fmt.Sprintf("invalid span [%d,%d): %s", e.StartIndex, e.EndIndex, e.Reason)
}

// Unwrap returns the sentinel error.
func (e *SpanError) Unwrap() error {
	return ErrInvalidArgument
}
