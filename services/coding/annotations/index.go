// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package annotations enforces span and target invariants on top of
// the annotation store, and builds the sorted and merged views that
// renderers paint highlighted spans from.
package annotations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianResearch/pkg/extensions"
	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// AnnotationStore is the storage surface the index needs. Implemented
// by badgerstore.AnnotationStore.
type AnnotationStore interface {
	Create(ctx context.Context, ann *datatypes.Annotation) error
	Get(ctx context.Context, annotationID string) (*datatypes.Annotation, error)
	Delete(ctx context.Context, annotationID string) error
	ListByTarget(ctx context.Context, target datatypes.Target) ([]*datatypes.Annotation, error)
	ListByCode(ctx context.Context, codeID string) ([]*datatypes.Annotation, error)
}

// CodeResolver resolves code ids for cross-reference checks.
// Implemented by taxonomy.Manager.
type CodeResolver interface {
	GetCode(ctx context.Context, codeID string) (*datatypes.Code, error)
}

// Index validates and persists annotations. Stateless between calls;
// safe for concurrent use.
type Index struct {
	store          AnnotationStore
	codes          CodeResolver
	membership     extensions.ProjectMembership
	documents      extensions.DocumentProvider
	transcriptions extensions.TranscriptionProvider
	logger         *slog.Logger
}

// NewIndex creates an Index. A nil logger falls back to slog.Default().
func NewIndex(
	store AnnotationStore,
	codes CodeResolver,
	membership extensions.ProjectMembership,
	documents extensions.DocumentProvider,
	transcriptions extensions.TranscriptionProvider,
	logger *slog.Logger,
) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		store:          store,
		codes:          codes,
		membership:     membership,
		documents:      documents,
		transcriptions: transcriptions,
		logger:         logger,
	}
}

// CreateRequest carries the fields for a new annotation.
type CreateRequest struct {
	CodeID       string
	Target       datatypes.Target
	StartIndex   int
	EndIndex     int
	SelectedText string
	Notes        string
}

// Create validates and persists a new annotation.
//
// Fails with ErrInvalidArgument on a bad span or unknown target kind,
// ErrNotFound when the code or the target does not resolve, and
// ErrForbidden when the actor is not a member of the code's project.
// Overlap with existing annotations is permitted; the authoring UI
// prevents it by convention and MergeSegments tolerates it.
func (ix *Index) Create(ctx context.Context, req CreateRequest, actorID string) (*datatypes.Annotation, error) {
	if !req.Target.Kind.Valid() {
		return nil, fmt.Errorf("unknown target kind %q: %w", req.Target.Kind, datatypes.ErrInvalidArgument)
	}
	if req.StartIndex < 0 {
		return nil, &datatypes.SpanError{StartIndex: req.StartIndex, EndIndex: req.EndIndex, Reason: "start index is negative"}
	}
	if req.StartIndex >= req.EndIndex {
		return nil, &datatypes.SpanError{StartIndex: req.StartIndex, EndIndex: req.EndIndex, Reason: "start must precede end"}
	}
	if got, want := len(req.SelectedText), req.EndIndex-req.StartIndex; got != want {
		return nil, &datatypes.SpanError{
			StartIndex: req.StartIndex,
			EndIndex:   req.EndIndex,
			Reason:     fmt.Sprintf("selected text length %d does not match span length %d", got, want),
		}
	}

	code, err := ix.codes.GetCode(ctx, req.CodeID)
	if err != nil {
		return nil, err
	}

	role, err := ix.membership.RoleOf(ctx, code.ProjectID, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve role for %s on %s: %w", actorID, code.ProjectID, err)
	}
	if !role.CanAnnotate() {
		return nil, fmt.Errorf("user %s cannot annotate project %s: %w", actorID, code.ProjectID, datatypes.ErrForbidden)
	}

	if err := ix.resolveTarget(ctx, req.Target); err != nil {
		return nil, err
	}

	ann := &datatypes.Annotation{
		ID:           uuid.NewString(),
		ProjectID:    code.ProjectID,
		CodeID:       req.CodeID,
		Target:       req.Target,
		StartIndex:   req.StartIndex,
		EndIndex:     req.EndIndex,
		SelectedText: req.SelectedText,
		Notes:        req.Notes,
		UserID:       actorID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := ix.store.Create(ctx, ann); err != nil {
		return nil, err
	}

	ix.logger.Info("created annotation",
		"annotation_id", ann.ID,
		"code_id", ann.CodeID,
		"target", ann.Target.String(),
		"span", fmt.Sprintf("[%d,%d)", ann.StartIndex, ann.EndIndex),
	)
	return ann, nil
}

// ListForTarget returns the target's annotations sorted by StartIndex
// ascending, the order renderers need to paint spans left to right.
func (ix *Index) ListForTarget(ctx context.Context, target datatypes.Target) ([]*datatypes.Annotation, error) {
	if !target.Kind.Valid() {
		return nil, fmt.Errorf("unknown target kind %q: %w", target.Kind, datatypes.ErrInvalidArgument)
	}
	anns, err := ix.store.ListByTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(anns, func(i, j int) bool {
		return anns[i].StartIndex < anns[j].StartIndex
	})
	return anns, nil
}

// ListForCode returns the code's annotations, newest first.
func (ix *Index) ListForCode(ctx context.Context, codeID string) ([]*datatypes.Annotation, error) {
	anns, err := ix.store.ListByCode(ctx, codeID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(anns, func(i, j int) bool {
		return anns[i].CreatedAt.After(anns[j].CreatedAt)
	})
	return anns, nil
}

// Delete removes an annotation. Allowed for the annotation's author
// and for project editors/owners; anyone else gets ErrForbidden.
func (ix *Index) Delete(ctx context.Context, annotationID string, actorID string) error {
	ann, err := ix.store.Get(ctx, annotationID)
	if err != nil {
		return err
	}

	if ann.UserID != actorID {
		role, err := ix.membership.RoleOf(ctx, ann.ProjectID, actorID)
		if err != nil {
			return fmt.Errorf("resolve role for %s on %s: %w", actorID, ann.ProjectID, err)
		}
		if !role.CanMutateTaxonomy() {
			return fmt.Errorf("user %s cannot delete annotation %s: %w", actorID, annotationID, datatypes.ErrForbidden)
		}
	}

	if err := ix.store.Delete(ctx, annotationID); err != nil {
		return err
	}
	ix.logger.Info("deleted annotation", "annotation_id", annotationID, "actor_id", actorID)
	return nil
}

func (ix *Index) resolveTarget(ctx context.Context, target datatypes.Target) error {
	var exists bool
	var err error
	switch target.Kind {
	case datatypes.TargetDocument:
		exists, err = ix.documents.Exists(ctx, target.ID)
	case datatypes.TargetTranscription:
		exists, err = ix.transcriptions.Exists(ctx, target.ID)
	}
	if err != nil {
		return fmt.Errorf("resolve target %s: %w", target.String(), err)
	}
	if !exists {
		return fmt.Errorf("target %s: %w", target.String(), datatypes.ErrNotFound)
	}
	return nil
}
