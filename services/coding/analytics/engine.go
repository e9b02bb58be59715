// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analytics computes the coding engine's aggregate views:
// grouped code frequencies, word clouds, co-occurrence graphs,
// temporal evolution series, and cross-user comparison matrices.
//
// Every function here is a pure read over current code and annotation
// state; nothing is mutated and nothing is cached. The only error an
// aggregation reports is ErrNotFound for an unknown project — "no
// annotations yet" is a normal state and yields empty result
// structures. Reads are not isolated from concurrent taxonomy
// mutations; annotations whose code no longer resolves are skipped.
package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianResearch/pkg/extensions"
	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// CodeSource lists a project's codes. Implemented by
// badgerstore.CodeStore.
type CodeSource interface {
	ListByProject(ctx context.Context, projectID string) ([]*datatypes.Code, error)
}

// AnnotationSource lists a project's annotations. Implemented by
// badgerstore.AnnotationStore.
type AnnotationSource interface {
	ListByProject(ctx context.Context, projectID string) ([]*datatypes.Annotation, error)
}

// Engine computes aggregates over the stores. Stateless; safe for
// concurrent use.
type Engine struct {
	codes       CodeSource
	annotations AnnotationSource
	membership  extensions.ProjectMembership
	users       extensions.UserDirectory
	logger      *slog.Logger
}

// NewEngine creates an Engine. A nil logger falls back to
// slog.Default().
func NewEngine(
	codes CodeSource,
	annotations AnnotationSource,
	membership extensions.ProjectMembership,
	users extensions.UserDirectory,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		codes:       codes,
		annotations: annotations,
		membership:  membership,
		users:       users,
		logger:      logger,
	}
}

// scope is the materialized input of one aggregation: the project's
// codes by id and the annotations admitted by the filter. Annotations
// whose code no longer resolves (orphaned by a code delete) are
// excluded.
type scope struct {
	codes       map[string]*datatypes.Code
	annotations []*datatypes.Annotation
}

func (e *Engine) loadScope(ctx context.Context, filter datatypes.Filter) (*scope, error) {
	exists, err := e.membership.ProjectExists(ctx, filter.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("check project %s: %w", filter.ProjectID, err)
	}
	if !exists {
		return nil, fmt.Errorf("project %s: %w", filter.ProjectID, datatypes.ErrNotFound)
	}

	codes, err := e.codes.ListByProject(ctx, filter.ProjectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*datatypes.Code, len(codes))
	for _, code := range codes {
		byID[code.ID] = code
	}

	anns, err := e.annotations.ListByProject(ctx, filter.ProjectID)
	if err != nil {
		return nil, err
	}
	matched := make([]*datatypes.Annotation, 0, len(anns))
	orphaned := 0
	for _, ann := range anns {
		if _, ok := byID[ann.CodeID]; !ok {
			orphaned++
			continue
		}
		if filter.Matches(ann) {
			matched = append(matched, ann)
		}
	}
	if orphaned > 0 {
		e.logger.Debug("skipped orphaned annotations", "project_id", filter.ProjectID, "count", orphaned)
	}

	return &scope{codes: byID, annotations: matched}, nil
}
