// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package taxonomy enforces the code-tree invariants of the coding
// engine on top of the code store: per-project name uniqueness,
// acyclicity under reparenting, and child hoisting on delete.
//
// The tree is stored flat (one row per code with a ParentID pointer);
// nested views are built on demand by grouping rows by parent, to any
// depth.
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianResearch/pkg/extensions"
	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// DefaultColor is assigned when a code is created without one.
const DefaultColor = "#6366f1"

// CodeStore is the storage surface the manager needs. Implemented by
// badgerstore.CodeStore.
type CodeStore interface {
	Create(ctx context.Context, code *datatypes.Code) error
	Get(ctx context.Context, codeID string) (*datatypes.Code, error)
	Update(ctx context.Context, code *datatypes.Code) error
	Delete(ctx context.Context, codeID string) error
	ListByProject(ctx context.Context, projectID string) ([]*datatypes.Code, error)
}

// Manager applies taxonomy invariants and authorization on top of a
// CodeStore. Stateless between calls; safe for concurrent use.
type Manager struct {
	codes      CodeStore
	membership extensions.ProjectMembership
	logger     *slog.Logger
}

// NewManager creates a Manager. A nil logger falls back to
// slog.Default().
func NewManager(codes CodeStore, membership extensions.ProjectMembership, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{codes: codes, membership: membership, logger: logger}
}

// CreateRequest carries the fields for a new code.
type CreateRequest struct {
	ProjectID   string
	Name        string
	Description string
	Color       string
	ParentID    *string
}

// Patch carries partial updates for a code. Nil fields are untouched.
// ClearParent promotes the code to a root; it wins over ParentID.
type Patch struct {
	Name        *string
	Description *string
	Color       *string
	ParentID    *string
	ClearParent bool
}

// CreateCode persists a new taxonomy node.
//
// Fails with ErrForbidden unless the actor holds OWNER or EDITOR on
// the project, ErrConflict if the case-folded name is taken, and
// ErrNotFound if the project or the given parent is unresolvable
// in-project.
func (m *Manager) CreateCode(ctx context.Context, req CreateRequest, actorID string) (*datatypes.CodeNode, error) {
	if err := m.requireEditor(ctx, req.ProjectID, actorID); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, fmt.Errorf("code name is required: %w", datatypes.ErrInvalidArgument)
	}

	if req.ParentID != nil {
		if err := m.resolveParent(ctx, req.ProjectID, *req.ParentID); err != nil {
			return nil, err
		}
	}

	color := req.Color
	if color == "" {
		color = DefaultColor
	}

	code := &datatypes.Code{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Color:       color,
		ParentID:    req.ParentID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := m.codes.Create(ctx, code); err != nil {
		return nil, err
	}

	m.logger.Info("created code", "code_id", code.ID, "project_id", code.ProjectID, "name", code.Name)
	return &datatypes.CodeNode{Code: *code, Children: []*datatypes.CodeNode{}}, nil
}

// UpdateCode applies a partial update. Renames re-check uniqueness;
// reparenting rejects self-parenting and cycles with
// ErrInvalidOperation.
func (m *Manager) UpdateCode(ctx context.Context, codeID string, patch Patch, actorID string) (*datatypes.Code, error) {
	code, err := m.codes.Get(ctx, codeID)
	if err != nil {
		return nil, err
	}
	if err := m.requireEditor(ctx, code.ProjectID, actorID); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("code name is required: %w", datatypes.ErrInvalidArgument)
		}
		code.Name = *patch.Name
	}
	if patch.Description != nil {
		code.Description = *patch.Description
	}
	if patch.Color != nil {
		code.Color = *patch.Color
	}

	switch {
	case patch.ClearParent:
		code.ParentID = nil
	case patch.ParentID != nil:
		if err := m.checkReparent(ctx, code, *patch.ParentID); err != nil {
			return nil, err
		}
		code.ParentID = patch.ParentID
	}

	if err := m.codes.Update(ctx, code); err != nil {
		return nil, err
	}
	m.logger.Info("updated code", "code_id", code.ID, "project_id", code.ProjectID)
	return code, nil
}

// DeleteCode removes a taxonomy node after hoisting its direct
// children to the node's own parent. Children of a deleted root become
// roots themselves. Annotations referencing the code are left in place;
// read paths treat them as orphaned.
func (m *Manager) DeleteCode(ctx context.Context, codeID string, actorID string) error {
	code, err := m.codes.Get(ctx, codeID)
	if err != nil {
		return err
	}
	if err := m.requireEditor(ctx, code.ProjectID, actorID); err != nil {
		return err
	}

	siblings, err := m.codes.ListByProject(ctx, code.ProjectID)
	if err != nil {
		return err
	}
	hoisted := 0
	for _, sibling := range siblings {
		if sibling.ParentID == nil || *sibling.ParentID != codeID {
			continue
		}
		sibling.ParentID = code.ParentID
		if err := m.codes.Update(ctx, sibling); err != nil {
			return fmt.Errorf("hoist child %s: %w", sibling.ID, err)
		}
		hoisted++
	}

	if err := m.codes.Delete(ctx, codeID); err != nil {
		return err
	}
	m.logger.Info("deleted code", "code_id", codeID, "project_id", code.ProjectID, "hoisted_children", hoisted)
	return nil
}

// GetCode returns a single code by id.
func (m *Manager) GetCode(ctx context.Context, codeID string) (*datatypes.Code, error) {
	return m.codes.Get(ctx, codeID)
}

// ListCodes returns the project's codes as a flat, name-sorted list.
func (m *Manager) ListCodes(ctx context.Context, projectID string) ([]*datatypes.Code, error) {
	if err := m.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return m.codes.ListByProject(ctx, projectID)
}

// GetTree returns the project's root codes with children nested
// recursively to any depth.
func (m *Manager) GetTree(ctx context.Context, projectID string) ([]*datatypes.CodeNode, error) {
	codes, err := m.ListCodes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return BuildTree(codes), nil
}

// BuildTree assembles nested CodeNodes from flat rows in one pass:
// group by ParentID, then attach recursively. Codes whose parent is
// missing from the rows are treated as roots so a partially-updated
// taxonomy still renders.
func BuildTree(codes []*datatypes.Code) []*datatypes.CodeNode {
	byID := make(map[string]*datatypes.Code, len(codes))
	for _, code := range codes {
		byID[code.ID] = code
	}

	children := make(map[string][]*datatypes.Code)
	var rootRows []*datatypes.Code
	for _, code := range codes {
		if code.IsRoot() {
			rootRows = append(rootRows, code)
			continue
		}
		if _, ok := byID[*code.ParentID]; !ok {
			rootRows = append(rootRows, code)
			continue
		}
		children[*code.ParentID] = append(children[*code.ParentID], code)
	}

	var build func(code *datatypes.Code) *datatypes.CodeNode
	build = func(code *datatypes.Code) *datatypes.CodeNode {
		node := &datatypes.CodeNode{Code: *code, Children: []*datatypes.CodeNode{}}
		for _, child := range children[code.ID] {
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	roots := make([]*datatypes.CodeNode, 0, len(rootRows))
	for _, row := range rootRows {
		roots = append(roots, build(row))
	}
	return roots
}

// checkReparent validates that parentID is a legal new parent for code:
// not the code itself, resolvable in the same project, and not one of
// the code's descendants. The descendant check walks up from the
// candidate parent via ParentID, O(depth).
func (m *Manager) checkReparent(ctx context.Context, code *datatypes.Code, parentID string) error {
	if parentID == code.ID {
		return &datatypes.CycleError{CodeID: code.ID, ParentID: parentID}
	}

	current, err := m.codes.Get(ctx, parentID)
	if err != nil {
		return err
	}
	if current.ProjectID != code.ProjectID {
		return fmt.Errorf("parent %s is not in project %s: %w", parentID, code.ProjectID, datatypes.ErrNotFound)
	}

	for {
		if current.ID == code.ID {
			return &datatypes.CycleError{CodeID: code.ID, ParentID: parentID}
		}
		if current.IsRoot() {
			return nil
		}
		current, err = m.codes.Get(ctx, *current.ParentID)
		if err != nil {
			// A broken parent pointer terminates the walk; the
			// candidate chain does not reach the code being moved.
			if errors.Is(err, datatypes.ErrNotFound) {
				return nil
			}
			return err
		}
	}
}

func (m *Manager) resolveParent(ctx context.Context, projectID, parentID string) error {
	parent, err := m.codes.Get(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.ProjectID != projectID {
		return fmt.Errorf("parent %s is not in project %s: %w", parentID, projectID, datatypes.ErrNotFound)
	}
	return nil
}

func (m *Manager) requireProject(ctx context.Context, projectID string) error {
	exists, err := m.membership.ProjectExists(ctx, projectID)
	if err != nil {
		return fmt.Errorf("check project %s: %w", projectID, err)
	}
	if !exists {
		return fmt.Errorf("project %s: %w", projectID, datatypes.ErrNotFound)
	}
	return nil
}

func (m *Manager) requireEditor(ctx context.Context, projectID, actorID string) error {
	if err := m.requireProject(ctx, projectID); err != nil {
		return err
	}
	role, err := m.membership.RoleOf(ctx, projectID, actorID)
	if err != nil {
		return fmt.Errorf("resolve role for %s on %s: %w", actorID, projectID, err)
	}
	if !role.CanMutateTaxonomy() {
		return fmt.Errorf("user %s cannot mutate taxonomy of project %s: %w", actorID, projectID, datatypes.ErrForbidden)
	}
	return nil
}
