// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"sync"
)

// ProjectMembership answers role queries for project/user pairs.
// Implementations must be safe for concurrent use.
type ProjectMembership interface {
	// RoleOf returns the user's role on the project, or RoleNone if
	// the user is not a member. An unknown project is also RoleNone;
	// project existence is checked separately via ProjectExists.
	RoleOf(ctx context.Context, projectID, userID string) (Role, error)

	// ProjectExists reports whether the project is known to the
	// platform. Analytics reads use this to distinguish "no data yet"
	// from "no such project".
	ProjectExists(ctx context.Context, projectID string) (bool, error)
}

// DocumentProvider answers existence checks for documents.
type DocumentProvider interface {
	Exists(ctx context.Context, documentID string) (bool, error)
}

// TranscriptionProvider answers existence checks for transcriptions.
type TranscriptionProvider interface {
	Exists(ctx context.Context, transcriptionID string) (bool, error)
}

// UserDirectory resolves user ids to display names for labeling
// analytics output.
type UserDirectory interface {
	// DisplayName returns a human-readable name for the user. For an
	// unknown user, implementations should return the id itself rather
	// than an error; comparison rows must never be dropped because a
	// directory entry is missing.
	DisplayName(ctx context.Context, userID string) (string, error)
}

// =============================================================================
// Nop implementations (local single-user deployment)
// =============================================================================

// NopMembership grants every user owner rights on every project.
type NopMembership struct{}

func (m *NopMembership) RoleOf(ctx context.Context, projectID, userID string) (Role, error) {
	return RoleOwner, nil
}

func (m *NopMembership) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	return true, nil
}

// NopDocumentProvider reports every document as existing.
type NopDocumentProvider struct{}

func (p *NopDocumentProvider) Exists(ctx context.Context, documentID string) (bool, error) {
	return true, nil
}

// NopTranscriptionProvider reports every transcription as existing.
type NopTranscriptionProvider struct{}

func (p *NopTranscriptionProvider) Exists(ctx context.Context, transcriptionID string) (bool, error) {
	return true, nil
}

// NopUserDirectory echoes the user id as its display name.
type NopUserDirectory struct{}

func (d *NopUserDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	return userID, nil
}

// =============================================================================
// Static implementations (tests and fixtures)
// =============================================================================

// StaticMembership is an in-memory ProjectMembership keyed by
// project id then user id. Projects listed in Roles exist; others
// can be added via AddProject without members.
type StaticMembership struct {
	mu       sync.RWMutex
	roles    map[string]map[string]Role
	projects map[string]bool
}

// NewStaticMembership creates an empty StaticMembership.
func NewStaticMembership() *StaticMembership {
	return &StaticMembership{
		roles:    make(map[string]map[string]Role),
		projects: make(map[string]bool),
	}
}

// Grant records a role for the user on the project and marks the
// project as existing. Returns the receiver for chaining.
func (m *StaticMembership) Grant(projectID, userID string, role Role) *StaticMembership {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roles[projectID] == nil {
		m.roles[projectID] = make(map[string]Role)
	}
	m.roles[projectID][userID] = role
	m.projects[projectID] = true
	return m
}

// AddProject marks a project as existing without granting any roles.
func (m *StaticMembership) AddProject(projectID string) *StaticMembership {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[projectID] = true
	return m
}

func (m *StaticMembership) RoleOf(ctx context.Context, projectID, userID string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roles[projectID][userID], nil
}

func (m *StaticMembership) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projects[projectID], nil
}

// StaticTargets is an in-memory DocumentProvider and
// TranscriptionProvider backed by explicit id sets.
type StaticTargets struct {
	mu             sync.RWMutex
	documents      map[string]bool
	transcriptions map[string]bool
}

// NewStaticTargets creates an empty StaticTargets.
func NewStaticTargets() *StaticTargets {
	return &StaticTargets{
		documents:      make(map[string]bool),
		transcriptions: make(map[string]bool),
	}
}

// AddDocument registers a document id. Returns the receiver.
func (s *StaticTargets) AddDocument(id string) *StaticTargets {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[id] = true
	return s
}

// AddTranscription registers a transcription id. Returns the receiver.
func (s *StaticTargets) AddTranscription(id string) *StaticTargets {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcriptions[id] = true
	return s
}

// Exists implements DocumentProvider.
func (s *StaticTargets) Exists(ctx context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents[documentID], nil
}

// Transcriptions returns a TranscriptionProvider view over the same set.
func (s *StaticTargets) Transcriptions() TranscriptionProvider {
	return &staticTranscriptions{s}
}

type staticTranscriptions struct {
	s *StaticTargets
}

func (p *staticTranscriptions) Exists(ctx context.Context, transcriptionID string) (bool, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return p.s.transcriptions[transcriptionID], nil
}

// StaticUserDirectory maps user ids to display names; unknown ids
// fall back to the id.
type StaticUserDirectory struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewStaticUserDirectory creates an empty StaticUserDirectory.
func NewStaticUserDirectory() *StaticUserDirectory {
	return &StaticUserDirectory{names: make(map[string]string)}
}

// Add records a display name. Returns the receiver for chaining.
func (d *StaticUserDirectory) Add(userID, name string) *StaticUserDirectory {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[userID] = name
	return d
}

func (d *StaticUserDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := d.names[userID]; ok {
		return name, nil
	}
	return userID, nil
}
