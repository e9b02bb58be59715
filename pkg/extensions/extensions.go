// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the collaborator contracts the coding
// engine consumes from the rest of the research platform: project
// membership, document/transcription existence, the user directory,
// and edge authentication.
//
// The engine never stores users, projects, documents, or transcriptions
// itself; it only asks these interfaces about them. Each interface has
// a Nop implementation that makes a single-user local deployment work
// with no platform services running, and a Static implementation used
// by tests.
//
// Enterprise deployments inject real implementations backed by the
// platform's membership and document services via ServiceOptions.
package extensions

import (
	"errors"
)

// ErrUnauthorized is returned when authentication fails at the HTTP
// edge. Implementations should wrap it with additional context.
var ErrUnauthorized = errors.New("unauthorized")

// ServiceOptions carries injected collaborator implementations.
// Nil fields fall back to the Nop defaults, which grant a local
// single-user deployment owner rights everywhere.
type ServiceOptions struct {
	Auth           AuthProvider
	Membership     ProjectMembership
	Documents      DocumentProvider
	Transcriptions TranscriptionProvider
	Users          UserDirectory
}

// WithDefaults returns a copy with every nil field replaced by its
// Nop implementation. Safe to call on a nil receiver.
func (o *ServiceOptions) WithDefaults() ServiceOptions {
	var out ServiceOptions
	if o != nil {
		out = *o
	}
	if out.Auth == nil {
		out.Auth = &NopAuthProvider{}
	}
	if out.Membership == nil {
		out.Membership = &NopMembership{}
	}
	if out.Documents == nil {
		out.Documents = &NopDocumentProvider{}
	}
	if out.Transcriptions == nil {
		out.Transcriptions = &NopTranscriptionProvider{}
	}
	if out.Users == nil {
		out.Users = &NopUserDirectory{}
	}
	return out
}
