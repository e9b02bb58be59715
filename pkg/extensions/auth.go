// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
)

// AuthInfo is the identity established for a request at the HTTP edge.
// Project-level authorization is a separate concern answered by
// ProjectMembership; AuthInfo only says who the caller is.
type AuthInfo struct {
	// UserID is the unique identifier for the authenticated user.
	// Never empty on a successful Validate.
	UserID string

	// Email is the user's email address, if the provider knows it.
	Email string
}

// AuthProvider validates an authentication token and returns the
// caller's identity. Implementations must be safe for concurrent use.
//
// The default NopAuthProvider authenticates every request as
// "local-user", which lets the engine run standalone with no identity
// infrastructure. Enterprise deployments validate JWTs or session
// tokens against the platform's auth service.
type AuthProvider interface {
	// Validate checks the token and returns the caller's identity.
	// Returns ErrUnauthorized (possibly wrapped) for an invalid token.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider authenticates every request, including those with no
// token at all, as the local user.
type NopAuthProvider struct{}

// LocalUserID is the identity assigned by NopAuthProvider.
const LocalUserID = "local-user"

func (p *NopAuthProvider) Validate(ctx context.Context, token string) (*AuthInfo, error) {
	return &AuthInfo{UserID: LocalUserID}, nil
}

// StaticAuthProvider maps exact tokens to user ids; anything else is
// ErrUnauthorized. Used by tests.
type StaticAuthProvider struct {
	Tokens map[string]string
}

func (p *StaticAuthProvider) Validate(ctx context.Context, token string) (*AuthInfo, error) {
	if userID, ok := p.Tokens[token]; ok {
		return &AuthInfo{UserID: userID}, nil
	}
	return nil, ErrUnauthorized
}
