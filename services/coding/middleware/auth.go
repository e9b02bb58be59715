// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the coding service.
//
// The auth middleware extracts a bearer token from the Authorization
// header, validates it through the configured AuthProvider, and stores
// the resulting AuthInfo in the Gin context for downstream handlers.
// With the default NopAuthProvider every request, tokenless ones
// included, is authenticated as the local user, so a standalone
// deployment needs no identity infrastructure.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianResearch/pkg/extensions"
)

// authInfoKey is the Gin context key for the authenticated identity.
const authInfoKey = "research_auth_info"

// SetAuthInfo stores the authenticated identity in the Gin context.
func SetAuthInfo(c *gin.Context, info *extensions.AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo retrieves the authenticated identity, or nil when the
// auth middleware did not run.
func GetAuthInfo(c *gin.Context) *extensions.AuthInfo {
	value, ok := c.Get(authInfoKey)
	if !ok {
		return nil
	}
	info, ok := value.(*extensions.AuthInfo)
	if !ok {
		return nil
	}
	return info
}

// ActorID returns the authenticated user id, or the empty string.
func ActorID(c *gin.Context) string {
	if info := GetAuthInfo(c); info != nil {
		return info.UserID
	}
	return ""
}

// RequireAuth validates the request's bearer token and aborts with
// 401 when validation fails.
func RequireAuth(provider extensions.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))

		info, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, extensions.ErrUnauthorized) {
				slog.Error("auth provider failure", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		SetAuthInfo(c, info)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x"
// header. Missing or malformed headers yield the empty string, which
// the provider is free to accept (NopAuthProvider) or reject.
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
