// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP handlers of the coding service.
//
// Handlers are thin: they bind and validate the request, call into the
// taxonomy manager, annotation index, or analytics engine, and map the
// engine's typed errors onto HTTP status codes. All domain rules live
// below this layer.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps engine errors onto HTTP status codes. Anything
// that is not one of the engine's typed errors is a 500, logged with
// the request path.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, datatypes.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, datatypes.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, datatypes.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, datatypes.ErrInvalidArgument), errors.Is(err, datatypes.ErrInvalidOperation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var registerValidatorsOnce sync.Once

// RegisterValidators installs the service's custom binding validators
// on Gin's validator engine. Idempotent; called from route setup.
//
// Tags:
//   - codename: non-blank after trimming whitespace. The builtin
//     "required" accepts all-whitespace names, which would fold to an
//     empty uniqueness key.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("codename", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}
