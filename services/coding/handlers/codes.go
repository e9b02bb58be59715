// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianResearch/services/coding/middleware"
	"github.com/AleutianAI/AleutianResearch/services/coding/taxonomy"
)

// CreateCodeRequest is the payload for POST /v1/projects/:projectId/codes.
type CreateCodeRequest struct {
	Name        string  `json:"name" binding:"required,codename,max=200"`
	Description string  `json:"description" binding:"max=2000"`
	Color       string  `json:"color" binding:"omitempty,hexcolor"`
	ParentID    *string `json:"parent_id"`
}

// UpdateCodeRequest is the payload for PATCH /v1/codes/:codeId.
// Absent fields are untouched; clear_parent promotes the code to root.
type UpdateCodeRequest struct {
	Name        *string `json:"name" binding:"omitempty,codename,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
	ParentID    *string `json:"parent_id"`
	ClearParent bool    `json:"clear_parent"`
}

// CreateCode handles POST /v1/projects/:projectId/codes.
func CreateCode(mgr *taxonomy.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		node, err := mgr.CreateCode(c.Request.Context(), taxonomy.CreateRequest{
			ProjectID:   c.Param("projectId"),
			Name:        req.Name,
			Description: req.Description,
			Color:       req.Color,
			ParentID:    req.ParentID,
		}, middleware.ActorID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, node)
	}
}

// ListCodes handles GET /v1/projects/:projectId/codes.
func ListCodes(mgr *taxonomy.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		codes, err := mgr.ListCodes(c.Request.Context(), c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"codes": codes})
	}
}

// GetCodeTree handles GET /v1/projects/:projectId/codes/tree.
func GetCodeTree(mgr *taxonomy.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, err := mgr.GetTree(c.Request.Context(), c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tree": tree})
	}
}

// UpdateCode handles PATCH /v1/codes/:codeId.
func UpdateCode(mgr *taxonomy.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		code, err := mgr.UpdateCode(c.Request.Context(), c.Param("codeId"), taxonomy.Patch{
			Name:        req.Name,
			Description: req.Description,
			Color:       req.Color,
			ParentID:    req.ParentID,
			ClearParent: req.ClearParent,
		}, middleware.ActorID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, code)
	}
}

// DeleteCode handles DELETE /v1/codes/:codeId.
func DeleteCode(mgr *taxonomy.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.DeleteCode(c.Request.Context(), c.Param("codeId"), middleware.ActorID(c)); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
