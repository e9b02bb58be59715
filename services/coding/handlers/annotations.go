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

	"github.com/AleutianAI/AleutianResearch/services/coding/annotations"
	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
	"github.com/AleutianAI/AleutianResearch/services/coding/middleware"
)

// CreateAnnotationRequest is the payload for POST /v1/annotations.
type CreateAnnotationRequest struct {
	CodeID       string `json:"code_id" binding:"required"`
	TargetKind   string `json:"target_kind" binding:"required,oneof=document transcription"`
	TargetID     string `json:"target_id" binding:"required"`
	StartIndex   int    `json:"start_index" binding:"min=0"`
	EndIndex     int    `json:"end_index" binding:"required"`
	SelectedText string `json:"selected_text" binding:"required"`
	Notes        string `json:"notes" binding:"max=5000"`
}

// RenderRequest is the payload for POST /v1/annotations/render: a
// source text plus its target, answered with the merged segment view.
type RenderRequest struct {
	TargetKind string `json:"target_kind" binding:"required,oneof=document transcription"`
	TargetID   string `json:"target_id" binding:"required"`
	SourceText string `json:"source_text" binding:"required"`
}

// CreateAnnotation handles POST /v1/annotations.
func CreateAnnotation(index *annotations.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAnnotationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ann, err := index.Create(c.Request.Context(), annotations.CreateRequest{
			CodeID:       req.CodeID,
			Target:       datatypes.Target{Kind: datatypes.TargetKind(req.TargetKind), ID: req.TargetID},
			StartIndex:   req.StartIndex,
			EndIndex:     req.EndIndex,
			SelectedText: req.SelectedText,
			Notes:        req.Notes,
		}, middleware.ActorID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ann)
	}
}

// ListAnnotations handles GET /v1/annotations?target_kind=&target_id=.
// Results are ordered by start index ascending.
func ListAnnotations(index *annotations.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := datatypes.Target{
			Kind: datatypes.TargetKind(c.Query("target_kind")),
			ID:   c.Query("target_id"),
		}
		if target.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_kind and target_id are required"})
			return
		}

		anns, err := index.ListForTarget(c.Request.Context(), target)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"annotations": anns})
	}
}

// ListCodeAnnotations handles GET /v1/codes/:codeId/annotations.
func ListCodeAnnotations(index *annotations.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		anns, err := index.ListForCode(c.Request.Context(), c.Param("codeId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"annotations": anns})
	}
}

// DeleteAnnotation handles DELETE /v1/annotations/:annotationId.
func DeleteAnnotation(index *annotations.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := index.Delete(c.Request.Context(), c.Param("annotationId"), middleware.ActorID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RenderAnnotations handles POST /v1/annotations/render. The caller
// supplies the source text (this service does not store documents);
// the response is the flat segment sequence covering the text exactly
// once.
func RenderAnnotations(index *annotations.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RenderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		target := datatypes.Target{Kind: datatypes.TargetKind(req.TargetKind), ID: req.TargetID}
		anns, err := index.ListForTarget(c.Request.Context(), target)
		if err != nil {
			respondError(c, err)
			return
		}
		segments := annotations.MergeSegments(req.SourceText, anns)
		c.JSON(http.StatusOK, gin.H{"segments": segments})
	}
}
