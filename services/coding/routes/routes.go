// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the coding service's handlers onto a Gin
// engine.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianResearch/pkg/extensions"
	"github.com/AleutianAI/AleutianResearch/services/coding/analytics"
	"github.com/AleutianAI/AleutianResearch/services/coding/annotations"
	"github.com/AleutianAI/AleutianResearch/services/coding/handlers"
	"github.com/AleutianAI/AleutianResearch/services/coding/middleware"
	"github.com/AleutianAI/AleutianResearch/services/coding/observability"
	"github.com/AleutianAI/AleutianResearch/services/coding/taxonomy"
)

// Deps carries everything route registration needs.
type Deps struct {
	Taxonomy    *taxonomy.Manager
	Annotations *annotations.Index
	Analytics   *analytics.Engine
	Auth        extensions.AuthProvider
	Metrics     *observability.Metrics
}

// SetupRoutes registers all routes on the router. The health and
// metrics endpoints are unauthenticated; everything under /v1 runs
// behind the auth middleware.
func SetupRoutes(router *gin.Engine, deps Deps) {
	handlers.RegisterValidators()

	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.RequireAuth(deps.Auth))
	{
		projects := v1.Group("/projects/:projectId")
		{
			projects.POST("/codes", handlers.CreateCode(deps.Taxonomy))
			projects.GET("/codes", handlers.ListCodes(deps.Taxonomy))
			projects.GET("/codes/tree", handlers.GetCodeTree(deps.Taxonomy))

			analyticsGroup := projects.Group("/analytics")
			{
				analyticsGroup.GET("/frequencies", handlers.GetFrequencies(deps.Analytics))
				analyticsGroup.GET("/wordcloud", handlers.GetWordCloud(deps.Analytics))
				analyticsGroup.GET("/cooccurrence", handlers.GetCoOccurrence(deps.Analytics))
				analyticsGroup.GET("/temporal", handlers.GetTemporalEvolution(deps.Analytics))
				analyticsGroup.GET("/users", handlers.GetUserComparison(deps.Analytics))
			}
		}

		v1.PATCH("/codes/:codeId", handlers.UpdateCode(deps.Taxonomy))
		v1.DELETE("/codes/:codeId", handlers.DeleteCode(deps.Taxonomy))
		v1.GET("/codes/:codeId/annotations", handlers.ListCodeAnnotations(deps.Annotations))

		v1.POST("/annotations", handlers.CreateAnnotation(deps.Annotations))
		v1.GET("/annotations", handlers.ListAnnotations(deps.Annotations))
		v1.POST("/annotations/render", handlers.RenderAnnotations(deps.Annotations))
		v1.DELETE("/annotations/:annotationId", handlers.DeleteAnnotation(deps.Annotations))
	}
}
