// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianResearch/services/coding/analytics"
	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// parseFilter builds the analytics filter from the request: the
// project from the path, optional comma-separated code_ids, and an
// optional RFC 3339 from/to range.
func parseFilter(c *gin.Context) (datatypes.Filter, bool) {
	filter := datatypes.Filter{ProjectID: c.Param("projectId")}

	if raw := c.Query("code_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.CodeIDs = append(filter.CodeIDs, id)
			}
		}
	}

	for _, bound := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := c.Query(bound.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bound.name + " must be RFC 3339"})
			return filter, false
		}
		*bound.dst = &t
	}
	return filter, true
}

// GetFrequencies handles GET /v1/projects/:projectId/analytics/frequencies.
func GetFrequencies(engine *analytics.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseFilter(c)
		if !ok {
			return
		}
		report, err := engine.Frequencies(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// GetWordCloud handles GET /v1/projects/:projectId/analytics/wordcloud.
// Optional query parameters: min_word_length, max_words,
// exclude_common_words.
func GetWordCloud(engine *analytics.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseFilter(c)
		if !ok {
			return
		}

		opts := analytics.DefaultWordCloudOptions()
		if raw := c.Query("min_word_length"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "min_word_length must be a positive integer"})
				return
			}
			opts.MinWordLength = n
		}
		if raw := c.Query("max_words"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "max_words must be a positive integer"})
				return
			}
			opts.MaxWords = n
		}
		if raw := c.Query("exclude_common_words"); raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "exclude_common_words must be a boolean"})
				return
			}
			opts.ExcludeCommonWords = b
		}

		terms, err := engine.WordCloud(c.Request.Context(), filter, opts)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"words": terms})
	}
}

// GetCoOccurrence handles GET /v1/projects/:projectId/analytics/cooccurrence.
func GetCoOccurrence(engine *analytics.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseFilter(c)
		if !ok {
			return
		}
		graph, err := engine.CoOccurrence(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, graph)
	}
}

// GetTemporalEvolution handles GET
// /v1/projects/:projectId/analytics/temporal?interval=day|week|month.
func GetTemporalEvolution(engine *analytics.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseFilter(c)
		if !ok {
			return
		}
		interval := analytics.Interval(c.DefaultQuery("interval", string(analytics.IntervalMonth)))

		report, err := engine.TemporalEvolution(c.Request.Context(), filter, interval)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// GetUserComparison handles GET /v1/projects/:projectId/analytics/users.
func GetUserComparison(engine *analytics.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseFilter(c)
		if !ok {
			return
		}
		report, err := engine.UserComparison(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
