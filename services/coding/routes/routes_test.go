// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianResearch/pkg/extensions"
	"github.com/AleutianAI/AleutianResearch/services/coding/analytics"
	"github.com/AleutianAI/AleutianResearch/services/coding/annotations"
	"github.com/AleutianAI/AleutianResearch/services/coding/observability"
	"github.com/AleutianAI/AleutianResearch/services/coding/storage/badgerstore"
	"github.com/AleutianAI/AleutianResearch/services/coding/taxonomy"
)

// newTestRouter wires the full service against an in-memory database
// with the local single-user defaults.
func newTestRouter(t *testing.T, auth extensions.AuthProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ext := (&extensions.ServiceOptions{Auth: auth}).WithDefaults()

	codeStore := badgerstore.NewCodeStore(db)
	annStore := badgerstore.NewAnnotationStore(db)
	mgr := taxonomy.NewManager(codeStore, ext.Membership, nil)

	router := gin.New()
	SetupRoutes(router, Deps{
		Taxonomy:    mgr,
		Annotations: annotations.NewIndex(annStore, mgr, ext.Membership, ext.Documents, ext.Transcriptions, nil),
		Analytics:   analytics.NewEngine(codeStore, annStore, ext.Membership, ext.Users, nil),
		Auth:        ext.Auth,
		Metrics:     observability.NewMetrics(prometheus.NewRegistry()),
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func createCode(t *testing.T, router *gin.Engine, project, name string, parentID *string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/v1/projects/"+project+"/codes", gin.H{
		"name":      name,
		"parent_id": parentID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t, &extensions.StaticAuthProvider{
		Tokens: map[string]string{"secret": "user-a"},
	})

	rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/codes", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/projects/p1/codes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	authed := httptest.NewRecorder()
	router.ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}

func TestCodeLifecycle(t *testing.T) {
	router := newTestRouter(t, nil)

	rootID := createCode(t, router, "p1", "Emotions", nil)
	childID := createCode(t, router, "p1", "Joy", &rootID)

	t.Run("duplicate name conflicts", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/projects/p1/codes", gin.H{"name": "emotions"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/projects/p1/codes", gin.H{"name": "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad color rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/projects/p1/codes", gin.H{"name": "X", "color": "red"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/codes", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Codes []struct {
				ID string `json:"id"`
			} `json:"codes"`
		}
		decode(t, rec, &resp)
		assert.Len(t, resp.Codes, 2)
	})

	t.Run("tree", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/codes/tree", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Tree []struct {
				ID       string `json:"id"`
				Children []struct {
					ID string `json:"id"`
				} `json:"children"`
			} `json:"tree"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp.Tree, 1)
		assert.Equal(t, rootID, resp.Tree[0].ID)
		require.Len(t, resp.Tree[0].Children, 1)
		assert.Equal(t, childID, resp.Tree[0].Children[0].ID)
	})

	t.Run("rename", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPatch, "/v1/codes/"+childID, gin.H{"name": "Delight"})
		require.Equal(t, http.StatusOK, rec.Code)
		var updated struct {
			Name string `json:"name"`
		}
		decode(t, rec, &updated)
		assert.Equal(t, "Delight", updated.Name)
	})

	t.Run("cycle rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPatch, "/v1/codes/"+rootID, gin.H{"parent_id": childID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete hoists child", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/v1/codes/"+rootID, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		tree := doJSON(t, router, http.MethodGet, "/v1/projects/p1/codes/tree", nil)
		var resp struct {
			Tree []struct {
				ID string `json:"id"`
			} `json:"tree"`
		}
		decode(t, tree, &resp)
		require.Len(t, resp.Tree, 1)
		assert.Equal(t, childID, resp.Tree[0].ID)
	})

	t.Run("delete missing", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/v1/codes/ghost", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAnnotationLifecycle(t *testing.T) {
	router := newTestRouter(t, nil)
	codeID := createCode(t, router, "p1", "Trust", nil)

	source := "the quick brown fox"
	create := func(start, end int, text string) string {
		rec := doJSON(t, router, http.MethodPost, "/v1/annotations", gin.H{
			"code_id":       codeID,
			"target_kind":   "document",
			"target_id":     "d1",
			"start_index":   start,
			"end_index":     end,
			"selected_text": text,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created struct {
			ID string `json:"id"`
		}
		decode(t, rec, &created)
		return created.ID
	}

	annID := create(4, 9, "quick")
	create(16, 19, "fox")

	t.Run("span text mismatch rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/annotations", gin.H{
			"code_id":       codeID,
			"target_kind":   "document",
			"target_id":     "d1",
			"start_index":   0,
			"end_index":     3,
			"selected_text": "mismatch",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown target kind rejected by binding", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/annotations", gin.H{
			"code_id":       codeID,
			"target_kind":   "survey",
			"target_id":     "s1",
			"start_index":   0,
			"end_index":     2,
			"selected_text": "ab",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list for target ordered by span", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/annotations?target_kind=document&target_id=d1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Annotations []struct {
				StartIndex int `json:"start_index"`
			} `json:"annotations"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp.Annotations, 2)
		assert.Equal(t, 4, resp.Annotations[0].StartIndex)
		assert.Equal(t, 16, resp.Annotations[1].StartIndex)
	})

	t.Run("list for code", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/codes/"+codeID+"/annotations", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Annotations []json.RawMessage `json:"annotations"`
		}
		decode(t, rec, &resp)
		assert.Len(t, resp.Annotations, 2)
	})

	t.Run("render", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/annotations/render", gin.H{
			"target_kind": "document",
			"target_id":   "d1",
			"source_text": source,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Segments []struct {
				Text       string          `json:"text"`
				Annotation json.RawMessage `json:"annotation"`
			} `json:"segments"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp.Segments, 4)
		assert.Equal(t, "the ", resp.Segments[0].Text)
		assert.Equal(t, "quick", resp.Segments[1].Text)
		assert.NotEmpty(t, resp.Segments[1].Annotation)
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/v1/annotations/"+annID, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, router, http.MethodDelete, "/v1/annotations/"+annID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAnalyticsEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)
	codeID := createCode(t, router, "p1", "Trust", nil)
	otherID := createCode(t, router, "p1", "Doubt", nil)

	seed := func(code, target, text string, start int) {
		rec := doJSON(t, router, http.MethodPost, "/v1/annotations", gin.H{
			"code_id":       code,
			"target_kind":   "document",
			"target_id":     target,
			"start_index":   start,
			"end_index":     start + len(text),
			"selected_text": text,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	seed(codeID, "d1", "community trust matters", 0)
	seed(codeID, "d2", "community gathering", 5)
	seed(otherID, "d1", "lingering doubt", 30)

	t.Run("frequencies", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/analytics/frequencies", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var report struct {
			Frequencies      []json.RawMessage `json:"frequencies"`
			TotalAnnotations int               `json:"total_annotations"`
		}
		decode(t, rec, &report)
		assert.Equal(t, 3, report.TotalAnnotations)
		assert.Len(t, report.Frequencies, 2)
	})

	t.Run("frequencies filtered by code", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet,
			fmt.Sprintf("/v1/projects/p1/analytics/frequencies?code_ids=%s", otherID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var report struct {
			TotalAnnotations int `json:"total_annotations"`
		}
		decode(t, rec, &report)
		assert.Equal(t, 1, report.TotalAnnotations)
	})

	t.Run("bad date filter", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/analytics/frequencies?from=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wordcloud", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/analytics/wordcloud", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Words []struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"words"`
		}
		decode(t, rec, &resp)
		require.NotEmpty(t, resp.Words)
		assert.Equal(t, "community", resp.Words[0].Text)
		assert.Equal(t, 2, resp.Words[0].Value)
	})

	t.Run("wordcloud bad option", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/analytics/wordcloud?max_words=zero", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cooccurrence", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/analytics/cooccurrence", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var graph struct {
			Nodes []json.RawMessage `json:"nodes"`
			Links []struct {
				Source string `json:"source"`
				Target string `json:"target"`
				Value  int    `json:"value"`
			} `json:"links"`
		}
		decode(t, rec, &graph)
		assert.Len(t, graph.Nodes, 2)
		require.Len(t, graph.Links, 1)
		assert.Equal(t, 1, graph.Links[0].Value)
	})

	t.Run("temporal", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/analytics/temporal?interval=month", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var report struct {
			Boundaries []string          `json:"boundaries"`
			Series     []json.RawMessage `json:"series"`
		}
		decode(t, rec, &report)
		assert.NotEmpty(t, report.Boundaries)
		assert.Len(t, report.Series, 2)
	})

	t.Run("temporal bad interval", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/analytics/temporal?interval=hour", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("user comparison", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/projects/p1/analytics/users", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var report struct {
			Codes []json.RawMessage `json:"codes"`
			Rows  []struct {
				UserID string `json:"user_id"`
				Total  int    `json:"total"`
			} `json:"rows"`
		}
		decode(t, rec, &report)
		assert.Len(t, report.Codes, 2)
		require.Len(t, report.Rows, 1)
		assert.Equal(t, extensions.LocalUserID, report.Rows[0].UserID)
		assert.Equal(t, 3, report.Rows[0].Total)
	})
}
