// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package annotations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianResearch/pkg/extensions"
	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
	"github.com/AleutianAI/AleutianResearch/services/coding/storage/badgerstore"
	"github.com/AleutianAI/AleutianResearch/services/coding/taxonomy"
)

const (
	testProject = "proj-1"
	testEditor  = "user-editor"
	testViewer  = "user-viewer"
	testDoc     = "doc-1"
)

type fixture struct {
	index    *Index
	taxonomy *taxonomy.Manager
	code     *datatypes.Code
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	membership := extensions.NewStaticMembership().
		Grant(testProject, testEditor, extensions.RoleEditor).
		Grant(testProject, testViewer, extensions.RoleViewer)
	targets := extensions.NewStaticTargets().
		AddDocument(testDoc).
		AddTranscription("tr-1")

	mgr := taxonomy.NewManager(badgerstore.NewCodeStore(db), membership, nil)
	node, err := mgr.CreateCode(context.Background(), taxonomy.CreateRequest{
		ProjectID: testProject,
		Name:      "Theme",
	}, testEditor)
	require.NoError(t, err)

	index := NewIndex(badgerstore.NewAnnotationStore(db), mgr, membership, targets, targets.Transcriptions(), nil)
	return &fixture{index: index, taxonomy: mgr, code: &node.Code}
}

func (f *fixture) annotate(t *testing.T, actor string, start, end int, text string) *datatypes.Annotation {
	t.Helper()
	ann, err := f.index.Create(context.Background(), CreateRequest{
		CodeID:       f.code.ID,
		Target:       datatypes.DocumentTarget(testDoc),
		StartIndex:   start,
		EndIndex:     end,
		SelectedText: text,
	}, actor)
	require.NoError(t, err)
	return ann
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	ann := f.annotate(t, testViewer, 4, 9, "trust")
	assert.NotEmpty(t, ann.ID)
	assert.Equal(t, testProject, ann.ProjectID)
	assert.Equal(t, testViewer, ann.UserID)
	assert.Equal(t, datatypes.TargetDocument, ann.Target.Kind)
	assert.False(t, ann.CreatedAt.IsZero())
}

func TestCreate_BadSpans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		start int
		end   int
		text  string
	}{
		{"negative start", -1, 4, "abcde"},
		{"start equals end", 3, 3, ""},
		{"start after end", 8, 2, "x"},
		{"text length mismatch", 0, 5, "ab"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.index.Create(ctx, CreateRequest{
				CodeID:       f.code.ID,
				Target:       datatypes.DocumentTarget(testDoc),
				StartIndex:   tc.start,
				EndIndex:     tc.end,
				SelectedText: tc.text,
			}, testEditor)
			assert.ErrorIs(t, err, datatypes.ErrInvalidArgument)
		})
	}
}

func TestCreate_UnknownTargetKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.index.Create(context.Background(), CreateRequest{
		CodeID:       f.code.ID,
		Target:       datatypes.Target{Kind: "survey", ID: "s-1"},
		StartIndex:   0,
		EndIndex:     2,
		SelectedText: "ab",
	}, testEditor)
	assert.ErrorIs(t, err, datatypes.ErrInvalidArgument)
}

func TestCreate_MissingCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.index.Create(context.Background(), CreateRequest{
		CodeID:       "ghost",
		Target:       datatypes.DocumentTarget(testDoc),
		StartIndex:   0,
		EndIndex:     2,
		SelectedText: "ab",
	}, testEditor)
	assert.ErrorIs(t, err, datatypes.ErrNotFound)
}

func TestCreate_MissingDocument(t *testing.T) {
	f := newFixture(t)
	_, err := f.index.Create(context.Background(), CreateRequest{
		CodeID:       f.code.ID,
		Target:       datatypes.DocumentTarget("no-such-doc"),
		StartIndex:   0,
		EndIndex:     2,
		SelectedText: "ab",
	}, testEditor)
	assert.ErrorIs(t, err, datatypes.ErrNotFound)
}

func TestCreate_NonMemberForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.index.Create(context.Background(), CreateRequest{
		CodeID:       f.code.ID,
		Target:       datatypes.DocumentTarget(testDoc),
		StartIndex:   0,
		EndIndex:     2,
		SelectedText: "ab",
	}, "stranger")
	assert.ErrorIs(t, err, datatypes.ErrForbidden)
}

func TestListForTarget_SortedByStart(t *testing.T) {
	f := newFixture(t)

	// Created out of order on purpose.
	f.annotate(t, testEditor, 20, 25, "third")
	f.annotate(t, testEditor, 0, 5, "first")
	f.annotate(t, testEditor, 10, 16, "second")

	anns, err := f.index.ListForTarget(context.Background(), datatypes.DocumentTarget(testDoc))
	require.NoError(t, err)
	require.Len(t, anns, 3)
	assert.Equal(t, "first", anns[0].SelectedText)
	assert.Equal(t, "second", anns[1].SelectedText)
	assert.Equal(t, "third", anns[2].SelectedText)
}

func TestDelete_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("author may delete own annotation", func(t *testing.T) {
		ann := f.annotate(t, testViewer, 0, 2, "ab")
		assert.NoError(t, f.index.Delete(ctx, ann.ID, testViewer))
	})

	t.Run("editor may delete another user's annotation", func(t *testing.T) {
		ann := f.annotate(t, testViewer, 0, 2, "ab")
		assert.NoError(t, f.index.Delete(ctx, ann.ID, testEditor))
	})

	t.Run("viewer may not delete another user's annotation", func(t *testing.T) {
		ann := f.annotate(t, testEditor, 0, 2, "ab")
		err := f.index.Delete(ctx, ann.ID, testViewer)
		assert.ErrorIs(t, err, datatypes.ErrForbidden)
	})

	t.Run("missing annotation", func(t *testing.T) {
		err := f.index.Delete(ctx, "ghost", testEditor)
		assert.ErrorIs(t, err, datatypes.ErrNotFound)
	})
}

func TestDeleteCode_LeavesAnnotationsOrphaned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ann := f.annotate(t, testEditor, 0, 2, "ab")
	require.NoError(t, f.taxonomy.DeleteCode(ctx, f.code.ID, testEditor))

	anns, err := f.index.ListForTarget(ctx, datatypes.DocumentTarget(testDoc))
	require.NoError(t, err)
	require.Len(t, anns, 1, "annotation survives its code's deletion")
	assert.Equal(t, ann.ID, anns[0].ID)
}
