// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package annotations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

func span(id string, start, end int) *datatypes.Annotation {
	return &datatypes.Annotation{ID: id, StartIndex: start, EndIndex: end}
}

// joined reassembles the segment texts; merging must never lose or
// duplicate source text.
func joined(segments []datatypes.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestMergeSegments_NoAnnotations(t *testing.T) {
	segments := MergeSegments("plain text", nil)
	require.Len(t, segments, 1)
	assert.Equal(t, "plain text", segments[0].Text)
	assert.Nil(t, segments[0].Annotation)
}

func TestMergeSegments_EmptySource(t *testing.T) {
	segments := MergeSegments("", []*datatypes.Annotation{span("a", 0, 3)})
	assert.Empty(t, segments)
}

func TestMergeSegments_GapsAroundSpans(t *testing.T) {
	source := "the quick brown fox"
	segments := MergeSegments(source, []*datatypes.Annotation{
		span("a", 4, 9),   // "quick"
		span("b", 16, 19), // "fox"
	})
	require.Len(t, segments, 4)

	assert.Equal(t, "the ", segments[0].Text)
	assert.Nil(t, segments[0].Annotation)
	assert.Equal(t, "quick", segments[1].Text)
	assert.Equal(t, "a", segments[1].Annotation.ID)
	assert.Equal(t, " brown ", segments[2].Text)
	assert.Equal(t, "fox", segments[3].Text)
	assert.Equal(t, "b", segments[3].Annotation.ID)

	assert.Equal(t, source, joined(segments))
}

func TestMergeSegments_FullCoverage(t *testing.T) {
	segments := MergeSegments("abcdef", []*datatypes.Annotation{span("a", 0, 6)})
	require.Len(t, segments, 1)
	assert.Equal(t, "abcdef", segments[0].Text)
	assert.Equal(t, "a", segments[0].Annotation.ID)
}

func TestMergeSegments_OverlapClipped(t *testing.T) {
	source := "abcdefghij"
	segments := MergeSegments(source, []*datatypes.Annotation{
		span("a", 0, 6),
		span("b", 4, 10), // starts inside a; clipped to [6,10)
	})
	require.Len(t, segments, 2)
	assert.Equal(t, "abcdef", segments[0].Text)
	assert.Equal(t, "a", segments[0].Annotation.ID)
	assert.Equal(t, "ghij", segments[1].Text)
	assert.Equal(t, "b", segments[1].Annotation.ID)
	assert.Equal(t, source, joined(segments))
}

func TestMergeSegments_ContainedSpanDropped(t *testing.T) {
	source := "abcdefghij"
	segments := MergeSegments(source, []*datatypes.Annotation{
		span("outer", 0, 8),
		span("inner", 2, 5),
	})
	require.Len(t, segments, 2)
	assert.Equal(t, "outer", segments[0].Annotation.ID)
	assert.Nil(t, segments[1].Annotation)
	assert.Equal(t, source, joined(segments))
}

func TestMergeSegments_SpanPastEndClamped(t *testing.T) {
	source := "short"
	segments := MergeSegments(source, []*datatypes.Annotation{span("a", 3, 40)})
	require.Len(t, segments, 2)
	assert.Equal(t, "sho", segments[0].Text)
	assert.Equal(t, "rt", segments[1].Text)
	assert.Equal(t, "a", segments[1].Annotation.ID)
}

func TestMergeSegments_UnsortedInput(t *testing.T) {
	source := "0123456789"
	segments := MergeSegments(source, []*datatypes.Annotation{
		span("late", 7, 9),
		span("early", 1, 3),
	})
	require.Len(t, segments, 5)
	assert.Equal(t, "early", segments[1].Annotation.ID)
	assert.Equal(t, "late", segments[3].Annotation.ID)
	assert.Equal(t, source, joined(segments))
}
