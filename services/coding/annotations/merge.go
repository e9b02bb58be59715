// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package annotations

import (
	"sort"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// MergeSegments splits source into a flat sequence of plain and
// annotated segments covering the string exactly once.
//
// Annotations are walked left to right by StartIndex; the gap before
// each annotation is emitted as a plain segment. Spans that fall
// outside the source are clamped. Overlapping spans are tolerated:
// an annotation that starts inside the previous one is clipped to
// begin where the previous span ended, so no text is duplicated.
// Annotations fully covered by an earlier span are dropped from the
// flat view.
func MergeSegments(source string, anns []*datatypes.Annotation) []datatypes.Segment {
	if source == "" {
		return []datatypes.Segment{}
	}

	sorted := make([]*datatypes.Annotation, len(anns))
	copy(sorted, anns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartIndex < sorted[j].StartIndex
	})

	segments := make([]datatypes.Segment, 0, 2*len(sorted)+1)
	cursor := 0
	for _, ann := range sorted {
		start, end := ann.StartIndex, ann.EndIndex
		if start < cursor {
			start = cursor
		}
		if end > len(source) {
			end = len(source)
		}
		if start >= end {
			continue
		}
		if start > cursor {
			segments = append(segments, datatypes.Segment{Text: source[cursor:start]})
		}
		segments = append(segments, datatypes.Segment{Text: source[start:end], Annotation: ann})
		cursor = end
	}
	if cursor < len(source) {
		segments = append(segments, datatypes.Segment{Text: source[cursor:]})
	}
	return segments
}
