// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// Frequencies counts annotations per code within the filter and groups
// the rows by parent.
//
// Percentages are computed over the filtered result set, so they sum
// to 100 (within rounding) whenever the set is non-empty. A code whose
// parent carries no annotations itself (and is therefore absent from
// the result set) heads its own group. Group totals add the header's
// own count and every descendant row attached to the group; children
// are sorted by count descending.
func (e *Engine) Frequencies(ctx context.Context, filter datatypes.Filter) (*datatypes.FrequencyReport, error) {
	sc, err := e.loadScope(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, ann := range sc.annotations {
		counts[ann.CodeID]++
	}
	total := len(sc.annotations)
	if total == 0 {
		return &datatypes.FrequencyReport{Frequencies: []datatypes.FrequencyGroup{}, TotalAnnotations: 0}, nil
	}

	rows := make(map[string]datatypes.CodeFrequency, len(counts))
	for codeID, count := range counts {
		code := sc.codes[codeID]
		rows[codeID] = datatypes.CodeFrequency{
			CodeID:     codeID,
			CodeName:   code.Name,
			Color:      code.Color,
			Count:      count,
			Percentage: round2(float64(count) / float64(total) * 100),
		}
	}

	// A code heads a group when its parent carries no count of its own.
	// Every other code attaches to its nearest counted ancestor that is
	// a header, so grouping stays correct at any tree depth.
	isHeader := func(codeID string) bool {
		code := sc.codes[codeID]
		if code.IsRoot() {
			return true
		}
		_, parentCounted := counts[*code.ParentID]
		return !parentCounted
	}

	headerOf := func(codeID string) string {
		current := codeID
		for !isHeader(current) {
			current = *sc.codes[current].ParentID
		}
		return current
	}

	groups := make(map[string]*datatypes.FrequencyGroup)
	for codeID := range counts {
		if !isHeader(codeID) {
			continue
		}
		row := rows[codeID]
		groups[codeID] = &datatypes.FrequencyGroup{
			CodeID:     row.CodeID,
			CodeName:   row.CodeName,
			Color:      row.Color,
			Count:      row.Count,
			Percentage: row.Percentage,
			Total:      row.Count,
			Children:   []datatypes.CodeFrequency{},
		}
	}
	for codeID := range counts {
		if isHeader(codeID) {
			continue
		}
		group := groups[headerOf(codeID)]
		group.Children = append(group.Children, rows[codeID])
		group.Total += rows[codeID].Count
	}

	result := make([]datatypes.FrequencyGroup, 0, len(groups))
	for _, group := range groups {
		sort.Slice(group.Children, func(i, j int) bool {
			if group.Children[i].Count != group.Children[j].Count {
				return group.Children[i].Count > group.Children[j].Count
			}
			return group.Children[i].CodeName < group.Children[j].CodeName
		})
		result = append(result, *group)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].CodeName < result[j].CodeName
	})

	return &datatypes.FrequencyReport{Frequencies: result, TotalAnnotations: total}, nil
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
