// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analytics

import (
	"context"
	"sort"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// CoOccurrence builds the code co-occurrence graph: two codes co-occur
// when both are applied somewhere within the same document or
// transcription.
//
// For every target in scope the distinct set of applied codes is
// collected; each unordered pair increments the matrix in both
// directions, so the matrix is symmetric by construction. Node values
// count the targets containing the code. Links are deduplicated by
// emitting each unordered pair once, only when its value is positive.
func (e *Engine) CoOccurrence(ctx context.Context, filter datatypes.Filter) (*datatypes.CoOccurrenceGraph, error) {
	sc, err := e.loadScope(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Distinct codes per target.
	codesByTarget := make(map[datatypes.Target]map[string]bool)
	for _, ann := range sc.annotations {
		set := codesByTarget[ann.Target]
		if set == nil {
			set = make(map[string]bool)
			codesByTarget[ann.Target] = set
		}
		set[ann.CodeID] = true
	}

	observed := make(map[string]bool)
	targetCount := make(map[string]int)
	for _, set := range codesByTarget {
		for codeID := range set {
			observed[codeID] = true
			targetCount[codeID]++
		}
	}

	codeIDs := make([]string, 0, len(observed))
	for codeID := range observed {
		codeIDs = append(codeIDs, codeID)
	}
	sort.Slice(codeIDs, func(i, j int) bool {
		return sc.codes[codeIDs[i]].Name < sc.codes[codeIDs[j]].Name
	})

	matrix := make(map[string]map[string]int, len(codeIDs))
	for _, i := range codeIDs {
		matrix[i] = make(map[string]int, len(codeIDs))
		for _, j := range codeIDs {
			matrix[i][j] = 0
		}
	}
	for _, set := range codesByTarget {
		ids := make([]string, 0, len(set))
		for codeID := range set {
			ids = append(ids, codeID)
		}
		for a := 0; a < len(ids); a++ {
			for b := a + 1; b < len(ids); b++ {
				matrix[ids[a]][ids[b]]++
				matrix[ids[b]][ids[a]]++
			}
		}
	}

	nodes := make([]datatypes.CoOccurrenceNode, 0, len(codeIDs))
	for _, codeID := range codeIDs {
		code := sc.codes[codeID]
		nodes = append(nodes, datatypes.CoOccurrenceNode{
			CodeID:   codeID,
			CodeName: code.Name,
			Color:    code.Color,
			Value:    targetCount[codeID],
		})
	}

	links := make([]datatypes.CoOccurrenceLink, 0)
	for a := 0; a < len(codeIDs); a++ {
		for b := a + 1; b < len(codeIDs); b++ {
			value := matrix[codeIDs[a]][codeIDs[b]]
			if value > 0 {
				links = append(links, datatypes.CoOccurrenceLink{
					Source: codeIDs[a],
					Target: codeIDs[b],
					Value:  value,
				})
			}
		}
	}

	return &datatypes.CoOccurrenceGraph{Nodes: nodes, Links: links, Matrix: matrix}, nil
}
