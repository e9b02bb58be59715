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

// UserComparison groups annotations by (user, code) and returns one
// row per user with a zero-filled count per observed code, plus the
// observed codes as name-sorted column headers. Row labels come from
// the user directory; an unresolvable name falls back to the user id.
func (e *Engine) UserComparison(ctx context.Context, filter datatypes.Filter) (*datatypes.UserComparisonReport, error) {
	sc, err := e.loadScope(ctx, filter)
	if err != nil {
		return nil, err
	}

	perUser := make(map[string]map[string]int)
	codeTotals := make(map[string]int)
	for _, ann := range sc.annotations {
		if perUser[ann.UserID] == nil {
			perUser[ann.UserID] = make(map[string]int)
		}
		perUser[ann.UserID][ann.CodeID]++
		codeTotals[ann.CodeID]++
	}

	codeIDs := make([]string, 0, len(codeTotals))
	for codeID := range codeTotals {
		codeIDs = append(codeIDs, codeID)
	}
	sort.Slice(codeIDs, func(i, j int) bool {
		return sc.codes[codeIDs[i]].Name < sc.codes[codeIDs[j]].Name
	})

	headers := make([]datatypes.CodeFrequency, 0, len(codeIDs))
	for _, codeID := range codeIDs {
		code := sc.codes[codeID]
		headers = append(headers, datatypes.CodeFrequency{
			CodeID:   codeID,
			CodeName: code.Name,
			Color:    code.Color,
			Count:    codeTotals[codeID],
		})
	}

	rows := make([]datatypes.UserComparisonRow, 0, len(perUser))
	for userID, counts := range perUser {
		name, err := e.users.DisplayName(ctx, userID)
		if err != nil || name == "" {
			name = userID
		}
		row := datatypes.UserComparisonRow{
			UserID:     userID,
			UserName:   name,
			CodeCounts: make(map[string]int, len(codeIDs)),
		}
		for _, codeID := range codeIDs {
			count := counts[codeID]
			row.CodeCounts[codeID] = count
			row.Total += count
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].UserName < rows[j].UserName
	})

	return &datatypes.UserComparisonReport{Codes: headers, Rows: rows}, nil
}
