// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// Interval is the bucketing unit for temporal evolution.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// Valid reports whether the interval is a known unit.
func (i Interval) Valid() bool {
	return i == IntervalDay || i == IntervalWeek || i == IntervalMonth
}

// step advances a boundary by one interval unit.
func (i Interval) step(t time.Time) time.Time {
	switch i {
	case IntervalDay:
		return t.AddDate(0, 0, 1)
	case IntervalWeek:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// defaultTemporalWindow is applied when the filter has no date range:
// the six months ending now.
const defaultTemporalMonths = 6

// TemporalEvolution buckets annotations into interval boundaries and
// returns one count series per code.
//
// Boundaries are generated from the window start, stepping one unit at
// a time while the boundary does not pass the window end — the end
// boundary is included, so a monthly window [Jan 1, Mar 1] yields the
// three boundaries Jan 1, Feb 1, Mar 1. Each annotation lands in the
// last boundary at or before its creation time (linear scan; bucket
// counts are small at this scale). Series that are all zero are
// dropped. Every returned series has exactly len(Boundaries) entries.
func (e *Engine) TemporalEvolution(ctx context.Context, filter datatypes.Filter, interval Interval) (*datatypes.TemporalReport, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("unknown interval %q: %w", interval, datatypes.ErrInvalidArgument)
	}

	end := time.Now().UTC()
	if filter.To != nil {
		end = *filter.To
	}
	start := end.AddDate(0, -defaultTemporalMonths, 0)
	if filter.From != nil {
		start = *filter.From
	}
	if start.After(end) {
		return nil, fmt.Errorf("window start %s is after end %s: %w", start, end, datatypes.ErrInvalidArgument)
	}
	// The window is the authoritative date range for bucketing.
	filter.From, filter.To = &start, &end

	sc, err := e.loadScope(ctx, filter)
	if err != nil {
		return nil, err
	}

	var boundaries []time.Time
	for b := start; !b.After(end); b = interval.step(b) {
		boundaries = append(boundaries, b)
	}

	bucketOf := func(t time.Time) int {
		bucket := -1
		for i, b := range boundaries {
			if b.After(t) {
				break
			}
			bucket = i
		}
		return bucket
	}

	countsByCode := make(map[string][]int)
	for _, ann := range sc.annotations {
		bucket := bucketOf(ann.CreatedAt)
		if bucket < 0 {
			continue
		}
		if countsByCode[ann.CodeID] == nil {
			countsByCode[ann.CodeID] = make([]int, len(boundaries))
		}
		countsByCode[ann.CodeID][bucket]++
	}

	series := make([]datatypes.TemporalSeries, 0, len(countsByCode))
	for codeID, counts := range countsByCode {
		nonZero := false
		for _, c := range counts {
			if c > 0 {
				nonZero = true
				break
			}
		}
		if !nonZero {
			continue
		}
		code := sc.codes[codeID]
		series = append(series, datatypes.TemporalSeries{
			CodeID:   codeID,
			CodeName: code.Name,
			Color:    code.Color,
			Counts:   counts,
		})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].CodeName < series[j].CodeName
	})

	return &datatypes.TemporalReport{Boundaries: boundaries, Series: series}, nil
}
