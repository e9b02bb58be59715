// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the shared data model for the qualitative
// coding engine: taxonomy codes, text-span annotations, the analytics
// filter, and the derived result structures returned by the analytics
// read paths.
//
// All types here are plain data. Storage, invariant enforcement, and
// aggregation live in the taxonomy, annotations, and analytics packages.
package datatypes

import (
	"fmt"
	"time"
)

// =============================================================================
// Taxonomy
// =============================================================================

// Code is a named, colored taxonomy node used to classify text spans.
// Codes form a tree per project via ParentID.
//
// Invariants (enforced by the taxonomy package):
//   - Name is unique within a project, case-folded
//   - ParentID, when set, references a code in the same project
//   - a code is never its own ancestor
type Code struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsRoot reports whether the code has no parent.
func (c *Code) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// CodeNode is a Code with its resolved children, used for tree views.
// Children recurse to any depth.
type CodeNode struct {
	Code
	Children []*CodeNode `json:"children"`
}

// =============================================================================
// Annotations
// =============================================================================

// TargetKind discriminates the source an annotation's span is measured
// against. Exactly one kind applies to any annotation.
type TargetKind string

const (
	TargetDocument      TargetKind = "document"
	TargetTranscription TargetKind = "transcription"
)

// Valid reports whether the kind is one of the known target kinds.
func (k TargetKind) Valid() bool {
	return k == TargetDocument || k == TargetTranscription
}

// Target identifies the document or transcription an annotation belongs
// to. Modeled as a tagged union rather than two nullable id fields so
// "exactly one target" holds structurally.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// DocumentTarget returns a Target for a document.
func DocumentTarget(documentID string) Target {
	return Target{Kind: TargetDocument, ID: documentID}
}

// TranscriptionTarget returns a Target for a transcription.
func TranscriptionTarget(transcriptionID string) Target {
	return Target{Kind: TargetTranscription, ID: transcriptionID}
}

// String returns "kind/id", used in index keys and logs.
func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Kind, t.ID)
}

// Annotation is a highlighted span of source text tagged with one code.
//
// Invariants (enforced by the annotations package):
//   - 0 <= StartIndex < EndIndex
//   - len(SelectedText) == EndIndex - StartIndex
//   - CodeID references a code in the same project as the target
//
// Annotations are never updated in place; the surrounding system edits
// by delete and recreate.
type Annotation struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	CodeID       string    `json:"code_id"`
	Target       Target    `json:"target"`
	StartIndex   int       `json:"start_index"`
	EndIndex     int       `json:"end_index"`
	SelectedText string    `json:"selected_text"`
	Notes        string    `json:"notes,omitempty"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Length returns the span length in the source text.
func (a *Annotation) Length() int {
	return a.EndIndex - a.StartIndex
}

// Segment is one piece of a render-merged view of a source text: either
// plain text (Annotation nil) or an annotated span. A merged sequence
// covers the source exactly once.
type Segment struct {
	Text       string      `json:"text"`
	Annotation *Annotation `json:"annotation,omitempty"`
}

// =============================================================================
// Analytics filter
// =============================================================================

// Filter scopes an analytics query. ProjectID is required; CodeIDs and
// the date range are optional narrowing criteria.
type Filter struct {
	ProjectID string     `json:"project_id"`
	CodeIDs   []string   `json:"code_ids,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
}

// MatchesCode reports whether the filter admits the given code id.
// An empty CodeIDs list admits every code.
func (f *Filter) MatchesCode(codeID string) bool {
	if len(f.CodeIDs) == 0 {
		return true
	}
	for _, id := range f.CodeIDs {
		if id == codeID {
			return true
		}
	}
	return false
}

// MatchesTime reports whether the filter's date range admits the given
// creation time. Both bounds are inclusive.
func (f *Filter) MatchesTime(t time.Time) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}

// Matches reports whether the filter admits the annotation.
func (f *Filter) Matches(a *Annotation) bool {
	return f.MatchesCode(a.CodeID) && f.MatchesTime(a.CreatedAt)
}

// =============================================================================
// Derived analytics structures
// =============================================================================

// CodeFrequency is the per-code row of a frequency report.
type CodeFrequency struct {
	CodeID     string  `json:"code_id"`
	CodeName   string  `json:"code_name"`
	Color      string  `json:"color"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FrequencyGroup is a parent code together with its children's rows.
// A code whose parent falls outside the result set heads its own group.
type FrequencyGroup struct {
	CodeID     string          `json:"code_id"`
	CodeName   string          `json:"code_name"`
	Color      string          `json:"color"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
	Total      int             `json:"total"`
	Children   []CodeFrequency `json:"children"`
}

// FrequencyReport is the full grouped frequency result.
type FrequencyReport struct {
	Frequencies      []FrequencyGroup `json:"frequencies"`
	TotalAnnotations int              `json:"total_annotations"`
}

// WordCloudTerm is one term of a word cloud. Size grows logarithmically
// with the count so a dominant term does not dwarf the rest.
type WordCloudTerm struct {
	Text  string  `json:"text"`
	Value int     `json:"value"`
	Size  float64 `json:"size"`
}

// CoOccurrenceNode is a graph node: one code, valued by the number of
// targets that contain it.
type CoOccurrenceNode struct {
	CodeID   string `json:"code_id"`
	CodeName string `json:"code_name"`
	Color    string `json:"color"`
	Value    int    `json:"value"`
}

// CoOccurrenceLink connects two codes co-present in at least one target.
// Links are emitted once per unordered pair.
type CoOccurrenceLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int    `json:"value"`
}

// CoOccurrenceGraph is the co-occurrence result: graph form plus the
// raw symmetric count matrix keyed by code id.
type CoOccurrenceGraph struct {
	Nodes  []CoOccurrenceNode        `json:"nodes"`
	Links  []CoOccurrenceLink        `json:"links"`
	Matrix map[string]map[string]int `json:"matrix"`
}

// TemporalSeries is one code's annotation counts per interval bucket.
type TemporalSeries struct {
	CodeID   string `json:"code_id"`
	CodeName string `json:"code_name"`
	Color    string `json:"color"`
	Counts   []int  `json:"counts"`
}

// TemporalReport pairs the generated interval boundaries with the
// per-code series. Every series has exactly len(Boundaries) entries.
type TemporalReport struct {
	Boundaries []time.Time      `json:"boundaries"`
	Series     []TemporalSeries `json:"series"`
}

// UserComparisonRow is one user's annotation counts per code.
// CodeCounts is zero-filled for every code in the report header.
type UserComparisonRow struct {
	UserID     string         `json:"user_id"`
	UserName   string         `json:"user_name"`
	Total      int            `json:"total"`
	CodeCounts map[string]int `json:"code_counts"`
}

// UserComparisonReport is the cross-user comparison matrix. Codes holds
// the column headers in stable (name-sorted) order.
type UserComparisonReport struct {
	Codes []CodeFrequency     `json:"codes"`
	Rows  []UserComparisonRow `json:"rows"`
}
