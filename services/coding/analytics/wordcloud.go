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
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/AleutianAI/AleutianResearch/services/coding/datatypes"
)

// WordCloudOptions tunes the word cloud tokenizer.
type WordCloudOptions struct {
	// MinWordLength drops tokens shorter than this many runes.
	MinWordLength int

	// MaxWords caps the number of returned terms.
	MaxWords int

	// ExcludeCommonWords drops tokens found in the built-in
	// French+English stopword set.
	ExcludeCommonWords bool
}

// DefaultWordCloudOptions returns the standard tuning: minimum token
// length 3, top 50 terms, stopwords excluded.
func DefaultWordCloudOptions() WordCloudOptions {
	return WordCloudOptions{MinWordLength: 3, MaxWords: 50, ExcludeCommonWords: true}
}

// accentFolder strips combining marks after NFD decomposition, so
// "émotion" and "emotion" count as the same term.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// WordCloud tokenizes the selected text of every annotation admitted
// by the filter and returns the most frequent terms.
//
// Pipeline: lowercase, strip everything but Unicode letters and
// whitespace, split on whitespace, drop short tokens and (optionally)
// stopwords, accent-fold for counting, rank by count descending, keep
// the top MaxWords. Term size is 10·ln(count) so one dominant term
// does not visually dwarf the rest.
func (e *Engine) WordCloud(ctx context.Context, filter datatypes.Filter, opts WordCloudOptions) ([]datatypes.WordCloudTerm, error) {
	sc, err := e.loadScope(ctx, filter)
	if err != nil {
		return nil, err
	}

	if opts.MinWordLength <= 0 {
		opts.MinWordLength = 3
	}
	if opts.MaxWords <= 0 {
		opts.MaxWords = 50
	}

	var corpus strings.Builder
	for _, ann := range sc.annotations {
		corpus.WriteString(ann.SelectedText)
		corpus.WriteByte(' ')
	}

	counts := make(map[string]int)
	stopwords := Stopwords()
	for _, token := range Tokenize(corpus.String()) {
		if len([]rune(token)) < opts.MinWordLength {
			continue
		}
		if opts.ExcludeCommonWords && stopwords[token] {
			continue
		}
		folded, _, err := transform.String(accentFolder, token)
		if err != nil {
			folded = token
		}
		counts[folded]++
	}

	terms := make([]datatypes.WordCloudTerm, 0, len(counts))
	for text, count := range counts {
		terms = append(terms, datatypes.WordCloudTerm{
			Text:  text,
			Value: count,
			Size:  round2(10 * math.Log(float64(count))),
		})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Value != terms[j].Value {
			return terms[i].Value > terms[j].Value
		}
		return terms[i].Text < terms[j].Text
	})
	if len(terms) > opts.MaxWords {
		terms = terms[:opts.MaxWords]
	}
	return terms, nil
}

// Tokenize lowercases the text, replaces every rune that is not a
// Unicode letter with a space, and splits on whitespace. Accented
// letters survive; punctuation and digits do not.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Fields(cleaned)
}
