// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analytics

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed stopwords_en.txt
var stopwordsEnglish string

//go:embed stopwords_fr.txt
var stopwordsFrench string

var (
	stopwordsOnce sync.Once
	stopwordSet   map[string]bool
)

// Stopwords returns the built-in French and English stopword set.
// Words are lowercase; lookup happens before accent folding so the
// French entries keep their accents.
func Stopwords() map[string]bool {
	stopwordsOnce.Do(func() {
		stopwordSet = make(map[string]bool)
		for _, data := range []string{stopwordsEnglish, stopwordsFrench} {
			for _, line := range strings.Split(data, "\n") {
				word := strings.TrimSpace(strings.ToLower(line))
				if word != "" && !strings.HasPrefix(word, "#") {
					stopwordSet[word] = true
				}
			}
		}
	})
	return stopwordSet
}
