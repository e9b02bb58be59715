// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command codingd runs the qualitative coding & analytics service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "codingd",
		Short: "Qualitative coding & analytics service",
		Long: `codingd serves the research platform's qualitative coding engine:
a hierarchical code taxonomy applied to text spans in documents and
transcriptions, with frequency, co-occurrence, temporal, word-cloud,
and cross-user analytics.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
