package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scorekit/internal/corpus"
	"scorekit/internal/report"
)

var searchQuery corpus.Query

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the corpus metadata index",
	Long: `Filters indexed scores. All flags combine with AND; composer and
title match as case-insensitive substrings.

Examples:
  scorekit search --composer bach --min-parts 4
  scorekit search --key "g minor" --format mxl
  scorekit search --ambitus-low 40 --ambitus-high 81`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchQuery.Composer, "composer", "", "Composer substring")
	searchCmd.Flags().StringVar(&searchQuery.Title, "title", "", "Title substring")
	searchCmd.Flags().StringVar(&searchQuery.KeySig, "key", "", "Opening key, e.g. \"D major\"")
	searchCmd.Flags().StringVar(&searchQuery.Format, "format", "", "File format: musicxml or mxl")
	searchCmd.Flags().IntVar(&searchQuery.MinParts, "min-parts", 0, "Minimum part count")
	searchCmd.Flags().IntVar(&searchQuery.MaxParts, "max-parts", 0, "Maximum part count")
	searchCmd.Flags().IntVar(&searchQuery.AmbitusLow, "ambitus-low", 0, "Lowest allowed MIDI note")
	searchCmd.Flags().IntVar(&searchQuery.AmbitusHigh, "ambitus-high", 0, "Highest allowed MIDI note")
	searchCmd.Flags().IntVar(&searchQuery.Limit, "limit", 0, "Maximum results (default 50)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	idx, err := corpus.OpenIndex(cfg.DatabasePath(workspace))
	if err != nil {
		return err
	}
	defer idx.Close()

	results, err := idx.Search(searchQuery)
	if err != nil {
		return err
	}
	fmt.Print(report.SearchResults(results))
	return nil
}
