package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scorekit/internal/corpus"
	"scorekit/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus index statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	idx, err := corpus.OpenIndex(cfg.DatabasePath(workspace))
	if err != nil {
		return err
	}
	defer idx.Close()

	st, err := idx.Stats()
	if err != nil {
		return err
	}
	fmt.Print(report.IndexStats(st))
	return nil
}
