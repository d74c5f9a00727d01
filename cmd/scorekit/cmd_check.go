package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scorekit/internal/musicxml"
	"scorekit/internal/report"
	"scorekit/internal/voiceleading"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check a score's voice leading",
	Long: `Runs the common-practice rulebook over a score: parallel and hidden
perfect intervals, voice crossing and overlap, spacing, melodic
augmented seconds and tritones, voice ranges, and leading-tone
resolution at the final cadence.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// newChecker applies configured analysis settings over the default
// rulebook.
func newChecker() *voiceleading.Checker {
	c := voiceleading.NewChecker()
	if max := cfg.Analysis.MaxSpacingSemis; max > 0 {
		for i, r := range c.Rules {
			if _, ok := r.(voiceleading.Spacing); ok {
				c.Rules[i] = voiceleading.Spacing{MaxSemis: max}
			}
		}
	}
	return c
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := musicxml.DecodeFile(args[0])
	if err != nil {
		return err
	}

	logger.Debug("Checking voice leading",
		zap.String("file", args[0]),
		zap.Int("parts", len(s.Parts)))

	checker := newChecker()
	violations := checker.CheckScore(s)

	title := s.Metadata.Title
	if title == "" {
		title = filepath.Base(args[0])
	}
	fmt.Print(report.Violations(title, violations))
	return nil
}
