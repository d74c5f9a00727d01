package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scorekit/internal/musicxml"
	"scorekit/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a score's structural integrity",
	Long: `Validates measure lengths against the active time signature, voice
numbering, and tie continuity. Problems are reported per part and
measure.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := musicxml.DecodeFile(args[0])
	if err != nil {
		return err
	}

	problems := s.Validate()
	fmt.Print(report.Problems(problems))
	if len(problems) > 0 {
		return fmt.Errorf("%s has %d structural problem(s)", args[0], len(problems))
	}
	return nil
}
