package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scorekit/internal/figuredbass"
	"scorekit/internal/musicxml"
	"scorekit/internal/report"
)

var realizeOut string

var realizeCmd = &cobra.Command{
	Use:   "realize [file]",
	Short: "Realize a figured bass into four parts",
	Long: `Reads a figured bass progression from a text file and realizes it as
a four-voice SATB score. The input format is one entry per line:

  key: d
  time: 4/4
  D3 quarter
  G2 quarter 6
  A2 half 7
  D3 half

With --out the realization is written as MusicXML (or .mxl); otherwise
the result is checked and summarized on stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runRealize,
}

func init() {
	realizeCmd.Flags().StringVarP(&realizeOut, "out", "o", "", "Write the realization to a MusicXML file")
}

func runRealize(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	prog, err := figuredbass.ParseProgression(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	logger.Debug("Realizing figured bass",
		zap.String("file", args[0]),
		zap.String("key", prog.Key.String()),
		zap.Int("entries", len(prog.Entries)))

	realization, err := figuredbass.Realize(prog.Key, prog.Entries)
	if err != nil {
		return err
	}
	s := realization.Score(prog.Time)

	if realizeOut != "" {
		if err := musicxml.EncodeFile(realizeOut, s); err != nil {
			return err
		}
		fmt.Printf("Wrote %d chords to %s\n", len(realization.Chords), realizeOut)
		return nil
	}

	checker := newChecker()
	fmt.Printf("Realized %d chords in %s\n", len(realization.Chords), prog.Key)
	fmt.Print(report.Violations("Realization check", checker.CheckScore(s)))
	return nil
}
