package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scorekit/internal/braille"
	"scorekit/internal/musicxml"
)

var braillePart string

var brailleCmd = &cobra.Command{
	Use:   "braille [file]",
	Short: "Transcribe a score part into braille music notation",
	Long: `Transcribes one part into Unicode braille music cells: key and time
signature prefix, octave marks per the standard placement rules,
accidentals with in-measure carry, and chord interval signs.

By default the first part is transcribed; select another with --part
(by name or ID).`,
	Args: cobra.ExactArgs(1),
	RunE: runBraille,
}

func init() {
	brailleCmd.Flags().StringVarP(&braillePart, "part", "p", "", "Part to transcribe (name or ID, default: first)")
}

func runBraille(cmd *cobra.Command, args []string) error {
	s, err := musicxml.DecodeFile(args[0])
	if err != nil {
		return err
	}
	if len(s.Parts) == 0 {
		return fmt.Errorf("%s has no parts", args[0])
	}

	part := s.Parts[0]
	if braillePart != "" {
		part = nil
		for _, p := range s.Parts {
			if p.Name == braillePart || p.ID == braillePart {
				part = p
				break
			}
		}
		if part == nil {
			return fmt.Errorf("no part named %q in %s", braillePart, args[0])
		}
	}

	tr := &braille.Transcriber{LineWidth: cfg.Braille.LineWidth}
	out, err := tr.TranscribePart(part)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
