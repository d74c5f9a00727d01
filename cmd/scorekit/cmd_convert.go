package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scorekit/internal/musicxml"
)

var convertCmd = &cobra.Command{
	Use:   "convert [in] [out]",
	Short: "Convert a score between .xml/.musicxml and .mxl",
	Long: `Reads a score in either format and writes it in the format implied by
the output extension. Converting .mxl to .xml unpacks the compressed
container; the reverse packs it.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	s, err := musicxml.DecodeFile(in)
	if err != nil {
		return err
	}

	logger.Debug("Converting score",
		zap.String("in", in),
		zap.String("out", out),
		zap.Int("parts", len(s.Parts)))

	if err := musicxml.EncodeFile(out, s); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
