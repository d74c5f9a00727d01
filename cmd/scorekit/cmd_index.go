package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scorekit/internal/corpus"
	"scorekit/internal/report"
)

var indexCmd = &cobra.Command{
	Use:   "index [root]",
	Short: "Build or refresh the corpus metadata index",
	Long: `Walks the corpus root for score files (.xml, .musicxml, .mxl),
extracts metadata in parallel, and stores it in the SQLite index.
Unchanged files are skipped; files that fail to parse are recorded as
errors and left behind.

With no argument the workspace itself is indexed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	root := workspace
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	idx, err := corpus.OpenIndex(cfg.DatabasePath(workspace))
	if err != nil {
		return err
	}
	defer idx.Close()

	logger.Info("Building corpus index",
		zap.String("root", root),
		zap.Int("workers", cfg.Corpus.Workers))

	builder := corpus.NewBuilder(idx, cfg.Corpus.Workers)
	builder.Extensions = cfg.Corpus.Extensions

	r, err := builder.Build(ctx, root)
	if err != nil {
		return err
	}

	fmt.Print(report.BuildReport(r))
	return nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
