package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scorekit/internal/corpus"
)

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Watch a corpus root and keep the index current",
	Long: `Builds the index once, then watches the root for file changes.
Changed scores are re-extracted after a debounce window; deleted ones
leave the index. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	builder := corpus.NewBuilder(idx, cfg.Corpus.Workers)
	builder.Extensions = cfg.Corpus.Extensions
	if _, err := builder.Build(ctx, root); err != nil {
		return err
	}

	w, err := corpus.NewWatcher(root, idx, cfg.WatchDebounce())
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("Watching corpus", zap.String("root", root))
	fmt.Printf("Watching %s (ctrl-c to stop)\n", root)

	<-ctx.Done()

	stats := w.Stats()
	fmt.Printf("Reindexed %d file(s), removed %d, %d error(s)\n",
		stats.Reindexed, stats.FilesDeleted, stats.Errors)
	return nil
}
