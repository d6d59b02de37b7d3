package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/indexer"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the index contains",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx, cfg, false)
	if err != nil {
		return err
	}

	state, err := indexer.LoadState(indexer.StatePath(cfg.DBPath, cfg.Collection))
	if err != nil {
		return fmt.Errorf("reading index state: %w", err)
	}
	var textItems, ocrItems int
	for _, doc := range state.Documents {
		textItems += len(doc.TextIDs)
		ocrItems += len(doc.OCRIDs)
	}

	fmt.Printf("Collection:   %s\n", cfg.Collection)
	fmt.Printf("Database:     %s\n", cfg.DBPath)
	fmt.Printf("Items:        %d\n", idx.Count())
	fmt.Printf("Documents:    %d\n", len(state.Documents))
	fmt.Printf("Text chunks:  %d\n", textItems)
	fmt.Printf("Image texts:  %d\n", ocrItems)
	fmt.Printf("Metric:       %s\n", idx.Metric().Name())

	hist, closeHist, err := openHistory(cfg)
	if err != nil || hist == nil {
		return err
	}
	defer closeHist()

	last, err := hist.LastRun(ctx)
	if err != nil {
		return err
	}
	if last != nil {
		fmt.Printf("Last run:     %s (%s, %d docs)\n", last.FinishedAt.Local().Format(time.DateTime), last.Status, last.TotalDocs)
	}
	return nil
}
