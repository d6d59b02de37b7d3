package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/indexer"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the documents folder into the vector database",
	Long: `Parses every supported document in the documents folder, splits the text
into overlapping chunks, embeds and stores them, then runs OCR over the
images extracted from the documents. Unchanged chunks are overwritten in
place; chunks belonging to shrunken or deleted documents are removed.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Bool("no-ocr", false, "skip OCR of extracted images")
	indexCmd.Flags().Bool("gpu", false, "let the OCR engine use the GPU")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	noOCR, _ := cmd.Flags().GetBool("no-ocr")
	gpu, _ := cmd.Flags().GetBool("gpu")
	opts := indexer.Options{
		EnableOCR: cfg.OCR.Enabled && !noOCR,
		UseGPU:    cfg.OCR.UseGPU || gpu,
	}

	idx, err := openIndex(ctx, cfg, true)
	if err != nil {
		return err
	}

	hist, closeHist, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHist()

	stats := newOrchestrator(cfg, idx).Run(ctx, opts)

	if hist != nil {
		if _, err := hist.RecordRun(context.WithoutCancel(ctx), history.RunFromStats(stats)); err != nil {
			log.Warn().Err(err).Msg("could not record index run")
		}
	}

	printRunStats(stats, idx.Count())

	switch stats.Status {
	case indexer.StatusError:
		return fmt.Errorf("indexing failed: %w", stats.Err)
	case indexer.StatusNoDocuments:
		fmt.Printf("\nNo documents found in %s.\n", cfg.DocumentsDir)
	}
	return nil
}

func printRunStats(s *indexer.RunStats, total int) {
	fmt.Println()
	fmt.Println("Indexing complete!")
	fmt.Printf("  Status:         %s\n", s.Status)
	fmt.Printf("  Documents:      %d", s.TotalDocs)
	if s.FailedDocs > 0 {
		fmt.Printf(" (%d failed)", s.FailedDocs)
	}
	fmt.Println()
	fmt.Printf("  Text chunks:    %d\n", s.TotalChunks)
	if s.OCREnabled {
		fmt.Printf("  Images:         %d", s.TotalImages)
		if s.FailedImages > 0 {
			fmt.Printf(" (%d failed)", s.FailedImages)
		}
		fmt.Println()
		fmt.Printf("  OCR texts:      %d\n", s.OCRTexts)
	} else {
		fmt.Println("  OCR:            disabled")
	}
	if s.SkippedItems > 0 {
		fmt.Printf("  Not embedded:   %d\n", s.SkippedItems)
	}
	if s.DeletedItems > 0 {
		fmt.Printf("  Stale removed:  %d\n", s.DeletedItems)
	}
	fmt.Printf("  Items in index: %d\n", total)
	fmt.Printf("  Duration:       %s\n", s.Duration.Round(time.Millisecond))
}
