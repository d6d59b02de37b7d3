package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent index runs or answered questions",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Bool("chats", false, "list questions instead of index runs")
	historyCmd.Flags().String("channel", "", "only questions asked through this channel: cli, http, ws, mcp")
	historyCmd.Flags().Int("limit", 20, "maximum number of records")
	historyCmd.Flags().Bool("json", false, "output records as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	chats, _ := cmd.Flags().GetBool("chats")
	channel, _ := cmd.Flags().GetString("channel")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hist, closeHist, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHist()
	if hist == nil {
		return fmt.Errorf("history is disabled (history_db is empty)")
	}

	var records any
	if chats {
		qs, err := hist.ListQuestions(ctx, history.Channel(channel), limit)
		if err != nil {
			return err
		}
		records = qs
		if !jsonOutput {
			printQuestions(qs)
		}
	} else {
		runs, err := hist.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		records = runs
		if !jsonOutput {
			printRuns(runs)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	return nil
}

func printRuns(runs []history.Run) {
	if len(runs) == 0 {
		fmt.Println("No index runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %-12s docs=%d chunks=%d images=%d ocr=%d failed=%d",
			r.StartedAt.Local().Format(time.DateTime), r.Status,
			r.TotalDocs, r.TotalChunks, r.TotalImages, r.OCRTexts, r.FailedDocs+r.FailedImages)
		if r.Error != "" {
			fmt.Printf("  error: %s", r.Error)
		}
		fmt.Println()
	}
}

func printQuestions(qs []history.Question) {
	if len(qs) == 0 {
		fmt.Println("No questions recorded.")
		return
	}
	for _, q := range qs {
		fmt.Printf("%s  [%s] %s\n", q.AskedAt.Local().Format(time.DateTime), q.Channel, q.Question)
		fmt.Printf("    %s (%s, %d sources)\n", truncate(q.Answer, 100), q.Status, len(q.Sources))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
