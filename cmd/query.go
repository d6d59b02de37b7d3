package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the indexed documents without generating an answer",
	Long:  `Embeds the query and prints the most similar text chunks and image texts with their similarity scores.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 5, "maximum number of results")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx, cfg, false)
	if err != nil {
		return err
	}

	ret, err := rag.NewRetriever(idx).Retrieve(ctx, args[0], limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch ret.Outcome {
	case vectordb.OutcomeEmptyCollection:
		fmt.Println("The index is empty. Run `docrag index` first.")
		return nil
	case vectordb.OutcomeQueryNotEmbedded:
		return fmt.Errorf("could not embed query: %w", ret.Cause)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rag.NewHitViews(ret.Hits))
	}

	results := make([]vectordb.SearchResult, len(ret.Hits))
	for i, h := range ret.Hits {
		results[i] = vectordb.SearchResult{ID: h.ID, Text: h.Text, Metadata: h.Metadata, Distance: h.Distance}
	}
	fmt.Print(vectordb.FormatResults(results, idx.Metric()))
	return nil
}
