package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long:  `Retrieves the chunks most similar to the question, sends them to the configured LLM and prints the answer with the documents it was based on.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Int("top-k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	topK, _ := cmd.Flags().GetInt("top-k")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if topK <= 0 {
		topK = cfg.Retrieval.TopK
	}

	idx, err := openIndex(ctx, cfg, false)
	if err != nil {
		return err
	}
	engine, err := newEngine(ctx, cfg, idx)
	if err != nil {
		return err
	}

	ans, err := engine.Answer(ctx, args[0], topK)
	if err != nil {
		return err
	}

	hist, closeHist, err := openHistory(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("history disabled")
	} else {
		defer closeHist()
		if hist != nil {
			if _, err := hist.RecordQuestion(ctx, history.QuestionFromAnswer(ans, history.ChannelCLI, topK)); err != nil {
				log.Warn().Err(err).Msg("could not record question")
			}
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rag.NewAnswerView(ans))
	}

	printAnswer(ans)
	return nil
}

func printAnswer(ans *rag.Answer) {
	fmt.Println(ans.Text)
	if len(ans.Citations) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Sources:")
	for i, c := range ans.Citations {
		label := c.FileName
		if c.Type == vectordb.TypeOCR {
			label += " (image content)"
		}
		fmt.Printf("  %d. %s [%.3f]\n", i+1, label, c.Score)
	}
	if verbose && ans.Model != "" {
		fmt.Printf("\nModel: %s, %d output tokens, %s\n", ans.Model, ans.OutputTokens, ans.Duration.Round(time.Millisecond))
	}
}
