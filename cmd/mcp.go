package cmd

import (
	"context"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/docrag/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol server on stdio that exposes document search, question answering and index status as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		idx, err := openIndex(ctx, cfg, false)
		if err != nil {
			return err
		}
		engine, err := newEngine(ctx, cfg, idx)
		if err != nil {
			return err
		}
		hist, closeHist, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer closeHist()

		if idx.Count() == 0 {
			log.Warn().Msg("index is empty; run `docrag index` first")
		}
		log.Info().Str("collection", cfg.Collection).Int("items", idx.Count()).Msg("docrag MCP server started on stdio")

		return mcpserver.NewServer(idx, engine, hist, cfg.Collection, cfg.Retrieval.TopK).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
