package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Question answering over a folder of documents",
	Long: `docrag indexes Word, Markdown, HTML and text documents (plus the text
found in their images) into a local vector database and answers
questions about them with an LLM, citing the documents it used.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine.
		_ = godotenv.Load()
		setupLogging(os.Getenv("DOCRAG_LOG_LEVEL"))
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setupLogging points the default logger at stderr so stdout stays free
// for command output and the MCP stdio transport.
func setupLogging(level string) {
	lvl := log.InfoLevel
	if level != "" {
		lvl = log.ParseLevel(level)
	}
	if verbose {
		lvl = log.DebugLevel
	}
	log.DefaultLogger = log.Logger{
		Level:      lvl,
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:      os.Stderr,
			ColorOutput: log.IsTerminal(os.Stderr.Fd()),
		},
	}
}
