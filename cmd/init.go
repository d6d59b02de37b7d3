package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize docrag configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure providers, folders and OCR, and writes a .docrag.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
