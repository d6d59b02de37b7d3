package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every item from the index",
	Long:  `Drops and recreates the collection and clears the index state, so the next index run starts from scratch.`,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	yes, _ := cmd.Flags().GetBool("yes")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !yes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete all items in collection %q", cfg.Collection),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
				fmt.Println("Aborted.")
				return nil
			}
			return err
		}
	}

	idx, err := openIndex(ctx, cfg, false)
	if err != nil {
		return err
	}
	before := idx.Count()

	if err := newOrchestrator(cfg, idx).Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Printf("Removed %d items from %s.\n", before, cfg.Collection)
	return nil
}
