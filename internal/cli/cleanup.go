package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete uploads no property references",
		Long:  "Run the orphaned upload sweep once with the configured minimum age and safety limit, print the result as JSON and exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report what would be deleted")

	return cmd
}

func runCleanup(cmd *cobra.Command, dryRun bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	settings := a.scheduler.CleanupConfig()
	if cmd.Flags().Changed("dry-run") {
		settings.DryRun = dryRun
	}

	result, err := a.scheduler.Run(ctx, settings)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
