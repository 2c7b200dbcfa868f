package system

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/surveybot/config"
	"github.com/Alijeyrad/surveybot/internal/app"
)

func NewAbandonedCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "abandoned",
		Short: "Report test sessions that were started but never completed",
		Long: `Count incomplete test sessions created before now minus --older-than.

Incomplete sessions are kept as a record of abandoned attempts; this command
only reports them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			store, err := app.NewStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer store.Close()

			cutoff := time.Now().Add(-olderThan)
			n, err := store.CountAbandonedSessions(ctx, cutoff)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d incomplete session(s) started before %s\n", n, cutoff.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Only count sessions older than this")

	return cmd
}
