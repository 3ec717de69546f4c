package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/landpermit-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "landpermit",
	Short: "Seoul land-transaction-permit reporter",
	Long:  "Fetches residential land-transaction permits for Seoul districts, resolves apartment names, and reports per-neighborhood and per-building counts to a chat.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
