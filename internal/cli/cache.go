package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okarpov/athanor/internal/cache"
)

// cacheCmd groups cache maintenance commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached response",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store, err := cache.FromConfig(cfg.Cache)
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cache cleared (%s)\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
