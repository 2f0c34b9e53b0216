package cli

import (
	"fmt"

	"github.com/ppiankov/topology/internal/cache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached embedding",
	Long:  `Remove the on-disk embedding cache at cache.dir (TOPOLOGY_CACHE_DIR).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var c cache.Cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		if err := c.Purge(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared embedding cache: %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
