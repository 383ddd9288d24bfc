package main

import (
	"fmt"

	"github.com/basalt-tpl/smarty/cmd/smarty/internal/config"
	"github.com/basalt-tpl/smarty/internal/smcache"
	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the compiled-artifact cache",
	}
	cmd.AddCommand(newCacheStatsCommand())
	cmd.AddCommand(newCacheClearCommand())
	return cmd
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache hit/miss/eviction counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache()
			if err != nil {
				return err
			}
			s := c.Stats()
			fmt.Printf("entries:   %d\n", s.EntryCount)
			fmt.Printf("size:      %d bytes\n", s.TotalSize)
			fmt.Printf("hits:      %d\n", s.Hits)
			fmt.Printf("misses:    %d\n", s.Misses)
			fmt.Printf("evictions: %d\n", s.Evictions)
			return nil
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache()
			if err != nil {
				return err
			}
			return c.Clear()
		},
	}
}

func openCache() (*smcache.Cache, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("loading smarty.yaml: %w", err)
	}
	return smcache.New(smcache.Config{Dir: cfg.Cache.Dir, MaxSize: cfg.Cache.MaxSize})
}
