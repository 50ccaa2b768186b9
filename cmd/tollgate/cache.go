package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cachepkg "github.com/tollgate-ai/tollgate/pkg/cache"
	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	openCache := func() (*cachepkg.Cache, store.Store, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return cachepkg.New(st, cfg.Cache.MaxAge), st, nil
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, st, err := openCache()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			stats, err := c.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Entries: %d\nHits:    %d\nMisses:  %d\n", stats.Entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, st, err := openCache()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := c.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Println("Cache cleared.")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tollgate.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
