package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

func newUsageCmd() *cobra.Command {
	var (
		configPath string
		limit      int
		summary    bool
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show the spend audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			st, err := store.NewSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ctx := context.Background()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

			if summary {
				sums, err := st.UsageSummary(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "MODEL\tREQUESTS\tCACHE HITS\tTOTAL USD")
				for _, s := range sums {
					fmt.Fprintf(w, "%s\t%d\t%d\t$%.4f\n", s.Model, s.RequestCount, s.CacheHits, s.TotalUsd)
				}
				return w.Flush()
			}

			entries, err := st.RecentUsage(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "TIME\tMODEL\tCOST USD\tCACHE")
			for _, e := range entries {
				hit := ""
				if e.CacheHit {
					hit = "hit"
				}
				fmt.Fprintf(w, "%s\t%s\t$%.4f\t%s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Model, e.CostUsd, hit)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tollgate.yaml", "path to config file")
	cmd.Flags().IntVar(&limit, "limit", 50, "max entries to show")
	cmd.Flags().BoolVar(&summary, "summary", false, "aggregate per model")
	return cmd
}
