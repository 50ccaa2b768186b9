package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tollgate-ai/tollgate/pkg/budget"
	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Inspect and reset the spending window",
	}

	openGovernor := func(ctx context.Context) (*budget.Governor, store.Store, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		g, err := budget.New(ctx, cfg.Budget, st)
		if err != nil {
			st.Close()
			return nil, nil, err
		}
		return g, st, nil
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show spend vs the weekly budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			g, st, err := openGovernor(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			state := g.State()
			decision := g.Check(0)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Window start:\t%s\n", state.WindowStart.Format("2006-01-02 15:04 MST"))
			fmt.Fprintf(w, "Budget:\t$%.2f\n", state.BudgetUsd)
			fmt.Fprintf(w, "Spent:\t$%.4f (%.1f%%)\n", state.WindowUsd, decision.PercentUsed)
			fmt.Fprintf(w, "Remaining:\t$%.4f\n", decision.RemainingUsd)
			fmt.Fprintf(w, "Paid queries:\t%d\n", state.TotalQueries)
			if decision.Warning {
				fmt.Fprintf(w, "Status:\tWARNING (past %.0f%% threshold)\n", state.WarnThreshold*100)
			}
			return w.Flush()
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Start a fresh spending window now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			g, st, err := openGovernor(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			g.ResetWindow()
			state := g.State()
			fmt.Printf("Window reset. $%.2f available until the next boundary.\n", state.BudgetUsd)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tollgate.yaml", "path to config file")
	cmd.AddCommand(statusCmd, resetCmd)
	return cmd
}
