package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tollgate-ai/tollgate/pkg/classify"
	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/costs"
)

func newClassifyCmd() *cobra.Command {
	var (
		configPath    string
		labels        []string
		maxTokens     int
		searchQueries int
	)

	cmd := &cobra.Command{
		Use:   "classify <task text>",
		Short: "Dry-run: classify a task and estimate its cost without calling a provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			assessment := classify.New(cfg.Tiers).Classify(text, labels)
			estimator := costs.New(cfg.Models)
			opts := costs.Options{
				MaxOutputTokens: maxTokens,
				SearchQueries:   searchQueries,
			}
			estimate, err := estimator.Estimate(text, assessment.RecommendedModel, opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Tier:\t%s\n", assessment.Tier)
			fmt.Fprintf(w, "Score:\t%d\n", assessment.Score)
			fmt.Fprintf(w, "Model:\t%s\n", assessment.RecommendedModel)
			if p, ok := estimator.Pricing(assessment.RecommendedModel); ok {
				fmt.Fprintf(w, "Rates per 1K:\t$%.2f in / $%.2f out\n", p.InputCostPer1K, p.OutputCostPer1K)
			}
			fmt.Fprintf(w, "Est. input tokens:\t%d\n", estimate.InputTokensEst)
			fmt.Fprintf(w, "Est. output tokens:\t%d\n", estimate.OutputTokensEst)
			fmt.Fprintf(w, "Est. cost:\t$%.6f\n", estimate.EstimatedUsd)
			if cheapest := estimator.Cheapest(); cheapest != assessment.RecommendedModel {
				if alt, err := estimator.Estimate(text, cheapest, opts); err == nil {
					fmt.Fprintf(w, "Cheapest alternative:\t%s at $%.6f\n", cheapest, alt.EstimatedUsd)
				}
			}
			for i, reason := range assessment.Reasons {
				if i == 0 {
					fmt.Fprintf(w, "Reasons:\t%s\n", reason)
				} else {
					fmt.Fprintf(w, "\t%s\n", reason)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tollgate.yaml", "path to config file")
	cmd.Flags().StringArrayVarP(&labels, "label", "l", nil, "task label (repeatable)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "cap output tokens (default 500)")
	cmd.Flags().IntVar(&searchQueries, "search-queries", 0, "expected live search queries")
	return cmd
}
