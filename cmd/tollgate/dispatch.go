package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

func newDispatchCmd() *cobra.Command {
	var (
		configPath    string
		labels        []string
		maxTokens     int
		searchQueries int
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dispatch <task text>",
		Short: "Run one task through the governor pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			s, err := buildStack(ctx, configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			task := models.Task{
				Text:   strings.Join(args, " "),
				Labels: labels,
				Options: models.TaskOptions{
					MaxOutputTokens: maxTokens,
					SearchQueries:   searchQueries,
				},
			}

			result, err := s.dispatcher.Dispatch(ctx, task)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.Allowed {
				return fmt.Errorf("declined: %s (%.4f USD remaining)", result.Reason, result.RemainingUsd)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tollgate.yaml", "path to config file")
	cmd.Flags().StringArrayVarP(&labels, "label", "l", nil, "task label (repeatable)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "cap output tokens (default 500)")
	cmd.Flags().IntVar(&searchQueries, "search-queries", 0, "expected live search queries")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the call")
	return cmd
}
