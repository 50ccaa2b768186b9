package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tollgate-ai/tollgate/pkg/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the request governor HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := buildStack(ctx, configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if spec := s.cfg.Budget.ResetSchedule; spec != "" {
				if err := s.governor.ScheduleReset(spec); err != nil {
					return err
				}
			}

			srv := server.New(s.cfg.Listen, s.dispatcher, s.governor, s.cache, s.store)

			log.Printf("starting tollgate with config: %s", configPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tollgate.yaml", "path to config file")
	return cmd
}
