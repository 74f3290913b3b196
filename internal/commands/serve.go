package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"paytrack/internal/cli"
	apphttp "paytrack/internal/http"
	"paytrack/internal/log"
	"paytrack/internal/middleware/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func addServe(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			s, err := openSession(ctx, log.ComponentApp, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			// A failed first load is recorded in the snapshot; clients retry via /reload.
			if err := s.store.Load(ctx); err != nil {
				s.logger.Warn("Initial load failed", log.FieldError, err)
			}

			srv := apphttp.NewServer(":"+s.cfg.Port, apphttp.Config{
				Store:          s.store,
				Logger:         s.logger,
				AllowedOrigins: s.cfg.AllowedOrigins,
				Limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.ListenAndServe)
			g.Go(func() error {
				<-gctx.Done()
				s.logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	topLevel.AddCommand(cmd)
}
