// Package commands is the paytrack command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"paytrack/internal/backend"
	"paytrack/internal/cli"
	"paytrack/internal/config"
	"paytrack/internal/log"
	"paytrack/internal/store"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "paytrack",
		Short:         "Track pending, paid and debit payments.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addServe(topLevel)
	addList(topLevel)
	addAdd(topLevel)
	addPay(topLevel)
	addRm(topLevel)
	addMigrate(topLevel)
}

// session is a configured store over the assembled backend.
type session struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *store.Store
	backend *backend.BackendResult
}

// openSession bootstraps config and logging, builds the backend and wraps
// it in a store. Logs go to logOut.
func openSession(ctx context.Context, component string, logOut io.Writer) (*session, error) {
	cfg, logger, err := cli.BootstrapTo(component, logOut)
	if err != nil {
		return nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Slog()).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bc.Type, err)
	}
	st := store.New(res.Service, store.Config{
		UndoWindow: cfg.UndoWindow,
		Logger:     logger.Slog(),
	})
	return &session{cfg: cfg, logger: logger, store: st, backend: res}, nil
}

func (s *session) Close() error {
	return errors.Join(s.store.Close(), s.backend.Cleanup())
}

// openLoaded is openSession followed by a Load, for commands that act on
// existing entries.
func openLoaded(ctx context.Context, cmd *cobra.Command) (*session, error) {
	s, err := openSession(ctx, log.ComponentApp, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if err := s.store.Load(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
