package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"paytrack/internal/backend"
	"paytrack/internal/cli"
	"paytrack/internal/log"
)

func addMigrate(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := cli.BootstrapTo(log.ComponentApp, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			bc, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			if err := backend.Migrate(bc); err != nil {
				return fmt.Errorf("migrate %s: %w", bc.Type, err)
			}
			logger.Info("Migrations applied", log.FieldOperation, log.OpMigrate, log.FieldBackend, bc.Type.String())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", bc.Type)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
