package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beffroi/beffroi/internal/mailer"
	"github.com/beffroi/beffroi/internal/web"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the intranet web server",
		Long: `Start the HTTP server. Pending migrations are applied first, so a
fresh database is usable without a separate migrate step.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())
			if err := cfg.Validate(); err != nil {
				return err
			}

			st, err := connect(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			ml := mailer.New(cfg.SMTP, logger)
			router := web.NewRouter(cfg, st, ml, logger)
			srv := web.NewServer(cfg, router, logger, getLevel(cmd.Context()))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}
