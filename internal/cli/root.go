// Package cli provides the beffroi command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/beffroi/beffroi/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

type configKey struct{}

type loggerKey struct{}

type levelKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "beffroi",
		Short: "Beffroi - Town hall staff intranet",
		Long: `Beffroi is the staff intranet of the town hall: accounts, sectors,
roles, the event approval circuit and leave tracking, served as a
classic server-rendered web application.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := new(slog.LevelVar)
			if cfg.Verbose {
				level.Set(slog.LevelDebug)
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			ctx = context.WithValue(ctx, levelKey{}, level)
			cmd.SetContext(ctx)
			return nil
		},
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./beffroi.yaml)")
	rootCmd.PersistentFlags().String("host", "", "listen address")
	rootCmd.PersistentFlags().Int("port", 0, "listen port")
	rootCmd.PersistentFlags().String("base-url", "", "externally visible origin for links in mail")
	rootCmd.PersistentFlags().Bool("dev", false, "dev mode: relaxed secrets")
	rootCmd.PersistentFlags().String("db-driver", "", "database driver (sqlite or postgres)")
	rootCmd.PersistentFlags().String("db-path", "", "sqlite database path")
	rootCmd.PersistentFlags().String("db-dsn", "", "postgres connection string")
	rootCmd.PersistentFlags().String("uploads-dir", "", "attachment storage directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewAdminCommand())
	rootCmd.AddCommand(NewUsersCommand())
	rootCmd.AddCommand(NewSectorsCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the loaded config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{}
}

// getLogger retrieves the logger from the command context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// getLevel retrieves the adjustable log level from the command context.
func getLevel(ctx context.Context) *slog.LevelVar {
	if l, ok := ctx.Value(levelKey{}).(*slog.LevelVar); ok {
		return l
	}
	return nil
}
