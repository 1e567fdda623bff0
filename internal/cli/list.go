package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all accounts",
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

			ctx := cmd.Context()
			total, err := st.CountUsers(ctx)
			if err != nil {
				return err
			}
			list, err := st.ListUsers(ctx, total, 0)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Email", "Name", "Role", "Active", "Superuser"})
			for _, u := range list {
				role := ""
				if u.Role != nil {
					role = u.Role.Name
				}
				t.AppendRow(table.Row{u.ID, u.Email, u.FullName(), role, u.Active, u.Superuser})
			}
			t.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "(%d accounts)\n", total)
			return nil
		},
	})

	return cmd
}

// NewSectorsCommand creates the sectors command group.
func NewSectorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sectors",
		Short: "Inspect sectors",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all sectors",
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

			sectors, err := st.ListSectors(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Color", "Position", "Members"})
			for _, s := range sectors {
				t.AppendRow(table.Row{s.ID, s.Name, s.Color, s.Position, s.UserCount})
			}
			t.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "(%d sectors)\n", len(sectors))
			return nil
		},
	})

	return cmd
}
