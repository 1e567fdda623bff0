package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beffroi/beffroi/internal/auth"
	"github.com/beffroi/beffroi/internal/store"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office account operations",
	}
	cmd.AddCommand(newAdminCreateCommand())
	return cmd
}

func newAdminCreateCommand() *cobra.Command {
	var (
		email     string
		password  string
		firstName string
		lastName  string
		superuser bool
		verified  bool
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account from the command line",
		Long: `Create a staff account without going through the registration page.
The very first account of the database always becomes a superuser.
By default the account is usable immediately; with --verified=false it
gets a verification token and must confirm its address through the
/verify link.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := auth.ValidatePassword(password); err != nil {
				return err
			}

			st, err := connect(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			total, err := st.CountUsers(ctx)
			if err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			u := &store.User{
				Email:         email,
				PasswordHash:  hash,
				FirstName:     firstName,
				LastName:      lastName,
				Active:        true,
				Superuser:     superuser || total == 0,
				EmailVerified: verified,
			}
			if !verified {
				u.VerifyToken = auth.NewToken()
				now := time.Now().UTC()
				u.VerifySentAt = &now
			}
			if err := st.CreateUser(ctx, u); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (id %d, superuser %t)\n", u.Email, u.ID, u.Superuser)
			if !verified {
				fmt.Fprintf(cmd.OutOrStdout(), "Verification link: %s/verify?token=%s\n", cfg.Server.BaseURL, u.VerifyToken)
			}
			return nil
		},
	}

	create.Flags().StringVar(&email, "email", "", "account email (required)")
	create.Flags().StringVar(&password, "password", "", "account password (required)")
	create.Flags().StringVar(&firstName, "first-name", "", "first name")
	create.Flags().StringVar(&lastName, "last-name", "", "last name")
	create.Flags().BoolVar(&superuser, "superuser", false, "grant superuser")
	create.Flags().BoolVar(&verified, "verified", true, "mark the address as already verified")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	return create
}
