package main

import (
	"errors"
	"fmt"
	"time"

	"precast-tracker/pkg/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newTokenCmd signs a bearer token for a stored user. Sign-in itself is
// handled elsewhere; this is for operators and local testing.
func newTokenCmd() *cobra.Command {
	var (
		secret string
		issuer string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign an access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			viper.AutomaticEnv()
			if secret == "" {
				secret = viper.GetString("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("JWT secret is missing: pass --secret or set JWT_SECRET")
			}

			token, err := utils.GenerateToken(userID, secret, issuer, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "precast-tracker", "token issuer")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
