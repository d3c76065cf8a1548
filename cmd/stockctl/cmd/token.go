package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wonny/stockmarket/internal/pkg/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token",
		Long: `Print an HS256 bearer token signed with JWT_SECRET.

Examples:
  go run ./cmd/stockctl token --subject alice
  go run ./cmd/stockctl token --subject ci --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return errors.New("--subject is required")
			}

			authCfg := a.cfg.Auth
			if ttl > 0 {
				authCfg.TokenTTL = ttl
			}

			issuer, err := auth.NewIssuer(authCfg)
			if err != nil {
				return err
			}

			token, err := issuer.Issue(subject)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")

	return cmd
}
