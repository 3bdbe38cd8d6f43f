package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/subscription-sales/internal/auth"
)

var (
	tokenEmail string
	tokenRoles string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Issue a back-office bearer token",
	Long:  `Sign a JWT with the configured secret for local use of the protected sales routes`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(".")
		if err != nil {
			return err
		}

		var roles []string
		for _, role := range strings.Split(tokenRoles, ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}

		token, err := auth.NewVerifier(cfg.Security.JWTSecret, cfg.Security.Issuer).
			Issue(args[0], tokenEmail, roles, tokenTTL)
		if err != nil {
			return err
		}

		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().StringVar(&tokenRoles, "roles", auth.RoleBackOffice, "Comma separated roles")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")

	rootCmd.AddCommand(tokenCmd)
}
