package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-notetaker/internal/server"
)

// TokenCmd creates the token command.
func TokenCmd(env *Env) *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Long: `Issue an HS256 bearer token signed with JWT_SECRET.

The token is printed to stdout.`,
		Example: `  notetaker token --subject ios-app --ttl 24h
  curl -H "Authorization: Bearer $(notetaker token)" -F audio=@talk.m4a localhost:3000/process-audio`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(env, subject, email, ttl)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "notetaker", "Token subject")
	cmd.Flags().StringVar(&email, "email", "", "Optional email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

func runToken(env *Env, subject, email string, ttl time.Duration) error {
	cfg, _, err := loadConfig(env)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("%w (set it with: export JWT_SECRET=...)", ErrJWTSecretMissing)
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive, got %s", ttl)
	}

	tok, err := server.IssueToken(cfg.JWTSecret, subject, email, ttl, env.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, tok)
	return nil
}
