// Command admintool prepares admin credentials for the API: a bcrypt hash for
// ADMIN_PASSWORD_HASH and short-lived session tokens for scripted moderation.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminCookieName    = "reportwatch_admin_session"
	minSigningSecret   = 16
	defaultTokenTTL    = 8 * time.Hour
	defaultBcryptCost  = bcrypt.DefaultCost
	signingSecretEnv   = "APP_SIGNING_SECRET"
	passwordPromptHint = "reading password from stdin"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:                   "admintool [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Admin credential helper for the reportwatch API.",
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(newHashPasswordCmd(), newSessionTokenCmd())
	return root
}

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH. Reads stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), passwordPromptHint)
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = line
			}
			if strings.TrimSpace(password) == "" {
				return fmt.Errorf("password must not be empty")
			}
			if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
				return fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", defaultBcryptCost, "bcrypt cost factor")
	return cmd
}

func newSessionTokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
		cookie bool
	)
	cmd := &cobra.Command{
		Use:   "session-token",
		Short: "Print a signed admin session token for use as the " + adminCookieName + " cookie.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = strings.TrimSpace(os.Getenv(signingSecretEnv))
			}
			if len(secret) < minSigningSecret {
				return fmt.Errorf("%s must be at least %d characters", signingSecretEnv, minSigningSecret)
			}
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive")
			}

			token, err := signAdminToken(secret, time.Now(), ttl)
			if err != nil {
				return err
			}
			if cookie {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", adminCookieName, token)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default $"+signingSecretEnv+")")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "token lifetime")
	cmd.Flags().BoolVar(&cookie, "cookie", false, "print as a name=value cookie pair")
	return cmd
}

func signAdminToken(secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
