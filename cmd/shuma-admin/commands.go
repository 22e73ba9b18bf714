package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/shuma-massage/shuma-backend/internal/backend"
	"github.com/shuma-massage/shuma-backend/internal/config"
	"github.com/shuma-massage/shuma-backend/internal/logging"
	"github.com/shuma-massage/shuma-backend/internal/shuma/password"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
)

type loadFunc func() (config.Config, error)

// admin_users.username is VARCHAR(100).
const maxUsernameLen = 100

func newRootCmd(load loadFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "shuma-admin",
		Short:        "Administer the Shuma booking backend",
		SilenceUsage: true,
	}
	root.AddCommand(
		newCreateAdminCmd(load),
		newHashPasswordCmd(load),
		newCheckConfigCmd(load),
	)
	return root
}

// ── create-admin ─────────────────────────────────────────────────────────────

func newCreateAdminCmd(load loadFunc) *cobra.Command {
	var (
		username string
		plain    string
		email    string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or reset the password of an existing one",
		Long: "Create an admin account, or reset the password and email of an existing one.\n" +
			"Pass --password - to read the password from stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if username == "" {
				return errors.New("--username is required")
			}
			if utf8.RuneCountInString(username) > maxUsernameLen {
				return fmt.Errorf("--username must be at most %d characters", maxUsernameLen)
			}
			if plain == "-" {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				plain = p
			}
			if len(plain) < 8 {
				return errors.New("password must be at least 8 characters")
			}

			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			hash, err := password.Hash(plain, cfg.BcryptCost)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			stores, err := backend.Open(ctx, cfg, logging.Nop())
			if err != nil {
				return err
			}
			defer stores.Close()

			in := store.AdminUpsert{
				Username:     username,
				PasswordHash: hash,
				At:           time.Now().UTC(),
			}
			if e := strings.TrimSpace(email); e != "" {
				in.Email = &e
			}
			u, err := stores.Admins.UpsertAdmin(ctx, in)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "admin %q ready (id %d)\n", u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&plain, "password", "", "admin password, or - to read it from stdin")
	cmd.Flags().StringVar(&email, "email", "", "contact email (optional)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// ── hash-password ────────────────────────────────────────────────────────────

func newHashPasswordCmd(load loadFunc) *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for a password (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string
			if len(args) == 1 {
				plain = args[0]
			} else {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				plain = p
			}
			if plain == "" {
				return errors.New("empty password")
			}

			if !cmd.Flags().Changed("cost") {
				if cfg, err := load(); err == nil {
					cost = cfg.BcryptCost
				}
			}

			hash, err := password.Hash(plain, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", password.DefaultCost, "bcrypt cost")
	return cmd
}

// ── check-config ─────────────────────────────────────────────────────────────

func newCheckConfigCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate configuration, then print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "env:          %s\n", cfg.Env)
			fmt.Fprintf(out, "http:         %s\n", cfg.HTTPAddr)
			switch cfg.DBDriver {
			case "postgres":
				fmt.Fprintf(out, "db:           postgres %s:%d/%s\n", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Name)
			default:
				fmt.Fprintf(out, "db:           sqlite %s\n", cfg.DBPath)
			}
			fmt.Fprintf(out, "rate limits:  %s, bookings %d/%s, api %d/%s\n", cfg.RateLimit.Backend,
				cfg.RateLimit.BookingLimit, cfg.RateLimit.BookingWindow,
				cfg.RateLimit.APILimit, cfg.RateLimit.APIWindow)
			fmt.Fprintf(out, "cors origins: %s\n", strings.Join(cfg.CORSOrigins, ", "))
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
