// Package cli is the cobra command tree behind cmd/app.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"printshop/internal/adapters/repl"
	"printshop/internal/app"
	"printshop/internal/bootstrap"
	"printshop/internal/config"
	"printshop/internal/db"
	"printshop/internal/logging"
	"printshop/internal/messaging"
	"printshop/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCommand builds `app` and its subcommands. With no subcommand it starts the
// interactive console.
func NewRootCommand() *cobra.Command {
	var staffEmail string

	root := &cobra.Command{
		Use:           "app",
		Short:         "Print shop console: orders, payments, WhatsApp messages and the assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				staffID, err := resolveStaff(ctx, rt, staffEmail)
				if err != nil {
					return err
				}
				format := messaging.NewFormatter(rt.Config.DisplayLocale)
				return repl.NewSession(rt.Service, format, staffID, cmd.OutOrStdout()).Run(ctx, cmd.InOrStdin())
			})
		},
	}
	root.PersistentFlags().StringVar(&staffEmail, "as", "", "staff email recorded on writes made from this session")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedCommand(),
		newComposeCommand(),
		newAskCommand(),
	)
	return root
}

// withRuntime loads configuration, builds the logger and the wired runtime, runs fn
// and releases everything afterwards.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *bootstrap.Runtime) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogEnv)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()
	return fn(ctx, rt)
}

func resolveStaff(ctx context.Context, rt *bootstrap.Runtime, email string) (int, error) {
	if email == "" {
		return 0, nil
	}
	staff, err := rt.Users.ListStaff(ctx)
	if err != nil {
		return 0, err
	}
	for _, s := range staff {
		if strings.EqualFold(s.Email, email) {
			return s.ID, nil
		}
	}
	return 0, fmt.Errorf("no staff member with email %s", email)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, chat endpoint and scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, bootstrap.Serve)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogEnv)
			if err != nil {
				return err
			}
			defer log.Sync()

			ms, err := db.LoadMigrations(migrations.FS)
			if err != nil {
				return err
			}
			pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := db.Migrate(cmd.Context(), pool, ms, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied, %d up to date.\n", n, len(ms)-n)
			return nil
		},
	}
}

func newComposeCommand() *cobra.Command {
	var (
		req    app.ComposeMessageRequest
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Render a message template for a customer and print its WhatsApp link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				msg, err := rt.Service.ComposeMessage(ctx, req)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(msg)
				}
				repl.PrintComposed(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&req.CustomerID, "customer", 0, "customer id (required)")
	cmd.Flags().IntVar(&req.OrderID, "order", 0, "order id whose details fill the template")
	cmd.Flags().IntVar(&req.TemplateID, "template", 0, "template id")
	cmd.Flags().StringVar(&req.Body, "body", "", "ad-hoc message body instead of a template")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func newAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   `ask "<question>"`,
		Short: "Ask the assistant one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				res, err := rt.Service.Chat(ctx, app.ChatRequest{
					History: []app.ChatTurn{{Role: "user", Text: strings.Join(args, " ")}},
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Response)
				return nil
			})
		},
	}
}

// Execute runs the root command with ctx and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
