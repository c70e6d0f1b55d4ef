package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pfbt/internal/backend"
	"pfbt/internal/cli"
	"pfbt/internal/config"
	"pfbt/internal/core"
	applog "pfbt/internal/log"
	"pfbt/internal/services"
)

// app holds what the persistent pre-run resolves for every command.
type app struct {
	userID string
	cfg    *config.Config
	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pfbt-admin",
		Short: "Inspect and maintain pfbt data",
		Long: `pfbt-admin works directly against the configured backend.

Every command acts on behalf of one user, given with --user or DEV_USER_ID.`,
		PersistentPreRunE: a.initConfig,
		SilenceUsage:      true,
	}
	root.PersistentFlags().StringVar(&a.userID, "user", "", "user id to act as (default: $DEV_USER_ID)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(a.categoriesCmd())
	root.AddCommand(a.transactionsCmd())
	root.AddCommand(a.activityCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	level := slog.LevelWarn
	if s, _ := cmd.Flags().GetString("log-level"); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", s, err)
		}
	}
	a.logger = cli.SetupLogger(level, applog.ComponentAdmin)

	a.cfg = config.Load()
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.userID == "" {
		a.userID = a.cfg.DevUserID
	}
	return nil
}

// session is an open backend plus the services built on it.
type session struct {
	logger  *applog.Logger
	actor   core.Actor
	backend *backend.BackendResult
	txs     *services.TransactionService
	cats    *services.CategoryRegistry
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	if a.userID == "" {
		return nil, errors.New("no user: pass --user or set DEV_USER_ID")
	}
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	be, err := backend.NewFactory(a.logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", bcfg.Type, err)
	}
	notifier := services.ContextNotifier{Logger: a.logger.Logger}
	return &session{
		logger:  a.logger,
		actor:   core.Actor{UserID: a.userID},
		backend: be,
		txs:     services.NewTransactionService(be.Store, notifier, be.Publisher),
		cats:    services.NewCategoryRegistry(be.Store, notifier, be.Publisher),
	}, nil
}

func (s *session) Close() {
	if err := s.backend.Close(); err != nil {
		s.logger.Warn("Backend close failed", applog.FieldError, err)
	}
}

// report prints the last notification raised while running cmd.
func report(cmd *cobra.Command, notes *services.Notifications) {
	if n, ok := notes.Last(); ok {
		out := cmd.OutOrStdout()
		if n.Severity == services.SeverityError {
			out = cmd.ErrOrStderr()
		}
		fmt.Fprintln(out, n.Message)
	}
}
