package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"twolaunch/internal/config"
	"twolaunch/internal/database"
	"twolaunch/internal/repository"
	"twolaunch/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "twolaunch",
		Short:         "2Launch registration and account API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newPruneSessionsCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newRemindCommand())
	return cmd
}

// app bundles the wired components shared by every subcommand
type app struct {
	cfg         *config.Config
	logger      zerolog.Logger
	db          *database.DB
	accountRepo *repository.AccountRepository
	sessions    *service.SessionManager
	email       *service.EmailService
	accounts    *service.AccountService
}

// newApp loads configuration, opens storage and brings the schema up to date
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg)

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info().Str("type", cfg.DatabaseType).Msg("database connection established")

	if err := migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	email, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, logger.With().Str("component", "email").Logger())
	if err != nil {
		db.Close()
		return nil, err
	}

	accountRepo := repository.NewAccountRepository(db)
	sessions := service.NewSessionManager(repository.NewSessionRepository(db), cfg.SessionDuration)
	identity := service.NewIdentityGenerator(accountRepo, cfg.UsernameAttempts, logger.With().Str("component", "identity").Logger())
	accounts := service.NewAccountService(accountRepo, sessions, identity, email, service.AccountOptions{
		PasswordLength: cfg.PasswordLength,
		InsertAttempts: cfg.RegisterInsertAttempts,
		AdminURL:       cfg.AdminURL,
	}, logger.With().Str("component", "accounts").Logger())

	return &app{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		accountRepo: accountRepo,
		sessions:    sessions,
		email:       email,
		accounts:    accounts,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error().Err(err).Msg("close database")
	}
}

// migrate creates the base tables and then adds any missing account columns.
// Individual column failures are logged by the migrator and do not stop startup.
func migrate(ctx context.Context, db *database.DB, logger zerolog.Logger) error {
	if err := db.RunMigrations(ctx, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.NewSchemaMigrator(db, logger.With().Str("component", "migrator").Logger()).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	logger.Info().Msg("migrations completed successfully")
	return nil
}

// setupLogger configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT
func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log.Logger
}
