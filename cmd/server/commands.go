package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"twolaunch/internal/handlers"
	"twolaunch/internal/service"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := handlers.Router(handlers.RouterOptions{
		AllowedOrigins: a.cfg.AllowedOrigins,
		Accounts:       a.accounts,
		Registry:       registry,
		Logger:         a.logger.With().Str("component", "http").Logger(),
	})

	addr := ":" + a.cfg.ServerPort
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if a.cfg.SessionPruneInterval > 0 {
		go pruneSessionsPeriodically(ctx, a, a.cfg.SessionPruneInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// pruneSessionsPeriodically removes expired sessions until ctx is done
func pruneSessionsPeriodically(ctx context.Context, a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sessions.PruneExpired(ctx)
			if err != nil {
				a.logger.Error().Err(err).Msg("error cleaning up expired sessions")
				continue
			}
			a.logger.Info().Int64("removed", n).Msg("expired sessions cleaned up")
		}
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create base tables and add missing columns, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			// newApp migrates on open
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			a.Close()
			return nil
		},
	}
}

func newPruneSessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-sessions",
		Short: "Delete expired and orphaned sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.sessions.PruneExpired(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info().Int64("removed", n).Msg("expired sessions cleaned up")
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all registrations to a JSON backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			a.logger.Info().Str("path", output).Msg("exporting registrations")
			backup := service.NewBackupService(a.accountRepo, a.cfg.DatabaseType)
			if err := backup.Export(cmd.Context(), output); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if info, err := os.Stat(output); err == nil {
				a.logger.Info().Int64("bytes", info.Size()).Msg("export complete")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newRemindCommand() *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Email a payment reminder to an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.accounts.GetAccount(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := a.email.SendPaymentReminder(cmd.Context(), account); err != nil {
				return err
			}
			a.logger.Info().Int64("reg_id", id).Str("to", account.Email).Msg("payment reminder sent")
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "Registration ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
