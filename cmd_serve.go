package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"PONTO-backend/internal/assistant"
	"PONTO-backend/internal/platform/auth"
	"PONTO-backend/internal/platform/db"
	"PONTO-backend/internal/presence"
)

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLog.Info("startup", slog.String("mode", cfg.Mode), slog.String("version", cfg.Version))

	conn, dialect, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	a, err := buildApp(ctx, conn, dialect)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(a),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.Server.Cert != "" && cfg.Server.Key != "" {
			appLog.Info("listening", slog.String("addr", "https://"+srv.Addr))
			err = srv.ListenAndServeTLS(cfg.Server.Cert, cfg.Server.Key)
		} else {
			appLog.Info("listening", slog.String("addr", "http://"+srv.Addr))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openDB(ctx context.Context) (*sql.DB, db.Dialect, error) {
	conn, dialect, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, db.Dialect{}, err
	}
	appLog.Info("db.connected", slog.String("driver", dialect.Name))

	if cfg.DB.AutoMigrate {
		n, err := db.Migrate(ctx, conn, dialect)
		if err != nil {
			conn.Close()
			return nil, db.Dialect{}, err
		}
		appLog.Info("db.migrated", slog.Int("applied", n))
	}
	return conn, dialect, nil
}

// buildApp wires services for the router. The assistant is left out when no
// inference key is configured.
func buildApp(ctx context.Context, conn *sql.DB, dialect db.Dialect) (*app, error) {
	loc := cfg.Location()

	cache, err := presence.NewMonthCache(cfg.App.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("month cache: %w", err)
	}
	appLog.Info("month cache", slog.Int("size", cfg.App.CacheSize), slog.Bool("enabled", cache != nil))
	presenceSvc := presence.NewService(
		presence.NewStore(conn, dialect, loc),
		cache,
		loc,
		presence.WithLogger(appLog.With(slog.String("component", "presence"))),
	)

	a := &app{
		cfg:      cfg,
		log:      appLog,
		conn:     conn,
		presence: presenceSvc,
		auth:     auth.NewService(conn, dialect, cfg.Auth),
	}

	if cfg.App.WebDir != "" {
		if _, err := os.Stat(cfg.App.WebDir); err != nil {
			return nil, fmt.Errorf("app.web_dir: %w", err)
		}
		a.web = os.DirFS(cfg.App.WebDir)
	}

	if cfg.Assistant.APIKey == "" {
		appLog.Warn("assistant disabled: no api key configured")
		return a, nil
	}
	model, err := assistant.NewGemini(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model, cfg.Assistant.Temperature)
	if err != nil {
		return nil, err
	}
	chatLog := appLog.With(slog.String("component", "assistant"))
	a.chat = assistant.NewOrchestrator(
		model,
		assistant.NewRegistry(presenceSvc),
		assistant.NewPromptSource(cfg.Assistant.PromptPath, chatLog),
		assistant.Options{
			MaxToolRounds: cfg.Assistant.MaxToolRounds,
			MaxDuration:   cfg.Assistant.MaxDuration,
		},
		chatLog,
	)
	return a, nil
}
