package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/erazemk/rincon/internal/api"
	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/db"
	"github.com/erazemk/rincon/internal/web"
)

func (c *cli) serveCommand() *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built site, the JSON API and the admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Serve.Addr = addr
			}
			if dbPath != "" {
				c.cfg.Serve.DB = dbPath
			}
			if err := c.validate(); err != nil {
				return err
			}
			return c.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	cmd.Flags().StringVarP(&dbPath, "db", "d", "", "SQLite database for the export history")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	cfg := c.cfg

	// A failed load still serves: the API reports the failure and the admin
	// starts from an empty catalog.
	books, err := catalog.Load(ctx, c.httpClient(), cfg.Catalog.Source)
	loadErr := err
	if loadErr != nil {
		slog.Error("failed to load catalog", "source", cfg.Catalog.Source, "error", loadErr)
	} else {
		slog.Info("catalog loaded", "source", cfg.Catalog.Source, "books", books.Len())
	}

	database, err := db.OpenWithSchema(cfg.Serve.DB)
	if err != nil {
		return fmt.Errorf("opening export database: %w", err)
	}
	defer database.Close()
	slog.Info("database ready", "path", cfg.Serve.DB)

	opts := c.viewOptions()
	booksHandler, err := api.NewBooksHandler(books, loadErr, opts)
	if err != nil {
		return err
	}

	adminRouter, err := web.NewRouter(web.Options{
		DB:             database,
		Editor:         catalog.NewEditor(books.Clone()),
		ImagesDir:      cfg.Build.ImagesDir,
		Prices:         opts.Prices,
		Prefix:         web.DefaultPrefix,
		SessionKey:     cfg.SessionKeyBytes(),
		CSRFKey:        cfg.CSRFKeyBytes(),
		Secure:         cfg.Serve.Secure,
		TrustedOrigins: trustedOrigins(cfg.Serve.Addr),
	})
	if err != nil {
		return fmt.Errorf("setting up admin router: %w", err)
	}

	if _, err := os.Stat(cfg.Build.OutputDir); errors.Is(err, os.ErrNotExist) {
		slog.Warn("output directory missing, run build first", "dir", cfg.Build.OutputDir)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.LoggingMiddleware)
	r.Mount("/api", api.NewRouter(booksHandler))
	r.Mount(web.DefaultPrefix, adminRouter)
	r.Handle("/*", http.FileServer(http.Dir(cfg.Build.OutputDir)))

	server := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Serve.Addr, "site", cfg.Build.OutputDir)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// trustedOrigins lists the local origins allowed to post admin forms.
func trustedOrigins(addr string) []string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return []string{"localhost", "127.0.0.1"}
	}
	return []string{"localhost:" + port, "127.0.0.1:" + port, "localhost", "127.0.0.1"}
}
