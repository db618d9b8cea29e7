package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/auth"
	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/docstore"
	"bookstore/internal/httpx"
	"bookstore/internal/platform/crypto"
	"bookstore/internal/platform/logging"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	config.StoreFlags(serve.Flags())
	serve.Flags().String("addr", "", "listen address (env APP_ADDR)")

	root := &cobra.Command{
		Use:           "api",
		Short:         "Book catalog API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newHashPasswordCmd(), newTokenCmd())
	return root
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := crypto.ValidatePasswordStrength(args[0]); err != nil {
				return err
			}
			hash, err := crypto.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed operator token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			token, _, err := crypto.GenerateToken(cfg.JWTSecret, cfg.AdminUsername, crypto.RoleOperator, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("missing required environment variable: JWT_SECRET")
	}
	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeCfg := docstore.Config{URI: cfg.MongoURI, Database: cfg.Database, ConnectTimeout: cfg.ConnectTimeout}
	return docstore.With(ctx, storeCfg, logger, func(c *docstore.Client) error {
		set := metrics.NewSet()
		limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer limiter.Stop()

		srv := &server{
			cfg:     cfg,
			logger:  logger,
			books:   book.NewService(book.NewMongoRepo(c.Collection(cfg.Collection), cfg.OpTimeout), book.WithLogger(logger), book.WithMetrics(set)),
			auth:    auth.NewService(cfg.JWTSecret, cfg.AdminUsername, cfg.AdminPasswordHash, auth.DefaultTokenTTL),
			metrics: set,
			ping:    c.Ping,
			limiter: limiter,
		}
		if cfg.AdminPasswordHash == "" {
			logger.Warn("ADMIN_PASSWORD_HASH is empty; login is disabled")
		}

		httpServer := &http.Server{
			Addr:         cfg.Addr,
			Handler:      srv.routes(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", cfg.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("server error: %w", err)
			}
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
}
