package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/docstore"
	"bookstore/internal/platform/logging"

	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Replace the books collection with the sample catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	config.StoreFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	storeCfg := docstore.Config{URI: cfg.MongoURI, Database: cfg.Database, ConnectTimeout: cfg.ConnectTimeout}
	return docstore.With(ctx, storeCfg, logger, func(c *docstore.Client) error {
		repo := book.NewMongoRepo(c.Collection(cfg.Collection), cfg.OpTimeout)
		svc := book.NewService(repo, book.WithLogger(logger))

		samples := book.SampleBooks()
		logger.Info("seeding collection", "collection", cfg.Collection, "books", len(samples))

		ids, err := svc.Seed(ctx, samples)
		if err != nil {
			return err
		}
		logger.Info("seed complete",
			slog.Int("inserted", len(ids)),
			slog.Int("indexes", len(book.SeedIndexes)),
		)
		return nil
	})
}
