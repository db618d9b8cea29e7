package main

import (
	"context"
	"fmt"
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
		Use:           "demo",
		Short:         "Run every catalog operation once against a seeded store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	config.StoreFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
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

		if failed := runSteps(ctx, cmd.OutOrStdout(), demoSteps(svc)); failed > 0 {
			return fmt.Errorf("%d step(s) failed", failed)
		}
		return nil
	})
}
