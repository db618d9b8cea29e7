// Package docstore owns the MongoDB client lifecycle.
//
// A Client is created with Connect and must be released with Disconnect by the
// code that created it. With wraps both for short-lived commands.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	DefaultURI            = "mongodb://localhost:27017"
	DefaultDatabase       = "bookstore"
	DefaultConnectTimeout = 10 * time.Second
)

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DefaultConfig returns a Config pointing at a local server.
func DefaultConfig() Config {
	return Config{
		URI:            DefaultURI,
		Database:       DefaultDatabase,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

func (c *Config) validate() error {
	if c.URI == "" {
		return errors.New("docstore: URI is required")
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	return nil
}

// Client is a connected handle to one database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// Connect dials the server, verifies it with a ping and logs the visible
// databases. On failure no handle is returned and any partial connection is
// released.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.validate(); err != nil {
		return nil, &ConnectionError{URI: Redact(cfg.URI), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	mc, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, &ConnectionError{URI: Redact(cfg.URI), Err: err}
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, &ConnectionError{URI: Redact(cfg.URI), Err: err}
	}

	c := &Client{client: mc, db: mc.Database(cfg.Database), logger: logger}
	logger.Info("connected to document store", "uri", Redact(cfg.URI), "database", cfg.Database)
	c.logDatabases(ctx)
	return c, nil
}

// NewClient wraps an already connected driver client.
func NewClient(mc *mongo.Client, database string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{client: mc, db: mc.Database(database), logger: logger}
}

// logDatabases is diagnostic only; servers that deny listDatabases still work.
func (c *Client) logDatabases(ctx context.Context) {
	names, err := c.client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		c.logger.Warn("list databases failed", "error", err)
		return
	}
	c.logger.Info("available databases", "databases", strings.Join(names, ","))
}

// With connects, runs fn and disconnects whether or not fn succeeded.
func With(ctx context.Context, cfg Config, logger *slog.Logger, fn func(*Client) error) (err error) {
	c, err := Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if derr := c.Disconnect(dctx); derr != nil && err == nil {
			err = derr
		}
	}()
	return fn(c)
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return &OperationError{Op: "ping", Err: err}
	}
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		c.logger.Error("disconnect failed", "error", err)
		return &OperationError{Op: "disconnect", Err: err}
	}
	c.logger.Info("disconnected from document store")
	return nil
}

func (c *Client) Database() *mongo.Database { return c.db }

func (c *Client) Collection(name string) *mongo.Collection { return c.db.Collection(name) }

// ConnectionError reports that the store could not be reached.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("docstore: connect %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError wraps a failed store call. Err is the driver's error as-is.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("docstore: %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Redact hides the credentials of a connection string.
func Redact(uri string) string {
	const marker = "://"
	start := strings.Index(uri, marker)
	if start < 0 {
		return uri
	}
	start += len(marker)
	end := strings.Index(uri[start:], "@")
	if end < 0 {
		return uri
	}
	return uri[:start] + "***" + uri[start+end:]
}
