package book

import (
	"context"

	"bookstore/internal/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book document storage. Descriptors are
// validated by the caller before they reach an implementation.
type Repository interface {
	InsertOne(ctx context.Context, b Book) (primitive.ObjectID, error)
	InsertMany(ctx context.Context, books []Book) ([]primitive.ObjectID, error)
	Find(ctx context.Context, f query.Filter) ([]Book, error)
	// FindPage returns at most limit matches in ascending _id order.
	FindPage(ctx context.Context, f query.Filter, limit int64) ([]Book, error)
	FindOne(ctx context.Context, f query.Filter) (Book, error)
	UpdateOne(ctx context.Context, f query.Filter, u query.Update) (UpdateResult, error)
	DeleteMany(ctx context.Context, f query.Filter) (int64, error)
	// Aggregate runs p and decodes every result document into out, which must
	// be a pointer to a slice.
	Aggregate(ctx context.Context, p query.Pipeline, out any) error
	CreateIndexes(ctx context.Context, indexes []query.Index) ([]string, error)
	Explain(ctx context.Context, f query.Filter) (Plan, error)
	Drop(ctx context.Context) error
}
