package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookstore/internal/docstore"
	"bookstore/internal/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(coll *mongo.Collection, timeout time.Duration) *MongoRepo {
	return &MongoRepo{coll: coll, timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// wrap maps driver errors onto the package sentinels and keeps the driver
// cause reachable through OperationError.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", ErrDuplicateTitle, &docstore.OperationError{Op: op, Err: err})
	case isRegexError(err):
		return fmt.Errorf("%w: %w", ErrInvalidPattern, &docstore.OperationError{Op: op, Err: err})
	default:
		return &docstore.OperationError{Op: op, Err: err}
	}
}

// errRegexInvalid is the server code for an unparsable $regex.
const errRegexInvalid = 51091

func isRegexError(err error) bool {
	var ce mongo.CommandError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == errRegexInvalid ||
		(ce.Code == 2 && strings.Contains(ce.Message, "Regular expression is invalid"))
}

func (r *MongoRepo) InsertOne(ctx context.Context, b Book) (primitive.ObjectID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, b)
	if err != nil {
		return primitive.NilObjectID, wrap("insertOne", err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (r *MongoRepo) InsertMany(ctx context.Context, books []Book) ([]primitive.ObjectID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	docs := make([]any, len(books))
	for i := range books {
		docs[i] = books[i]
	}
	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return nil, wrap("insertMany", err)
	}
	ids := make([]primitive.ObjectID, 0, len(res.InsertedIDs))
	for _, v := range res.InsertedIDs {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MongoRepo) Find(ctx context.Context, f query.Filter) ([]Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cur, err := r.coll.Find(ctx, f.BSON())
	if err != nil {
		return nil, wrap("find", err)
	}
	defer cur.Close(ctx)

	books := []Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, wrap("find", err)
	}
	return books, nil
}

func (r *MongoRepo) FindPage(ctx context.Context, f query.Filter, limit int64) ([]Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, f.BSON(), opts)
	if err != nil {
		return nil, wrap("find", err)
	}
	defer cur.Close(ctx)

	books := []Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, wrap("find", err)
	}
	return books, nil
}

func (r *MongoRepo) FindOne(ctx context.Context, f query.Filter) (Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b Book
	if err := r.coll.FindOne(ctx, f.BSON()).Decode(&b); err != nil {
		return Book{}, wrap("findOne", err)
	}
	return b, nil
}

func (r *MongoRepo) UpdateOne(ctx context.Context, f query.Filter, u query.Update) (UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, f.BSON(), u.BSON())
	if err != nil {
		return UpdateResult{}, wrap("updateOne", err)
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (r *MongoRepo) DeleteMany(ctx context.Context, f query.Filter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, f.BSON())
	if err != nil {
		return 0, wrap("deleteMany", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepo) Aggregate(ctx context.Context, p query.Pipeline, out any) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, p.BSON())
	if err != nil {
		return wrap("aggregate", err)
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, out); err != nil {
		return wrap("aggregate", err)
	}
	return nil
}

func (r *MongoRepo) CreateIndexes(ctx context.Context, indexes []query.Index) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, ix := range indexes {
		opts := options.Index()
		if ix.Name != "" {
			opts.SetName(ix.Name)
		}
		if ix.Unique {
			opts.SetUnique(true)
		}
		models = append(models, mongo.IndexModel{Keys: ix.KeysBSON(), Options: opts})
	}
	names, err := r.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return nil, wrap("createIndexes", err)
	}
	return names, nil
}

// Explain asks the planner how a find with f would run, without running it.
func (r *MongoRepo) Explain(ctx context.Context, f query.Filter) (Plan, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "find", Value: r.coll.Name()},
			{Key: "filter", Value: f.BSON()},
		}},
		{Key: "verbosity", Value: "queryPlanner"},
	}
	var res struct {
		QueryPlanner bson.M `bson:"queryPlanner"`
	}
	if err := r.coll.Database().RunCommand(ctx, cmd).Decode(&res); err != nil {
		return Plan{}, wrap("explain", err)
	}

	plan := Plan{QueryPlanner: res.QueryPlanner}
	if ns, ok := res.QueryPlanner["namespace"].(string); ok {
		plan.Namespace = ns
	}
	switch wp := res.QueryPlanner["winningPlan"].(type) {
	case bson.M:
		plan.WinningPlan = wp
	case bson.D:
		plan.WinningPlan = wp.Map()
	}
	return plan, nil
}

// Drop removes the collection. Dropping a missing collection is not an error.
func (r *MongoRepo) Drop(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return wrap("drop", r.coll.Drop(ctx))
}
