package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"bookstore/internal/book"
	"bookstore/internal/docstore"
	"bookstore/internal/query"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRunSteps_ContinuesAfterFailure(t *testing.T) {
	var out bytes.Buffer
	steps := []step{
		{"A", "first", func(context.Context) (string, error) { return "ok", nil }},
		{"A", "second", func(context.Context) (string, error) { return "", errors.New("boom") }},
		{"B", "third", func(context.Context) (string, error) { return "fine", nil }},
	}

	failed := runSteps(context.Background(), &out, steps)

	assert.Equal(t, 1, failed)
	s := out.String()
	assert.Contains(t, s, "=== A ===")
	assert.Contains(t, s, "=== B ===")
	assert.Contains(t, s, "FAIL second")
	assert.Contains(t, s, "PASS third")
	assert.True(t, strings.HasSuffix(s, "2/3 steps passed\n"))
}

func TestDemoSteps(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := book.NewMockRepository(ctrl)
	svc := book.NewService(repo)

	repo.EXPECT().InsertOne(gomock.Any(), gomock.Any()).Return(primitive.NewObjectID(), nil)
	repo.EXPECT().Find(gomock.Any(), gomock.Any()).Return([]book.Book{{Title: "The Hobbit"}}, nil).Times(4)
	repo.EXPECT().UpdateOne(gomock.Any(), gomock.Any(), gomock.Any()).Return(book.UpdateResult{Matched: 1, Modified: 1}, nil).Times(2)
	repo.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
	repo.EXPECT().CreateIndexes(gomock.Any(), book.QueryIndexes).Return([]string{"price_1"}, nil)
	repo.EXPECT().CreateIndexes(gomock.Any(), []query.Index{book.TitleIndex}).Return([]string{"title_1"}, nil)
	repo.EXPECT().Explain(gomock.Any(), gomock.Any()).
		Return(book.Plan{}, &docstore.OperationError{Op: "find", Err: errors.New("explain unsupported")})

	var out bytes.Buffer
	failed := runSteps(context.Background(), &out, demoSteps(svc))

	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "FAIL explain top-rated filter")
	assert.Contains(t, out.String(), "11/12 steps passed")
}
