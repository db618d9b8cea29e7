//go:build e2e

package book

import (
	"context"
	"os"
	"testing"
	"time"

	"bookstore/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newE2EService seeds a scratch database on the server at MONGO_URI and drops
// it when the test ends.
func newE2EService(t *testing.T) *Service {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = docstore.DefaultURI
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := docstore.Connect(ctx, docstore.Config{URI: uri, Database: "bookstore_e2e"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Database().Drop(context.Background())
		_ = c.Disconnect(context.Background())
	})

	svc := NewService(NewMongoRepo(c.Collection("books"), 5*time.Second))
	ids, err := svc.Seed(ctx, SampleBooks())
	require.NoError(t, err)
	require.Len(t, ids, 10)
	return svc
}

func TestE2E_Scenario(t *testing.T) {
	svc := newE2EService(t)
	ctx := context.Background()

	tolkien, err := svc.FindBooksByAuthor(ctx, "J.R.R. Tolkien")
	require.NoError(t, err)
	titles := []string{}
	for _, b := range tolkien {
		titles = append(titles, b.Title)
	}
	assert.ElementsMatch(t, []string{"The Hobbit", "The Lord of the Rings"}, titles)

	res, err := svc.UpdateBookPrice(ctx, "The Great Gatsby", 13.50)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 1}, res)
	gatsby, err := svc.FindBookByTitle(ctx, "The Great Gatsby")
	require.NoError(t, err)
	assert.Equal(t, 13.50, gatsby.Price)

	n, err := svc.DeleteBook(ctx, "1984")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	all, err := svc.FindAllBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 9)
}

func TestE2E_CRUD(t *testing.T) {
	svc := newE2EService(t)
	ctx := context.Background()

	b := Book{
		Title: "Test Book", Author: "Test Author", Genre: []string{"Test", "Fiction"},
		PublishedYear: 2023, Publisher: "Test Publisher", Pages: 100, Price: 9.99, Rating: 4.0,
		InStock: true, Tags: []string{"test"},
	}
	id, err := svc.InsertBook(ctx, b)
	require.NoError(t, err)
	assert.Len(t, id, 24)

	_, err = svc.InsertBook(ctx, b)
	assert.ErrorIs(t, err, ErrDuplicateTitle)

	_, err = svc.UpdateBookPrice(ctx, "Test Book", 12.99)
	require.NoError(t, err)
	found, err := svc.FindBooksByAuthor(ctx, "Test Author")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 12.99, found[0].Price)

	_, err = svc.AddBookReview(ctx, "Test Book", Review{User: "tester", Comment: "ok", Rating: 3})
	require.NoError(t, err)
	reviewed, err := svc.FindBookByTitle(ctx, "Test Book")
	require.NoError(t, err)
	assert.Equal(t, []Review{{User: "tester", Comment: "ok", Rating: 3}}, reviewed.Reviews)

	before, err := svc.FindBookByTitle(ctx, "1984")
	require.NoError(t, err)
	require.Len(t, before.Reviews, 2)
	added := Review{User: "new_reader", Comment: "Still relevant today", Rating: 5}
	_, err = svc.AddBookReview(ctx, "1984", added)
	require.NoError(t, err)
	after, err := svc.FindBookByTitle(ctx, "1984")
	require.NoError(t, err)
	require.Len(t, after.Reviews, 3)
	assert.Equal(t, before.Reviews, after.Reviews[:2])
	assert.Equal(t, added, after.Reviews[2])

	_, err = svc.DeleteBook(ctx, "Test Book")
	require.NoError(t, err)
	_, err = svc.FindBookByTitle(ctx, "Test Book")
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := svc.UpdateBookPrice(ctx, "Nonexistent", 1)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{}, res)
}

func TestE2E_Queries(t *testing.T) {
	svc := newE2EService(t)
	ctx := context.Background()

	count := func(books []Book, err error) int {
		require.NoError(t, err)
		return len(books)
	}

	assert.Equal(t, 5, count(svc.FindBooksByPriceRange(ctx, 10, 15)))
	assert.Equal(t, 0, count(svc.FindBooksByPriceRange(ctx, 15, 10)))

	bounded, err := svc.FindBooksByPriceRange(ctx, 12.99, 14.99)
	require.NoError(t, err)
	boundedTitles := []string{}
	for _, b := range bounded {
		boundedTitles = append(boundedTitles, b.Title)
	}
	assert.ElementsMatch(t, []string{"The Great Gatsby", "Brave New World", "To Kill a Mockingbird"}, boundedTitles)

	assert.Equal(t, 3, count(svc.FindBooksByGenre(ctx, "Fantasy")))
	assert.Equal(t, 0, count(svc.FindClassicFantasyBooks(ctx)))
	assert.Equal(t, 5, count(svc.FindBooksByTitlePattern(ctx, "the")))
	assert.Equal(t, 1, count(svc.FindBooksByTitlePattern(ctx, "Harry")))
	assert.Equal(t, 5, count(svc.FindBooksWithMultipleGenres(ctx, 3)))
	assert.Equal(t, 2, count(svc.FindBooksByTag(ctx, "middle-earth")))
	assert.Equal(t, 0, count(svc.FindBooksByTag(ctx, "none")))

	recent, err := svc.FindBooksPublishedAfter(ctx, 1950)
	require.NoError(t, err)
	for _, b := range recent {
		assert.Greater(t, b.PublishedYear, 1950)
	}

	either, err := svc.FindBooksByRatingOrPages(ctx, 4.9, 220)
	require.NoError(t, err)
	for _, b := range either {
		assert.True(t, b.Rating >= 4.9 || b.Pages <= 220, b.Title)
	}
}

func TestE2E_Aggregations(t *testing.T) {
	svc := newE2EService(t)
	ctx := context.Background()

	genres, err := svc.GetBooksCountByGenre(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, genres)
	assert.Equal(t, GenreCount{Genre: "Fiction", Count: 7}, GenreCount{Genre: genres[0].Genre, Count: genres[0].Count})

	ratings := map[string][]float64{}
	for _, b := range SampleBooks() {
		for _, g := range b.Genre {
			ratings[g] = append(ratings[g], b.Rating)
		}
	}
	require.Len(t, genres, len(ratings))
	total := 0
	for i, g := range genres {
		total += g.Count
		if i > 0 {
			assert.LessOrEqual(t, g.Count, genres[i-1].Count)
		}
		rs := ratings[g.Genre]
		require.Len(t, rs, g.Count, g.Genre)
		sum := 0.0
		for _, r := range rs {
			sum += r
		}
		assert.InDelta(t, sum/float64(len(rs)), g.AverageRating, 1e-9, g.Genre)
	}
	assert.GreaterOrEqual(t, total, 10)

	stats, err := svc.GetBookStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalBooks)
	assert.Equal(t, 29.99, stats.MaxPrice)
	assert.Equal(t, 9.99, stats.MinPrice)

	authors, err := svc.GetPopularAuthors(ctx, 3)
	require.NoError(t, err)
	require.Len(t, authors, 3)
	assert.Equal(t, "J.R.R. Tolkien", authors[0].Author)
	assert.Equal(t, 2, authors[0].BookCount)
	assert.Equal(t, 4, authors[0].TotalReviews)

	ranked, err := svc.GetPopularAuthors(ctx, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 9)
	for i := 1; i < len(ranked); i++ {
		prev, cur := ranked[i-1], ranked[i]
		require.GreaterOrEqual(t, prev.AverageRating, cur.AverageRating, cur.Author)
		if prev.AverageRating == cur.AverageRating {
			assert.GreaterOrEqual(t, prev.BookCount, cur.BookCount, cur.Author)
		}
	}

	top, err := svc.GetTopRatedInStockBooks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, DefaultLimit)
	assert.Equal(t, "The Lord of the Rings", top[0].Title)
}

func TestE2E_IndexesAndExplain(t *testing.T) {
	svc := newE2EService(t)
	ctx := context.Background()

	names, err := svc.CreateIndexes(ctx)
	require.NoError(t, err)
	assert.Len(t, names, len(QueryIndexes)+1)

	again, err := svc.CreateIndexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, names, again)

	plan, err := svc.ExplainQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bookstore_e2e.books", plan.Namespace)
	assert.NotEmpty(t, plan.WinningPlan)
}
