package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookstore/internal/query"

	"github.com/VictoriaMetrics/metrics"
)

// DefaultLimit applies when a ranking call is given a non-positive limit.
const DefaultLimit = 5

// TopRatedThreshold is the minimum rating for the top-rated and explained queries.
const TopRatedThreshold = 4.5

// Service provides the typed catalog operations over a Repository.
// Every failure is logged and returned to the caller unchanged.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	metrics *metrics.Set
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records operation counters and durations into set.
func WithMetrics(set *metrics.Set) Option {
	return func(s *Service) {
		if set != nil {
			s.metrics = set
		}
	}
}

// NewService creates a new book service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		logger:  slog.Default(),
		metrics: metrics.NewSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// track is deferred by every operation with a pointer to its named error result.
func (s *Service) track(ctx context.Context, op string, start time.Time, errp *error) {
	s.metrics.GetOrCreateCounter(fmt.Sprintf(`bookstore_operations_total{op=%q}`, op)).Inc()
	s.metrics.GetOrCreateSummary(fmt.Sprintf(`bookstore_operation_duration_seconds{op=%q}`, op)).UpdateDuration(start)

	err := *errp
	if err == nil {
		s.logger.DebugContext(ctx, "operation done", "op", op, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.metrics.GetOrCreateCounter(fmt.Sprintf(`bookstore_operation_errors_total{op=%q}`, op)).Inc()

	level := slog.LevelError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidBook) || errors.Is(err, ErrInvalidCursor) ||
		errors.Is(err, ErrInvalidPattern) || errors.Is(err, query.ErrInvalidDescriptor) {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "operation failed", "op", op, "error", err)
}

func (s *Service) find(ctx context.Context, f query.Filter) ([]Book, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, f)
}

func (s *Service) aggregate(ctx context.Context, p query.Pipeline, out any) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.Aggregate(ctx, p, out)
}

// InsertBook validates b and stores it, returning the hex id assigned by the store.
func (s *Service) InsertBook(ctx context.Context, b Book) (id string, err error) {
	defer s.track(ctx, "insertBook", time.Now(), &err)

	if err := b.Validate(); err != nil {
		return "", err
	}
	b.normalize()
	oid, err := s.repo.InsertOne(ctx, b)
	if err != nil {
		return "", err
	}
	return oid.Hex(), nil
}

// FindAllBooks returns every book in store order.
func (s *Service) FindAllBooks(ctx context.Context) (books []Book, err error) {
	defer s.track(ctx, "findAllBooks", time.Now(), &err)
	return s.find(ctx, query.All())
}

// MaxPageSize caps the limit accepted by ListBooks.
const MaxPageSize = 100

// Page is one slice of the catalog in insertion order.
type Page struct {
	Books      []Book `json:"books"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ListBooks returns up to limit books after cursor. NextCursor is empty on
// the last page.
func (s *Service) ListBooks(ctx context.Context, cursor string, limit int) (page Page, err error) {
	defer s.track(ctx, "listBooks", time.Now(), &err)

	after, err := DecodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}
	n := limitOrDefault(limit)
	if n > MaxPageSize {
		n = MaxPageSize
	}

	f := query.All()
	if !after.IsZero() {
		f = query.Gt("_id", after)
	}
	if err := f.Validate(); err != nil {
		return Page{}, err
	}
	books, err := s.repo.FindPage(ctx, f, n+1)
	if err != nil {
		return Page{}, err
	}
	if int64(len(books)) > n {
		books = books[:n]
		page.NextCursor = EncodeCursor(books[n-1].ID)
	}
	page.Books = books
	return page, nil
}

func (s *Service) FindBooksByAuthor(ctx context.Context, author string) (books []Book, err error) {
	defer s.track(ctx, "findBooksByAuthor", time.Now(), &err)
	return s.find(ctx, query.Eq("author", author))
}

// FindBooksByGenre returns books whose genre list contains genre.
func (s *Service) FindBooksByGenre(ctx context.Context, genre string) (books []Book, err error) {
	defer s.track(ctx, "findBooksByGenre", time.Now(), &err)
	return s.find(ctx, query.Eq("genre", genre))
}

func (s *Service) FindBooksByTag(ctx context.Context, tag string) (books []Book, err error) {
	defer s.track(ctx, "findBooksByTag", time.Now(), &err)
	return s.find(ctx, query.Eq("tags", tag))
}

// FindBookByTitle returns the first book with the exact title, or ErrNotFound.
func (s *Service) FindBookByTitle(ctx context.Context, title string) (b Book, err error) {
	defer s.track(ctx, "findBookByTitle", time.Now(), &err)

	f := query.Eq("title", title)
	if err := f.Validate(); err != nil {
		return Book{}, err
	}
	return s.repo.FindOne(ctx, f)
}

// UpdateBookPrice sets the price of the first book titled title. An unknown
// title is not an error; the result reports zero matches.
func (s *Service) UpdateBookPrice(ctx context.Context, title string, price float64) (res UpdateResult, err error) {
	defer s.track(ctx, "updateBookPrice", time.Now(), &err)

	if err := check(priceChange{Price: price}); err != nil {
		return UpdateResult{}, err
	}
	return s.updateOne(ctx, query.Eq("title", title), query.Set("price", price))
}

// AddBookReview appends r to the reviews of the first book titled title.
func (s *Service) AddBookReview(ctx context.Context, title string, r Review) (res UpdateResult, err error) {
	defer s.track(ctx, "addBookReview", time.Now(), &err)

	if err := r.Validate(); err != nil {
		return UpdateResult{}, err
	}
	return s.updateOne(ctx, query.Eq("title", title), query.Push("reviews", r))
}

func (s *Service) updateOne(ctx context.Context, f query.Filter, u query.Update) (UpdateResult, error) {
	if err := f.Validate(); err != nil {
		return UpdateResult{}, err
	}
	if err := u.Validate(); err != nil {
		return UpdateResult{}, err
	}
	return s.repo.UpdateOne(ctx, f, u)
}

// DeleteBook removes every book titled title and returns how many were removed.
func (s *Service) DeleteBook(ctx context.Context, title string) (n int64, err error) {
	defer s.track(ctx, "deleteBook", time.Now(), &err)

	f := query.Eq("title", title)
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return s.repo.DeleteMany(ctx, f)
}

// FindBooksPublishedAfter returns books published strictly after year.
func (s *Service) FindBooksPublishedAfter(ctx context.Context, year int) (books []Book, err error) {
	defer s.track(ctx, "findBooksPublishedAfter", time.Now(), &err)
	return s.find(ctx, query.Gt("published_year", year))
}

// FindBooksByPriceRange returns books priced within [min, max]. An inverted
// range yields no books.
func (s *Service) FindBooksByPriceRange(ctx context.Context, min, max float64) (books []Book, err error) {
	defer s.track(ctx, "findBooksByPriceRange", time.Now(), &err)
	return s.find(ctx, query.Range("price", min, max))
}

func (s *Service) FindClassicFantasyBooks(ctx context.Context) (books []Book, err error) {
	defer s.track(ctx, "findClassicFantasyBooks", time.Now(), &err)
	return s.find(ctx, query.And(query.Eq("genre", "Classic"), query.Eq("genre", "Fantasy")))
}

// FindBooksByRatingOrPages returns books rated at least rating or having at most pages pages.
func (s *Service) FindBooksByRatingOrPages(ctx context.Context, rating float64, pages int) (books []Book, err error) {
	defer s.track(ctx, "findBooksByRatingOrPages", time.Now(), &err)
	return s.find(ctx, query.Or(query.Gte("rating", rating), query.Lte("pages", pages)))
}

func (s *Service) FindBooksWithMultipleGenres(ctx context.Context, n int) (books []Book, err error) {
	defer s.track(ctx, "findBooksWithMultipleGenres", time.Now(), &err)
	return s.find(ctx, query.SizeAtLeast("genre", n))
}

// FindBooksByTitlePattern matches titles against a case-insensitive regular expression.
func (s *Service) FindBooksByTitlePattern(ctx context.Context, pattern string) (books []Book, err error) {
	defer s.track(ctx, "findBooksByTitlePattern", time.Now(), &err)
	return s.find(ctx, query.Regex("title", pattern, true))
}

// GetBooksCountByGenre counts books per genre, most common first. A book
// with several genres counts once for each.
func (s *Service) GetBooksCountByGenre(ctx context.Context) (rows []GenreCount, err error) {
	defer s.track(ctx, "getBooksCountByGenre", time.Now(), &err)

	p := query.Pipeline{
		query.Unwind{Path: "genre"},
		query.Group{By: "genre", Accumulators: []query.Accumulator{
			query.Count("count"),
			query.Avg("averageRating", "rating"),
		}},
		query.Sort{Keys: []query.SortKey{query.Desc("count")}},
	}
	rows = []GenreCount{}
	if err := s.aggregate(ctx, p, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetBookStatistics summarizes the collection. On an empty collection every
// field of the result is zero.
func (s *Service) GetBookStatistics(ctx context.Context) (stats Statistics, err error) {
	defer s.track(ctx, "getBookStatistics", time.Now(), &err)

	p := query.Pipeline{
		query.Group{Accumulators: []query.Accumulator{
			query.Count("totalBooks"),
			query.Avg("averageRating", "rating"),
			query.Avg("averagePrice", "price"),
			query.Avg("averagePages", "pages"),
			query.Max("maxPrice", "price"),
			query.Min("minPrice", "price"),
		}},
	}
	var rows []Statistics
	if err := s.aggregate(ctx, p, &rows); err != nil {
		return Statistics{}, err
	}
	if len(rows) == 0 {
		return Statistics{}, nil
	}
	return rows[0], nil
}

// GetPopularAuthors ranks authors by average rating, then by book count.
func (s *Service) GetPopularAuthors(ctx context.Context, limit int) (rows []AuthorPopularity, err error) {
	defer s.track(ctx, "getPopularAuthors", time.Now(), &err)

	p := query.Pipeline{
		query.Group{By: "author", Accumulators: []query.Accumulator{
			query.Count("bookCount"),
			query.Avg("averageRating", "rating"),
			query.SumSize("totalReviews", "reviews"),
		}},
		query.Sort{Keys: []query.SortKey{query.Desc("averageRating"), query.Desc("bookCount")}},
		query.Limit{N: limitOrDefault(limit)},
	}
	rows = []AuthorPopularity{}
	if err := s.aggregate(ctx, p, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopRatedInStockBooks returns in-stock books rated at least
// TopRatedThreshold, best first.
func (s *Service) GetTopRatedInStockBooks(ctx context.Context, limit int) (rows []BookSummary, err error) {
	defer s.track(ctx, "getTopRatedInStockBooks", time.Now(), &err)

	p := query.Pipeline{
		query.Match{Filter: topRatedInStock()},
		query.Sort{Keys: []query.SortKey{query.Desc("rating")}},
		query.Limit{N: limitOrDefault(limit)},
		query.Project{Fields: []string{"title", "author", "rating", "price", "genre"}},
	}
	rows = []BookSummary{}
	if err := s.aggregate(ctx, p, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func topRatedInStock() query.Filter {
	return query.And(query.Eq("in_stock", true), query.Gte("rating", TopRatedThreshold))
}

func limitOrDefault(limit int) int64 {
	if limit <= 0 {
		return DefaultLimit
	}
	return int64(limit)
}

// QueryIndexes are the secondary indexes that serve the query operations.
var QueryIndexes = []query.Index{
	{Keys: []query.IndexKey{{Field: "author"}, {Field: "published_year", Order: query.Descending}}},
	{Keys: []query.IndexKey{{Field: "title", Order: query.Text}, {Field: "tags", Order: query.Text}}},
	{Keys: []query.IndexKey{{Field: "price"}}},
	{Keys: []query.IndexKey{{Field: "rating", Order: query.Descending}}},
}

// TitleIndex keeps titles unique. Its build fails while duplicate titles
// exist, so it is created apart from QueryIndexes.
var TitleIndex = query.Index{Keys: []query.IndexKey{{Field: "title"}}, Unique: true}

// SeedIndexes are created after loading the sample data.
var SeedIndexes = []query.Index{
	{Keys: []query.IndexKey{{Field: "title"}}, Unique: true},
	{Keys: []query.IndexKey{{Field: "author"}}},
	{Keys: []query.IndexKey{{Field: "genre"}}},
	{Keys: []query.IndexKey{{Field: "published_year", Order: query.Descending}}},
}

// CreateIndexes creates QueryIndexes, then TitleIndex, and returns the names
// of those built. Creating an index that already exists with the same options
// is a no-op. A failed TitleIndex build is logged and does not fail the call.
func (s *Service) CreateIndexes(ctx context.Context) (names []string, err error) {
	defer s.track(ctx, "createIndexes", time.Now(), &err)

	names, err = s.createIndexes(ctx, QueryIndexes)
	if err != nil {
		return nil, err
	}
	title, terr := s.createIndexes(ctx, []query.Index{TitleIndex})
	if terr != nil {
		s.logger.WarnContext(ctx, "unique title index not built", "err", terr)
		return names, nil
	}
	return append(names, title...), nil
}

func (s *Service) createIndexes(ctx context.Context, indexes []query.Index) ([]string, error) {
	for i, ix := range indexes {
		if err := ix.Validate(); err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
	}
	return s.repo.CreateIndexes(ctx, indexes)
}

// ExplainQuery reports the plan chosen for the top-rated in-stock filter.
func (s *Service) ExplainQuery(ctx context.Context) (plan Plan, err error) {
	defer s.track(ctx, "explainQuery", time.Now(), &err)

	f := query.And(query.Gte("rating", TopRatedThreshold), query.Eq("in_stock", true))
	if err := f.Validate(); err != nil {
		return Plan{}, err
	}
	plan, err = s.repo.Explain(ctx, f)
	if err != nil {
		return Plan{}, err
	}
	s.logger.InfoContext(ctx, "query plan", "namespace", plan.Namespace, "winning_plan", plan.WinningPlan)
	return plan, nil
}

// Seed replaces the collection with books and creates SeedIndexes. Every
// book is validated before the collection is dropped.
func (s *Service) Seed(ctx context.Context, books []Book) (ids []string, err error) {
	defer s.track(ctx, "seed", time.Now(), &err)

	books = append([]Book(nil), books...)
	for i := range books {
		if err := books[i].Validate(); err != nil {
			return nil, fmt.Errorf("book %d: %w", i, err)
		}
		books[i].normalize()
	}
	if err := s.repo.Drop(ctx); err != nil {
		return nil, err
	}
	if len(books) > 0 {
		oids, err := s.repo.InsertMany(ctx, books)
		if err != nil {
			return nil, err
		}
		ids = make([]string, 0, len(oids))
		for _, oid := range oids {
			ids = append(ids, oid.Hex())
		}
	}
	if _, err := s.createIndexes(ctx, SeedIndexes); err != nil {
		return ids, err
	}
	return ids, nil
}
