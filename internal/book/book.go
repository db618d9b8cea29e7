package book

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateTitle is returned when the unique title index rejects a write.
	ErrDuplicateTitle = errors.New("book title already exists")
	// ErrInvalidBook wraps ValidationErrors for a book or review that breaks a field rule.
	ErrInvalidBook = errors.New("invalid book")
	// ErrInvalidPattern is returned when the store rejects a title regex.
	ErrInvalidPattern = errors.New("invalid title pattern")
)

// Book represents a catalog entry.
type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title" validate:"required"`
	Author        string             `bson:"author" json:"author" validate:"required"`
	Genre         []string           `bson:"genre" json:"genre"`
	PublishedYear int                `bson:"published_year" json:"published_year"`
	Publisher     string             `bson:"publisher" json:"publisher"`
	Pages         int                `bson:"pages" json:"pages" validate:"gt=0"`
	Price         float64            `bson:"price" json:"price" validate:"gte=0"`
	Rating        float64            `bson:"rating" json:"rating" validate:"gte=0,lte=5"`
	Reviews       []Review           `bson:"reviews" json:"reviews" validate:"dive"`
	InStock       bool               `bson:"in_stock" json:"in_stock"`
	Tags          []string           `bson:"tags" json:"tags"`
}

type Review struct {
	User    string  `bson:"user" json:"user" validate:"required"`
	Comment string  `bson:"comment" json:"comment"`
	Rating  float64 `bson:"rating" json:"rating" validate:"gte=0,lte=5"`
}

// normalize prepares b for insertion. The store assigns _id, and nil slices
// become empty so stored arrays are never null; $push refuses to append to a
// null field.
func (b *Book) normalize() {
	b.ID = primitive.NilObjectID
	if b.Genre == nil {
		b.Genre = []string{}
	}
	if b.Reviews == nil {
		b.Reviews = []Review{}
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
}

// HasGenre reports whether g is one of the book's genres.
func (b Book) HasGenre(g string) bool {
	for _, v := range b.Genre {
		if v == g {
			return true
		}
	}
	return false
}

// GenreCount is one row of the per-genre aggregation.
type GenreCount struct {
	Genre         string  `bson:"_id" json:"genre"`
	Count         int     `bson:"count" json:"count"`
	AverageRating float64 `bson:"averageRating" json:"average_rating"`
}

// Statistics summarizes the whole collection. All fields are zero when the
// collection is empty.
type Statistics struct {
	TotalBooks    int     `bson:"totalBooks" json:"total_books"`
	AverageRating float64 `bson:"averageRating" json:"average_rating"`
	AveragePrice  float64 `bson:"averagePrice" json:"average_price"`
	AveragePages  float64 `bson:"averagePages" json:"average_pages"`
	MaxPrice      float64 `bson:"maxPrice" json:"max_price"`
	MinPrice      float64 `bson:"minPrice" json:"min_price"`
}

type AuthorPopularity struct {
	Author        string  `bson:"_id" json:"author"`
	BookCount     int     `bson:"bookCount" json:"book_count"`
	AverageRating float64 `bson:"averageRating" json:"average_rating"`
	TotalReviews  int     `bson:"totalReviews" json:"total_reviews"`
}

// BookSummary is the projected row returned for top-rated books.
type BookSummary struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title  string             `bson:"title" json:"title"`
	Author string             `bson:"author" json:"author"`
	Rating float64            `bson:"rating" json:"rating"`
	Price  float64            `bson:"price" json:"price"`
	Genre  []string           `bson:"genre" json:"genre"`
}

// UpdateResult carries the counts reported by the store for a single-document update.
type UpdateResult struct {
	Matched  int64 `json:"matched_count"`
	Modified int64 `json:"modified_count"`
}

// Plan is the query planner's answer for an explained find.
type Plan struct {
	Namespace    string         `json:"namespace"`
	WinningPlan  map[string]any `json:"winning_plan"`
	QueryPlanner map[string]any `json:"query_planner"`
}
