package book

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookstore/internal/docstore"
	"bookstore/internal/httpx"
	"bookstore/internal/query"
	"bookstore/internal/testutil"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestRouter(t *testing.T) (*mux.Router, *MockRepository) {
	t.Helper()
	svc, repo, _, _ := newTestService(t)
	r := mux.NewRouter()
	NewHTTPHandler(svc).RegisterRoutes(r, httpx.AuthMiddleware(testutil.TestSecret))
	return r, repo
}

func serve(r http.Handler, req *http.Request) testutil.RecordResponse {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return testutil.RecordHTTPResponse(w)
}

func authed(method, path string, body interface{}) *http.Request {
	return testutil.NewRequestWithAuth(method, path, body, testutil.OperatorToken(testutil.TestSecret, "admin"))
}

func TestHTTPHandler_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().Find(gomock.Any(), query.All()).Return([]Book{testBook(), testBook()}, nil)

		res := serve(r, testutil.NewRequest(http.MethodGet, "/books", nil))
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Len(t, res.Data(), 2)
		assert.EqualValues(t, 2, res.Body["meta"].(map[string]interface{})["count"])
	})

	t.Run("store failure", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().Find(gomock.Any(), gomock.Any()).
			Return(nil, &docstore.OperationError{Op: "find", Err: context.DeadlineExceeded})

		res := serve(r, testutil.NewRequest(http.MethodGet, "/books", nil))
		assert.Equal(t, http.StatusInternalServerError, res.Code)
		assert.Equal(t, "INTERNAL_ERROR", res.ErrorCode())
	})
}

func TestHTTPHandler_GetByTitle(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().FindOne(gomock.Any(), query.Eq("title", "The Hobbit")).Return(Book{Title: "The Hobbit"}, nil)

		res := serve(r, testutil.NewRequest(http.MethodGet, "/books/title/The%20Hobbit", nil))
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "The Hobbit", res.Data().(map[string]interface{})["title"])
	})

	t.Run("not found", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().FindOne(gomock.Any(), gomock.Any()).Return(Book{}, ErrNotFound)

		res := serve(r, testutil.NewRequest(http.MethodGet, "/books/title/Missing", nil))
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, "NOT_FOUND", res.ErrorCode())
	})
}

func TestHTTPHandler_Finders(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		filter query.Filter
	}{
		{"author", "/books/author/George%20Orwell", query.Eq("author", "George Orwell")},
		{"genre", "/books/genre/Fantasy", query.Eq("genre", "Fantasy")},
		{"tag", "/books/tag/classic", query.Eq("tags", "classic")},
		{"published after", "/books/published-after/1950", query.Gt("published_year", 1950)},
		{"price range", "/books/price-range?min=10&max=15", query.Range("price", 10.0, 15.0)},
		{"classic fantasy", "/books/classic-fantasy", query.And(query.Eq("genre", "Classic"), query.Eq("genre", "Fantasy"))},
		{"rating or pages", "/books/rating-or-pages?rating=4.8&pages=200", query.Or(query.Gte("rating", 4.8), query.Lte("pages", 200))},
		{"multi genre", "/books/multi-genre?min=3", query.SizeAtLeast("genre", 3)},
		{"search", "/books/search?pattern=the", query.Regex("title", "the", true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, repo := newTestRouter(t)
			repo.EXPECT().Find(gomock.Any(), tt.filter).Return([]Book{}, nil)

			res := serve(r, testutil.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, res.Code)
			assert.Empty(t, res.Data())
		})
	}
}

func TestHTTPHandler_BadParams(t *testing.T) {
	tests := []struct {
		name string
		path string
		code int
	}{
		{"price range missing max", "/books/price-range?min=10", http.StatusBadRequest},
		{"price range not a number", "/books/price-range?min=ten&max=15", http.StatusBadRequest},
		{"rating or pages bad pages", "/books/rating-or-pages?rating=4&pages=x", http.StatusBadRequest},
		{"multi genre negative", "/books/multi-genre?min=-1", http.StatusBadRequest},
		{"search without pattern", "/books/search", http.StatusBadRequest},
		{"authors bad limit", "/stats/authors?limit=abc", http.StatusBadRequest},
		{"published after non numeric", "/books/published-after/abc", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t)
			res := serve(r, testutil.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, res.Code)
		})
	}
}

func TestHTTPHandler_SearchInvalidPattern(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.EXPECT().Find(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: %w", ErrInvalidPattern, &docstore.OperationError{Op: "find", Err: errors.New("Regular expression is invalid")}))

	res := serve(r, testutil.NewRequest(http.MethodGet, "/books/search?pattern=(", nil))
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "BAD_REQUEST", res.ErrorCode())
}

func TestHTTPHandler_Stats(t *testing.T) {
	t.Run("genres", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ query.Pipeline, out any) error {
				*out.(*[]GenreCount) = []GenreCount{{Genre: "Fiction", Count: 7, AverageRating: 4.5}}
				return nil
			})

		res := serve(r, testutil.NewRequest(http.MethodGet, "/stats/genres", nil))
		require.Equal(t, http.StatusOK, res.Code)
		rows := res.Data().([]interface{})
		require.Len(t, rows, 1)
		assert.Equal(t, "Fiction", rows[0].(map[string]interface{})["genre"])
	})

	t.Run("summary", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		res := serve(r, testutil.NewRequest(http.MethodGet, "/stats/summary", nil))
		require.Equal(t, http.StatusOK, res.Code)
		assert.EqualValues(t, 0, res.Data().(map[string]interface{})["total_books"])
	})

	t.Run("authors default limit", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p query.Pipeline, _ any) error {
				assert.Equal(t, query.Limit{N: DefaultLimit}, p[len(p)-1])
				return nil
			})

		res := serve(r, testutil.NewRequest(http.MethodGet, "/stats/authors", nil))
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("top rated with limit", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p query.Pipeline, _ any) error {
				assert.Equal(t, query.Limit{N: 3}, p[2])
				return nil
			})

		res := serve(r, testutil.NewRequest(http.MethodGet, "/stats/top-rated?limit=3", nil))
		assert.Equal(t, http.StatusOK, res.Code)
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("requires a token", func(t *testing.T) {
		r, _ := newTestRouter(t)
		res := serve(r, testutil.NewRequest(http.MethodPost, "/books", testBook()))
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("created", func(t *testing.T) {
		r, repo := newTestRouter(t)
		oid := primitive.NewObjectID()
		repo.EXPECT().InsertOne(gomock.Any(), gomock.Any()).Return(oid, nil)

		res := serve(r, authed(http.MethodPost, "/books", testBook()))
		assert.Equal(t, http.StatusCreated, res.Code)
		assert.Equal(t, oid.Hex(), res.Data().(map[string]interface{})["id"])
	})

	t.Run("client id is ignored", func(t *testing.T) {
		r, repo := newTestRouter(t)
		oid := primitive.NewObjectID()
		repo.EXPECT().InsertOne(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b Book) (primitive.ObjectID, error) {
				assert.True(t, b.ID.IsZero())
				return oid, nil
			})

		b := testBook()
		b.ID = primitive.NewObjectID()
		res := serve(r, authed(http.MethodPost, "/books", b))
		assert.Equal(t, http.StatusCreated, res.Code)
		assert.Equal(t, oid.Hex(), res.Data().(map[string]interface{})["id"])
	})

	t.Run("validation details", func(t *testing.T) {
		r, _ := newTestRouter(t)
		b := testBook()
		b.Rating = 9

		res := serve(r, authed(http.MethodPost, "/books", b))
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "VALIDATION_ERROR", res.ErrorCode())
		details := res.Body["error"].(map[string]interface{})["details"].([]interface{})
		require.Len(t, details, 1)
		assert.Equal(t, "rating", details[0].(map[string]interface{})["field"])
	})

	t.Run("duplicate title", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().InsertOne(gomock.Any(), gomock.Any()).Return(primitive.NilObjectID,
			errors.Join(ErrDuplicateTitle, &docstore.OperationError{Op: "insertOne", Err: errors.New("E11000")}))

		res := serve(r, authed(http.MethodPost, "/books", testBook()))
		assert.Equal(t, http.StatusConflict, res.Code)
		assert.Equal(t, "CONFLICT", res.ErrorCode())
	})

	t.Run("malformed body", func(t *testing.T) {
		r, _ := newTestRouter(t)
		req := authed(http.MethodPost, "/books", nil)
		req.Body = http.NoBody

		res := serve(r, req)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestHTTPHandler_UpdatePrice(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().UpdateOne(gomock.Any(), query.Eq("title", "The Great Gatsby"), query.Set("price", 13.5)).
			Return(UpdateResult{Matched: 1, Modified: 1}, nil)

		res := serve(r, authed(http.MethodPut, "/books/title/The%20Great%20Gatsby/price", map[string]float64{"price": 13.5}))
		require.Equal(t, http.StatusOK, res.Code)
		assert.EqualValues(t, 1, res.Data().(map[string]interface{})["modified_count"])
	})

	t.Run("missing price", func(t *testing.T) {
		r, _ := newTestRouter(t)
		res := serve(r, authed(http.MethodPut, "/books/title/X/price", map[string]string{}))
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("negative price", func(t *testing.T) {
		r, _ := newTestRouter(t)
		res := serve(r, authed(http.MethodPut, "/books/title/X/price", map[string]float64{"price": -1}))
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "VALIDATION_ERROR", res.ErrorCode())
	})
}

func TestHTTPHandler_AddReview(t *testing.T) {
	r, repo := newTestRouter(t)
	review := Review{User: "tester", Comment: "Great", Rating: 5}
	repo.EXPECT().UpdateOne(gomock.Any(), query.Eq("title", "Test Book"), query.Push("reviews", review)).
		Return(UpdateResult{Matched: 1, Modified: 1}, nil)

	res := serve(r, authed(http.MethodPost, "/books/title/Test%20Book/reviews", review))
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestHTTPHandler_Delete(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.EXPECT().DeleteMany(gomock.Any(), query.Eq("title", "Test Book")).Return(int64(1), nil)

	res := serve(r, authed(http.MethodDelete, "/books/title/Test%20Book", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 1, res.Data().(map[string]interface{})["deleted_count"])
}

func TestHTTPHandler_Admin(t *testing.T) {
	t.Run("indexes", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().CreateIndexes(gomock.Any(), QueryIndexes).Return([]string{"price_1"}, nil)
		repo.EXPECT().CreateIndexes(gomock.Any(), []query.Index{TitleIndex}).Return([]string{"title_1"}, nil)

		res := serve(r, authed(http.MethodPost, "/admin/indexes", nil))
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("explain", func(t *testing.T) {
		r, repo := newTestRouter(t)
		repo.EXPECT().Explain(gomock.Any(), gomock.Any()).
			Return(Plan{Namespace: "bookstore.books", WinningPlan: map[string]any{"stage": "COLLSCAN"}}, nil)

		res := serve(r, authed(http.MethodGet, "/admin/explain", nil))
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "bookstore.books", res.Data().(map[string]interface{})["namespace"])
	})

	t.Run("expired token", func(t *testing.T) {
		r, _ := newTestRouter(t)
		req := testutil.NewRequestWithAuth(http.MethodGet, "/admin/explain", nil,
			testutil.ExpiredToken(testutil.TestSecret, "admin"))

		res := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})
}

func TestHTTPHandler_ListPaginated(t *testing.T) {
	t.Run("next cursor in meta", func(t *testing.T) {
		r, repo := newTestRouter(t)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		repo.EXPECT().FindPage(gomock.Any(), query.All(), int64(2)).Return([]Book{{ID: a}, {ID: b}}, nil)

		res := serve(r, testutil.NewRequest(http.MethodGet, "/books?limit=1", nil))
		require.Equal(t, http.StatusOK, res.Code)
		meta := res.Body["meta"].(map[string]interface{})
		assert.Equal(t, EncodeCursor(a), meta["next_cursor"])
		assert.EqualValues(t, 1, meta["count"])
	})

	t.Run("malformed cursor", func(t *testing.T) {
		r, _ := newTestRouter(t)
		res := serve(r, testutil.NewRequest(http.MethodGet, "/books?cursor=garbage", nil))
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "BAD_REQUEST", res.ErrorCode())
	})
}
