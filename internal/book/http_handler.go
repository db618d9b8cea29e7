package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookstore/internal/httpx"
	"bookstore/internal/query"

	"github.com/gorilla/mux"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes mounts the catalog routes on r. Mutating routes are wrapped
// with protect.
func (h *HTTPHandler) RegisterRoutes(r *mux.Router, protect func(http.Handler) http.Handler) {
	r.HandleFunc("/books", h.List).Methods(http.MethodGet)
	r.HandleFunc("/books/title/{title}", h.GetByTitle).Methods(http.MethodGet)
	r.HandleFunc("/books/author/{author}", h.ListByAuthor).Methods(http.MethodGet)
	r.HandleFunc("/books/genre/{genre}", h.ListByGenre).Methods(http.MethodGet)
	r.HandleFunc("/books/tag/{tag}", h.ListByTag).Methods(http.MethodGet)
	r.HandleFunc("/books/published-after/{year:[0-9]+}", h.ListPublishedAfter).Methods(http.MethodGet)
	r.HandleFunc("/books/price-range", h.ListByPriceRange).Methods(http.MethodGet)
	r.HandleFunc("/books/classic-fantasy", h.ListClassicFantasy).Methods(http.MethodGet)
	r.HandleFunc("/books/rating-or-pages", h.ListByRatingOrPages).Methods(http.MethodGet)
	r.HandleFunc("/books/multi-genre", h.ListMultiGenre).Methods(http.MethodGet)
	r.HandleFunc("/books/search", h.Search).Methods(http.MethodGet)

	r.HandleFunc("/stats/genres", h.GenreCounts).Methods(http.MethodGet)
	r.HandleFunc("/stats/summary", h.Statistics).Methods(http.MethodGet)
	r.HandleFunc("/stats/authors", h.PopularAuthors).Methods(http.MethodGet)
	r.HandleFunc("/stats/top-rated", h.TopRated).Methods(http.MethodGet)

	r.Handle("/books", protect(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	r.Handle("/books/title/{title}/price", protect(http.HandlerFunc(h.UpdatePrice))).Methods(http.MethodPut)
	r.Handle("/books/title/{title}/reviews", protect(http.HandlerFunc(h.AddReview))).Methods(http.MethodPost)
	r.Handle("/books/title/{title}", protect(http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
	r.Handle("/admin/indexes", protect(http.HandlerFunc(h.CreateIndexes))).Methods(http.MethodPost)
	r.Handle("/admin/explain", protect(http.HandlerFunc(h.Explain))).Methods(http.MethodGet)
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		details := make([]httpx.ErrorDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, httpx.ErrorDetail{Field: fe.Field, Message: fe.Message})
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book", details)
	case errors.Is(err, ErrInvalidCursor):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid cursor", []httpx.ErrorDetail{
			{Field: "cursor", Message: "cursor is malformed"},
		})
	case errors.Is(err, ErrInvalidPattern):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid title pattern", []httpx.ErrorDetail{
			{Field: "pattern", Message: "pattern is not a valid regular expression"},
		})
	case errors.Is(err, query.ErrInvalidDescriptor):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrDuplicateTitle):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", "A book with this title already exists", nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

func badParam(w http.ResponseWriter, r *http.Request, field, message string) {
	httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameter", []httpx.ErrorDetail{
		{Field: field, Message: message},
	})
}

func writeBooks(w http.ResponseWriter, r *http.Request, books []Book, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]interface{}{"count": len(books)})
}

func floatParam(r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	return v, err == nil
}

func intParam(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	return v, err == nil
}

// limitParam returns 0 when limit is absent, which the service turns into its default.
func limitParam(r *http.Request) (int, bool) {
	if r.URL.Query().Get("limit") == "" {
		return 0, true
	}
	return intParam(r, "limit")
}

// List handles GET /books. With a limit or cursor parameter the result is
// paginated and meta carries next_cursor.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("limit") && !q.Has("cursor") {
		books, err := h.service.FindAllBooks(r.Context())
		writeBooks(w, r, books, err)
		return
	}

	limit, ok := limitParam(r)
	if !ok {
		badParam(w, r, "limit", "limit must be an integer")
		return
	}
	page, err := h.service.ListBooks(r.Context(), q.Get("cursor"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	meta := map[string]interface{}{"count": len(page.Books)}
	if page.NextCursor != "" {
		meta["next_cursor"] = page.NextCursor
	}
	httpx.JSONSuccess(w, r, page.Books, meta)
}

// GetByTitle handles GET /books/title/{title}
func (h *HTTPHandler) GetByTitle(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.FindBookByTitle(r.Context(), mux.Vars(r)["title"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

func (h *HTTPHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.FindBooksByAuthor(r.Context(), mux.Vars(r)["author"])
	writeBooks(w, r, books, err)
}

func (h *HTTPHandler) ListByGenre(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.FindBooksByGenre(r.Context(), mux.Vars(r)["genre"])
	writeBooks(w, r, books, err)
}

func (h *HTTPHandler) ListByTag(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.FindBooksByTag(r.Context(), mux.Vars(r)["tag"])
	writeBooks(w, r, books, err)
}

func (h *HTTPHandler) ListPublishedAfter(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		badParam(w, r, "year", "year must be an integer")
		return
	}
	books, err := h.service.FindBooksPublishedAfter(r.Context(), year)
	writeBooks(w, r, books, err)
}

// ListByPriceRange handles GET /books/price-range?min=&max=
func (h *HTTPHandler) ListByPriceRange(w http.ResponseWriter, r *http.Request) {
	min, ok := floatParam(r, "min")
	if !ok {
		badParam(w, r, "min", "min must be a number")
		return
	}
	max, ok := floatParam(r, "max")
	if !ok {
		badParam(w, r, "max", "max must be a number")
		return
	}
	books, err := h.service.FindBooksByPriceRange(r.Context(), min, max)
	writeBooks(w, r, books, err)
}

func (h *HTTPHandler) ListClassicFantasy(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.FindClassicFantasyBooks(r.Context())
	writeBooks(w, r, books, err)
}

// ListByRatingOrPages handles GET /books/rating-or-pages?rating=&pages=
func (h *HTTPHandler) ListByRatingOrPages(w http.ResponseWriter, r *http.Request) {
	rating, ok := floatParam(r, "rating")
	if !ok {
		badParam(w, r, "rating", "rating must be a number")
		return
	}
	pages, ok := intParam(r, "pages")
	if !ok {
		badParam(w, r, "pages", "pages must be an integer")
		return
	}
	books, err := h.service.FindBooksByRatingOrPages(r.Context(), rating, pages)
	writeBooks(w, r, books, err)
}

func (h *HTTPHandler) ListMultiGenre(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(r, "min")
	if !ok {
		badParam(w, r, "min", "min must be an integer")
		return
	}
	books, err := h.service.FindBooksWithMultipleGenres(r.Context(), n)
	writeBooks(w, r, books, err)
}

// Search handles GET /books/search?pattern=
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.FindBooksByTitlePattern(r.Context(), r.URL.Query().Get("pattern"))
	writeBooks(w, r, books, err)
}

func (h *HTTPHandler) GenreCounts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.GetBooksCountByGenre(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rows, nil)
}

func (h *HTTPHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetBookStatistics(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, stats, nil)
}

func (h *HTTPHandler) PopularAuthors(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		badParam(w, r, "limit", "limit must be an integer")
		return
	}
	rows, err := h.service.GetPopularAuthors(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rows, nil)
}

func (h *HTTPHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		badParam(w, r, "limit", "limit must be an integer")
		return
	}
	rows, err := h.service.GetTopRatedInStockBooks(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rows, nil)
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var b Book
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	id, err := h.service.InsertBook(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, map[string]string{"id": id})
}

type updatePriceReq struct {
	Price *float64 `json:"price"`
}

// UpdatePrice handles PUT /books/title/{title}/price
func (h *HTTPHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req updatePriceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Price == nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", []httpx.ErrorDetail{
			{Field: "price", Message: "price is required"},
		})
		return
	}
	res, err := h.service.UpdateBookPrice(r.Context(), mux.Vars(r)["title"], *req.Price)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, res, nil)
}

// AddReview handles POST /books/title/{title}/reviews
func (h *HTTPHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var review Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	res, err := h.service.AddBookReview(r.Context(), mux.Vars(r)["title"], review)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, res, nil)
}

// Delete handles DELETE /books/title/{title}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.DeleteBook(r.Context(), mux.Vars(r)["title"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]int64{"deleted_count": n}, nil)
}

func (h *HTTPHandler) CreateIndexes(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.CreateIndexes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string][]string{"indexes": names}, nil)
}

func (h *HTTPHandler) Explain(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.ExplainQuery(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, plan, nil)
}
