package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookshelf-ua/api/internal/platform/httpx"
	"github.com/bookshelf-ua/api/internal/services"
)

// BookHandlers exposes staff catalog seeding.
type BookHandlers struct {
	books services.BookService
}

// NewBookHandlers constructs catalog handlers.
func NewBookHandlers(books services.BookService) *BookHandlers {
	return &BookHandlers{books: books}
}

type upsertBookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ImageURL      string `json:"imageUrl"`
	Price         int64  `json:"price"`
	NumberInStock int64  `json:"numberInStock"`
	NumberSold    int64  `json:"numberSold"`
}

// AdminRoutes wires the catalog endpoints under the admin group.
func (h *BookHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/books/{bookId}", h.getBook)
	r.Put("/books/{bookId}", h.upsertBook)
}

func (h *BookHandlers) getBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		writeUnavailable(ctx, w, "book")
		return
	}
	book, err := h.books.Get(ctx, chi.URLParam(r, "bookId"))
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildBookPayload(book))
}

func (h *BookHandlers) upsertBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		writeUnavailable(ctx, w, "book")
		return
	}
	var req upsertBookRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	book, err := h.books.Upsert(ctx, services.UpsertBookCommand{
		ID:            chi.URLParam(r, "bookId"),
		Title:         req.Title,
		Author:        req.Author,
		ImageURL:      req.ImageURL,
		Price:         req.Price,
		NumberInStock: req.NumberInStock,
		NumberSold:    req.NumberSold,
	})
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildBookPayload(book))
}

func writeBookError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBookInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBookNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("book_not_found", "book not found", http.StatusNotFound))
	default:
		var repoErr interface{ IsUnavailable() bool }
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			writeUnavailable(ctx, w, "book")
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("book_error", "failed to process book", http.StatusInternalServerError))
	}
}
