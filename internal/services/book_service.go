package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookshelf-ua/api/internal/platform/textutil"
	"github.com/bookshelf-ua/api/internal/repositories"
)

var (
	// ErrBookInvalidInput signals malformed catalog data.
	ErrBookInvalidInput = errors.New("book: invalid input")
	// ErrBookNotFound indicates a referenced book does not exist.
	ErrBookNotFound = errors.New("book: not found")
)

// BookServiceDeps bundles collaborators required by the catalog service.
type BookServiceDeps struct {
	Books repositories.BookRepository
	Clock func() time.Time
}

type bookService struct {
	books repositories.BookRepository
	clock func() time.Time
}

// NewBookService constructs the catalog service used by staff seeding endpoints.
func NewBookService(deps BookServiceDeps) (BookService, error) {
	if deps.Books == nil {
		return nil, errors.New("book service: book repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &bookService{books: deps.Books, clock: func() time.Time { return clock().UTC() }}, nil
}

func (s *bookService) Get(ctx context.Context, bookID string) (Book, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return Book{}, fmt.Errorf("%w: id is required", ErrBookInvalidInput)
	}
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return Book{}, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
		}
		return Book{}, err
	}
	return book, nil
}

func (s *bookService) Upsert(ctx context.Context, cmd UpsertBookCommand) (Book, error) {
	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		return Book{}, fmt.Errorf("%w: id is required", ErrBookInvalidInput)
	}
	title := textutil.SanitizePlainText(cmd.Title, 500)
	if title == "" {
		return Book{}, fmt.Errorf("%w: title is required", ErrBookInvalidInput)
	}
	if cmd.Price < 0 || cmd.NumberSold < 0 {
		return Book{}, fmt.Errorf("%w: price and numberSold must not be negative", ErrBookInvalidInput)
	}
	return s.books.Upsert(ctx, Book{
		ID:            id,
		Title:         title,
		Author:        textutil.SanitizePlainText(cmd.Author, 300),
		ImageURL:      strings.TrimSpace(cmd.ImageURL),
		Price:         cmd.Price,
		NumberInStock: cmd.NumberInStock,
		NumberSold:    cmd.NumberSold,
		UpdatedAt:     s.clock(),
	})
}
