package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/bookshelf-ua/api/internal/domain"
	pfirestore "github.com/bookshelf-ua/api/internal/platform/firestore"
)

// BookRepository reads catalog books and lets staff seed them.
type BookRepository struct {
	provider *pfirestore.Provider
}

// NewBookRepository constructs a Firestore-backed book repository.
func NewBookRepository(provider *pfirestore.Provider) (*BookRepository, error) {
	if provider == nil {
		return nil, errors.New("book repository requires firestore provider")
	}
	return &BookRepository{provider: provider}, nil
}

// FindByIDs loads books in the requested order, skipping ids that do not exist.
func (r *BookRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(ids))
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, client.Collection(booksCollection).Doc(id))
	}
	snaps, err := client.GetAll(ctx, refs)
	if err != nil {
		return nil, pfirestore.WrapError("books.getAll", err)
	}
	books := make([]domain.Book, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var doc bookDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode book %s: %w", snap.Ref.ID, err)
		}
		books = append(books, doc.toDomain(snap.Ref.ID))
	}
	return books, nil
}

func (r *BookRepository) FindByID(ctx context.Context, bookID string) (domain.Book, error) {
	coll, err := r.provider.Collection(ctx, booksCollection)
	if err != nil {
		return domain.Book{}, err
	}
	snap, err := coll.Doc(bookID).Get(ctx)
	if err != nil {
		return domain.Book{}, pfirestore.WrapError("books.get", err)
	}
	var doc bookDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Book{}, fmt.Errorf("decode book %s: %w", bookID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// Upsert creates the book with its initial counters, or updates the descriptive fields of an
// existing book. Stock counters of an existing book are owned by order confirmation and are left
// untouched.
func (r *BookRepository) Upsert(ctx context.Context, book domain.Book) (domain.Book, error) {
	if strings.TrimSpace(book.ID) == "" {
		return domain.Book{}, errors.New("book repository: book id is required")
	}
	coll, err := r.provider.Collection(ctx, booksCollection)
	if err != nil {
		return domain.Book{}, err
	}
	if book.UpdatedAt.IsZero() {
		book.UpdatedAt = time.Now().UTC()
	}
	ref := coll.Doc(book.ID)

	var saved bookDocument
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		saved = bookDocument{
			Title:         book.Title,
			Author:        book.Author,
			ImageURL:      book.ImageURL,
			Price:         book.Price,
			NumberInStock: book.NumberInStock,
			NumberSold:    book.NumberSold,
			UpdatedAt:     book.UpdatedAt.UTC(),
		}
		snap, err := tx.Get(ref)
		switch {
		case pfirestore.IsNotFound(err):
			return tx.Create(ref, saved)
		case err != nil:
			return err
		}
		var existing bookDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode book %s: %w", book.ID, err)
		}
		saved.NumberInStock = existing.NumberInStock
		saved.NumberSold = existing.NumberSold
		return tx.Set(ref, map[string]any{
			"title":     saved.Title,
			"author":    saved.Author,
			"imageUrl":  saved.ImageURL,
			"price":     saved.Price,
			"updatedAt": saved.UpdatedAt,
		}, firestore.MergeAll)
	})
	if err != nil {
		return domain.Book{}, pfirestore.WrapError("books.upsert", err)
	}
	return saved.toDomain(book.ID), nil
}
