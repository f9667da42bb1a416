package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bookshelf-ua/api/internal/repositories"
)

var (
	// ErrBasketInvalidInput signals malformed basket requests.
	ErrBasketInvalidInput = errors.New("basket: invalid input")
	// ErrBasketItemNotFound indicates the basket has no entry for the requested book or bundle.
	ErrBasketItemNotFound = errors.New("basket: item not found")
	// ErrBasketUnavailable indicates the backing store could not be reached.
	ErrBasketUnavailable = errors.New("basket: unavailable")
)

// BasketServiceDeps bundles collaborators required by the basket service.
type BasketServiceDeps struct {
	Baskets        repositories.BasketRepository
	Books          repositories.BookRepository
	GroupDiscounts repositories.GroupDiscountRepository
}

type basketService struct {
	baskets   repositories.BasketRepository
	books     repositories.BookRepository
	discounts repositories.GroupDiscountRepository
}

// NewBasketService constructs the basket service.
func NewBasketService(deps BasketServiceDeps) (BasketService, error) {
	if deps.Baskets == nil {
		return nil, errors.New("basket service: basket repository is required")
	}
	if deps.Books == nil {
		return nil, errors.New("basket service: book repository is required")
	}
	if deps.GroupDiscounts == nil {
		return nil, errors.New("basket service: group discount repository is required")
	}
	return &basketService{baskets: deps.Baskets, books: deps.Books, discounts: deps.GroupDiscounts}, nil
}

func (s *basketService) Get(ctx context.Context, userID string) (Basket, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return Basket{}, err
	}
	basket, err := s.baskets.Get(ctx, userID)
	if err != nil {
		return Basket{}, mapBasketRepositoryError(err)
	}
	return basket, nil
}

// AddBook adds the book with count 1. Adding a book that is already present leaves the basket unchanged.
func (s *basketService) AddBook(ctx context.Context, userID, bookID string) (Basket, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return Basket{}, err
	}
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return Basket{}, fmt.Errorf("%w: book id is required", ErrBasketInvalidInput)
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return Basket{}, mapLookupError(err, ErrBookNotFound, "book "+bookID)
	}
	return s.mutate(ctx, userID, func(b *Basket) error {
		for _, item := range b.Books {
			if item.BookID == bookID {
				return nil
			}
		}
		b.Books = append(b.Books, BasketBook{BookID: bookID, Count: 1})
		return nil
	})
}

// RemoveBook drops the book entry; removing a missing entry is a no-op.
func (s *basketService) RemoveBook(ctx context.Context, userID, bookID string) (Basket, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return Basket{}, err
	}
	bookID = strings.TrimSpace(bookID)
	return s.mutate(ctx, userID, func(b *Basket) error {
		kept := b.Books[:0]
		for _, item := range b.Books {
			if item.BookID != bookID {
				kept = append(kept, item)
			}
		}
		b.Books = kept
		return nil
	})
}

func (s *basketService) UpdateBookCount(ctx context.Context, userID, bookID string, count int) (Basket, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return Basket{}, err
	}
	if count <= 0 {
		return Basket{}, fmt.Errorf("%w: count must be positive", ErrBasketInvalidInput)
	}
	bookID = strings.TrimSpace(bookID)
	return s.mutate(ctx, userID, func(b *Basket) error {
		for i := range b.Books {
			if b.Books[i].BookID == bookID {
				b.Books[i].Count = count
				return nil
			}
		}
		return fmt.Errorf("%w: book %s", ErrBasketItemNotFound, bookID)
	})
}

func (s *basketService) AddGroupDiscount(ctx context.Context, userID, discountID string) (Basket, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return Basket{}, err
	}
	discountID = strings.TrimSpace(discountID)
	if discountID == "" {
		return Basket{}, fmt.Errorf("%w: group discount id is required", ErrBasketInvalidInput)
	}
	if _, err := s.discounts.FindByID(ctx, discountID); err != nil {
		return Basket{}, mapLookupError(err, ErrGroupDiscountNotFound, "group discount "+discountID)
	}
	return s.mutate(ctx, userID, func(b *Basket) error {
		for _, item := range b.GroupDiscounts {
			if item.GroupDiscountID == discountID {
				return nil
			}
		}
		b.GroupDiscounts = append(b.GroupDiscounts, BasketGroupDiscount{GroupDiscountID: discountID, Count: 1})
		return nil
	})
}

func (s *basketService) RemoveGroupDiscount(ctx context.Context, userID, discountID string) (Basket, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return Basket{}, err
	}
	discountID = strings.TrimSpace(discountID)
	return s.mutate(ctx, userID, func(b *Basket) error {
		kept := b.GroupDiscounts[:0]
		for _, item := range b.GroupDiscounts {
			if item.GroupDiscountID != discountID {
				kept = append(kept, item)
			}
		}
		b.GroupDiscounts = kept
		return nil
	})
}

func (s *basketService) UpdateGroupDiscountCount(ctx context.Context, userID, discountID string, count int) (Basket, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return Basket{}, err
	}
	if count <= 0 {
		return Basket{}, fmt.Errorf("%w: count must be positive", ErrBasketInvalidInput)
	}
	discountID = strings.TrimSpace(discountID)
	return s.mutate(ctx, userID, func(b *Basket) error {
		for i := range b.GroupDiscounts {
			if b.GroupDiscounts[i].GroupDiscountID == discountID {
				b.GroupDiscounts[i].Count = count
				return nil
			}
		}
		return fmt.Errorf("%w: group discount %s", ErrBasketItemNotFound, discountID)
	})
}

func (s *basketService) Clear(ctx context.Context, userID string) error {
	userID, err := requireUser(userID)
	if err != nil {
		return err
	}
	if err := s.baskets.Clear(ctx, userID); err != nil {
		return mapBasketRepositoryError(err)
	}
	return nil
}

func (s *basketService) mutate(ctx context.Context, userID string, fn func(*Basket) error) (Basket, error) {
	basket, err := s.baskets.Mutate(ctx, userID, fn)
	if err != nil {
		return Basket{}, mapBasketRepositoryError(err)
	}
	return basket, nil
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrBasketInvalidInput)
	}
	return userID, nil
}

// mapLookupError turns a missing referenced entity into notFound.
func mapLookupError(err, notFound error, what string) error {
	var discountErr *repositories.GroupDiscountError
	if errors.As(err, &discountErr) && discountErr.Code == repositories.GroupDiscountErrorNotFound {
		return fmt.Errorf("%w: %s", notFound, what)
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s", notFound, what)
	}
	return mapBasketRepositoryError(err)
}

func mapBasketRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
		return fmt.Errorf("%w: %v", ErrBasketUnavailable, err)
	}
	return err
}
