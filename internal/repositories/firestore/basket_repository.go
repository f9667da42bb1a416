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

// BasketRepository stores one basket document per user, keyed by user id.
type BasketRepository struct {
	provider *pfirestore.Provider
}

// NewBasketRepository constructs a Firestore-backed basket repository.
func NewBasketRepository(provider *pfirestore.Provider) (*BasketRepository, error) {
	if provider == nil {
		return nil, errors.New("basket repository requires firestore provider")
	}
	return &BasketRepository{provider: provider}, nil
}

// Get returns the user's basket; a missing document yields an empty basket.
func (r *BasketRepository) Get(ctx context.Context, userID string) (domain.Basket, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Basket{}, errors.New("basket repository: user id is required")
	}
	coll, err := r.provider.Collection(ctx, basketsCollection)
	if err != nil {
		return domain.Basket{}, err
	}
	snap, err := coll.Doc(userID).Get(ctx)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return domain.Basket{UserID: userID}, nil
		}
		return domain.Basket{}, pfirestore.WrapError("baskets.get", err)
	}
	var doc basketDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Basket{}, fmt.Errorf("decode basket %s: %w", userID, err)
	}
	return doc.toDomain(userID), nil
}

func (r *BasketRepository) Mutate(ctx context.Context, userID string, fn func(basket *domain.Basket) error) (domain.Basket, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Basket{}, errors.New("basket repository: user id is required")
	}
	if fn == nil {
		return domain.Basket{}, errors.New("basket repository: mutate function is required")
	}
	coll, err := r.provider.Collection(ctx, basketsCollection)
	if err != nil {
		return domain.Basket{}, err
	}
	ref := coll.Doc(userID)

	var result domain.Basket
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		basket := domain.Basket{UserID: userID}
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var doc basketDocument
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode basket %s: %w", userID, err)
			}
			basket = doc.toDomain(userID)
		case pfirestore.IsNotFound(err):
		default:
			return err
		}

		if err := fn(&basket); err != nil {
			return err
		}
		basket.UserID = userID
		basket.UpdatedAt = time.Now().UTC()
		if err := tx.Set(ref, newBasketDocument(basket)); err != nil {
			return err
		}
		result = basket
		return nil
	})
	if err != nil {
		return domain.Basket{}, err
	}
	return result, nil
}

// Clear deletes the basket. Clearing a missing basket succeeds.
func (r *BasketRepository) Clear(ctx context.Context, userID string) error {
	coll, err := r.provider.Collection(ctx, basketsCollection)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(strings.TrimSpace(userID)).Delete(ctx); err != nil && !pfirestore.IsNotFound(err) {
		return pfirestore.WrapError("baskets.clear", err)
	}
	return nil
}
