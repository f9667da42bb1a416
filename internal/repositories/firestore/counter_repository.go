package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/bookshelf-ua/api/internal/platform/firestore"
)

// CounterRepository issues sequence values from documents in the counters collection.
type CounterRepository struct {
	provider *pfirestore.Provider
}

// NewCounterRepository constructs a Firestore-backed counter repository.
func NewCounterRepository(provider *pfirestore.Provider) (*CounterRepository, error) {
	if provider == nil {
		return nil, errors.New("counter repository requires firestore provider")
	}
	return &CounterRepository{provider: provider}, nil
}

// Next increments the counter by step inside a transaction and returns the new value. A missing
// counter is created with step as its first value.
func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	counterID = strings.TrimSpace(counterID)
	if counterID == "" {
		return 0, errors.New("counter repository: counter id is required")
	}
	if step <= 0 {
		return 0, fmt.Errorf("counter repository: step must be positive, got %d", step)
	}
	coll, err := r.provider.Collection(ctx, countersCollection)
	if err != nil {
		return 0, err
	}
	ref := coll.Doc(counterID)

	var value int64
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		snap, err := tx.Get(ref)
		if err != nil {
			if !pfirestore.IsNotFound(err) {
				return err
			}
			value = step
			return tx.Create(ref, counterDocument{CurrentValue: value, UpdatedAt: now})
		}
		var doc counterDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode counter %s: %w", counterID, err)
		}
		value = doc.CurrentValue + step
		return tx.Update(ref, []firestore.Update{
			{Path: "currentValue", Value: value},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}
