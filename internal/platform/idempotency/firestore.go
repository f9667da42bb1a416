package idempotency

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/bookshelf-ua/api/internal/platform/firestore"
)

const defaultCollection = "idempotency_keys"

// FirestoreStore persists reservations in Firestore so retries are deduplicated across instances.
// Expired documents are overwritten on the next reservation; a TTL policy on expires_at can purge them.
type FirestoreStore struct {
	provider   *pfirestore.Provider
	collection string
}

// NewFirestoreStore constructs a Firestore-backed idempotency store.
func NewFirestoreStore(provider *pfirestore.Provider) *FirestoreStore {
	return &FirestoreStore{provider: provider, collection: defaultCollection}
}

type firestoreRecord struct {
	Fingerprint     string              `firestore:"fingerprint"`
	Status          string              `firestore:"status"`
	ResponseStatus  int                 `firestore:"response_status"`
	ResponseHeaders map[string][]string `firestore:"response_headers"`
	ResponseBody    []byte              `firestore:"response_body"`
	UpdatedAt       time.Time           `firestore:"updated_at"`
	ExpiresAt       time.Time           `firestore:"expires_at"`
}

func (s *FirestoreStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	coll, err := s.provider.Collection(ctx, s.collection)
	if err != nil {
		return Reservation{}, err
	}
	ref := coll.Doc(documentID(key))

	var result Reservation
	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && !pfirestore.IsNotFound(err) {
			return err
		}
		if err == nil {
			var record firestoreRecord
			if err := snap.DataTo(&record); err != nil {
				return err
			}
			if now.Before(record.ExpiresAt) {
				if record.Fingerprint != fingerprint {
					return ErrFingerprintMismatch
				}
				if record.Status == statusCompleted {
					result = Reservation{
						State: ReservationStateCompleted,
						Response: Response{
							Status:  record.ResponseStatus,
							Headers: http.Header(record.ResponseHeaders),
							Body:    record.ResponseBody,
						},
					}
				} else {
					result = Reservation{State: ReservationStatePending}
				}
				return nil
			}
		}
		result = Reservation{State: ReservationStateNew}
		return tx.Set(ref, firestoreRecord{
			Fingerprint: fingerprint,
			Status:      statusPending,
			UpdatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		})
	})
	return result, err
}

func (s *FirestoreStore) Complete(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	coll, err := s.provider.Collection(ctx, s.collection)
	if err != nil {
		return err
	}
	_, err = coll.Doc(documentID(key)).Set(ctx, firestoreRecord{
		Fingerprint:     fingerprint,
		Status:          statusCompleted,
		ResponseStatus:  resp.Status,
		ResponseHeaders: storableHeaders(resp.Headers),
		ResponseBody:    resp.Body,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	})
	return pfirestore.WrapError("idempotency.complete", err)
}

func (s *FirestoreStore) Release(ctx context.Context, key string) error {
	coll, err := s.provider.Collection(ctx, s.collection)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(documentID(key)).Delete(ctx); err != nil && !pfirestore.IsNotFound(err) {
		return pfirestore.WrapError("idempotency.release", err)
	}
	return nil
}
