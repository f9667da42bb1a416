package idempotency

import (
	"context"
	"net/http"
	"sync"
	"time"
)

type memoryRecord struct {
	fingerprint string
	status      string
	response    Response
	expiresAt   time.Time
}

// MemoryStore keeps reservations in process memory. Used for tests and single-instance runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

// NewMemoryStore constructs an empty memory-backed store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := documentID(key)
	record, ok := s.records[id]
	if !ok || !now.Before(record.expiresAt) {
		s.records[id] = memoryRecord{fingerprint: fingerprint, status: statusPending, expiresAt: now.Add(ttl)}
		return Reservation{State: ReservationStateNew}, nil
	}
	if record.fingerprint != fingerprint {
		return Reservation{}, ErrFingerprintMismatch
	}
	if record.status == statusCompleted {
		return Reservation{State: ReservationStateCompleted, Response: record.response}, nil
	}
	return Reservation{State: ReservationStatePending}, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := documentID(key)
	if record, ok := s.records[id]; ok && record.fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	s.records[id] = memoryRecord{
		fingerprint: fingerprint,
		status:      statusCompleted,
		response: Response{
			Status:  resp.Status,
			Headers: http.Header(storableHeaders(resp.Headers)),
			Body:    append([]byte(nil), resp.Body...),
		},
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, documentID(key))
	return nil
}
