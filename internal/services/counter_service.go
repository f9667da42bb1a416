package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bookshelf-ua/api/internal/repositories"
)

// OrderNumberCounter is the counter backing order numbers.
const OrderNumberCounter = "orders"

var (
	// ErrCounterInvalidInput indicates the caller supplied invalid counter parameters.
	ErrCounterInvalidInput = errors.New("counter: invalid input")
	// ErrCounterUnavailable indicates the backing store could not be reached.
	ErrCounterUnavailable = errors.New("counter: unavailable")
)

// CounterServiceDeps bundles collaborators required to construct a counter service instance.
type CounterServiceDeps struct {
	Repository repositories.CounterRepository
}

type counterService struct {
	repo repositories.CounterRepository
}

// NewCounterService constructs a service that issues sequence values from the repository.
func NewCounterService(deps CounterServiceDeps) (CounterService, error) {
	if deps.Repository == nil {
		return nil, errors.New("counter service: repository is required")
	}
	return &counterService{repo: deps.Repository}, nil
}

// Next performs a single atomic increment-and-fetch. A missing counter starts at 1.
func (s *counterService) Next(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrCounterInvalidInput)
	}
	value, err := s.repo.Next(ctx, name, 1)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			return 0, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
		}
		return 0, err
	}
	return value, nil
}

func (s *counterService) NextOrderNumber(ctx context.Context) (int64, error) {
	return s.Next(ctx, OrderNumberCounter)
}
