package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bookshelf-ua/api/internal/repositories"
)

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// Error classifies pgx failures for the service layer.
type Error struct {
	op          string
	err         error
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.op != "" {
		return fmt.Sprintf("%s: %v", e.op, e.err)
	}
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func (e *Error) IsNotFound() bool    { return e != nil && e.notFound }
func (e *Error) IsConflict() bool    { return e != nil && e.conflict }
func (e *Error) IsUnavailable() bool { return e != nil && e.unavailable }

var _ repositories.RepositoryError = (*Error)(nil)

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{op: op, err: err}
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		e.notFound = true
	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case uniqueViolation, serializationFailure, deadlockDetected:
			e.conflict = true
		}
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		e.unavailable = true
	default:
		var connectErr *pgconn.ConnectError
		if errors.As(err, &connectErr) {
			e.unavailable = true
		}
	}
	return e
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// wrapTypedError keeps typed repository errors intact.
func wrapTypedError(op string, err error) error {
	var stockErr *repositories.StockError
	if errors.As(err, &stockErr) {
		if stockErr.Op == "" {
			stockErr.Op = op
		}
		return stockErr
	}
	var discountErr *repositories.GroupDiscountError
	if errors.As(err, &discountErr) {
		if discountErr.Op == "" {
			discountErr.Op = op
		}
		return discountErr
	}
	return wrapError(op, err)
}
