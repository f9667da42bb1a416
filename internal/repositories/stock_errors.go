package repositories

import "fmt"

// StockErrorCode enumerates failure reasons raised while applying stock adjustments.
type StockErrorCode string

const (
	// StockErrorUnknown represents an unspecified failure.
	StockErrorUnknown StockErrorCode = "stock_unknown"
	// StockErrorBookNotFound indicates an adjustment references a book that does not exist.
	StockErrorBookNotFound StockErrorCode = "stock_book_not_found"
	// StockErrorInsufficient indicates numberInStock would drop below zero.
	StockErrorInsufficient StockErrorCode = "stock_insufficient"
	// StockErrorRevisionConflict indicates the order changed since it was loaded or the ledger entry already exists.
	StockErrorRevisionConflict StockErrorCode = "stock_revision_conflict"
)

// StockError wraps stock-specific failures with machine readable codes.
type StockError struct {
	Op      string
	Code    StockErrorCode
	BookID  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *StockError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *StockError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewStockError constructs a typed stock error.
func NewStockError(code StockErrorCode, bookID, message string, err error) *StockError {
	if message == "" {
		message = string(code)
	}
	return &StockError{
		Code:    code,
		BookID:  bookID,
		Message: message,
		Err:     err,
	}
}
