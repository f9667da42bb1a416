package repositories

import "fmt"

// GroupDiscountErrorCode enumerates failure reasons for bundle persistence.
type GroupDiscountErrorCode string

const (
	// GroupDiscountErrorDuplicate indicates another bundle already owns the same book set.
	GroupDiscountErrorDuplicate GroupDiscountErrorCode = "group_discount_duplicate"
	// GroupDiscountErrorNotFound indicates the bundle does not exist.
	GroupDiscountErrorNotFound GroupDiscountErrorCode = "group_discount_not_found"
)

// GroupDiscountError wraps bundle failures with machine readable codes.
type GroupDiscountError struct {
	Op      string
	Code    GroupDiscountErrorCode
	Key     string
	Message string
	Err     error
}

func (e *GroupDiscountError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *GroupDiscountError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewGroupDiscountError constructs a typed bundle error.
func NewGroupDiscountError(code GroupDiscountErrorCode, key, message string, err error) *GroupDiscountError {
	if message == "" {
		message = string(code)
	}
	return &GroupDiscountError{Code: code, Key: key, Message: message, Err: err}
}
