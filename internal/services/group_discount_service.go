package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bookshelf-ua/api/internal/platform/pagination"
	"github.com/bookshelf-ua/api/internal/platform/textutil"
	"github.com/bookshelf-ua/api/internal/repositories"
)

const groupDiscountKeySeparator = "|"

var (
	// ErrGroupDiscountInvalidInput signals malformed bundle data.
	ErrGroupDiscountInvalidInput = errors.New("group discount: invalid input")
	// ErrGroupDiscountNotFound indicates the bundle does not exist.
	ErrGroupDiscountNotFound = errors.New("group discount: not found")
	// ErrGroupDiscountDuplicate indicates another bundle already covers the same book set.
	ErrGroupDiscountDuplicate = errors.New("group discount: duplicate")
	// ErrGroupDiscountUnavailable indicates the backing store could not be reached.
	ErrGroupDiscountUnavailable = errors.New("group discount: unavailable")
)

// GroupDiscountServiceDeps bundles collaborators required by the bundle registry.
type GroupDiscountServiceDeps struct {
	Discounts   repositories.GroupDiscountRepository
	Books       repositories.BookRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type groupDiscountService struct {
	discounts repositories.GroupDiscountRepository
	books     repositories.BookRepository
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewGroupDiscountService constructs the bundle registry service.
func NewGroupDiscountService(deps GroupDiscountServiceDeps) (GroupDiscountService, error) {
	if deps.Discounts == nil {
		return nil, errors.New("group discount service: discount repository is required")
	}
	if deps.Books == nil {
		return nil, errors.New("group discount service: book repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &groupDiscountService{
		discounts: deps.Discounts,
		books:     deps.Books,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// GroupDiscountKey returns the normalised composite key of a book set: distinct ids sorted and
// joined, so the same set yields the same key regardless of order.
func GroupDiscountKey(bookIDs []string) string {
	ids := textutil.NormalizeIDs(bookIDs)
	sort.Strings(ids)
	return strings.Join(ids, groupDiscountKeySeparator)
}

func (s *groupDiscountService) Create(ctx context.Context, cmd GroupDiscountCommand) (GroupDiscount, error) {
	bookIDs, err := validateGroupDiscount(cmd)
	if err != nil {
		return GroupDiscount{}, err
	}
	books, err := s.memberBooks(ctx, bookIDs)
	if err != nil {
		return GroupDiscount{}, err
	}

	now := s.clock()
	discount := GroupDiscount{
		ID:        s.newID(),
		Key:       strings.Join(bookIDs, groupDiscountKeySeparator),
		Discount:  cmd.Discount,
		BookIDs:   bookIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.discounts.Insert(ctx, discount); err != nil {
		return GroupDiscount{}, s.mapRepositoryError(err)
	}
	discount.Books = books
	s.logger(ctx, "groupDiscount.created", map[string]any{"id": discount.ID, "key": discount.Key})
	return discount, nil
}

func (s *groupDiscountService) Update(ctx context.Context, discountID string, cmd GroupDiscountCommand) (GroupDiscount, error) {
	discountID = strings.TrimSpace(discountID)
	if discountID == "" {
		return GroupDiscount{}, fmt.Errorf("%w: id is required", ErrGroupDiscountInvalidInput)
	}
	bookIDs, err := validateGroupDiscount(cmd)
	if err != nil {
		return GroupDiscount{}, err
	}
	current, err := s.discounts.FindByID(ctx, discountID)
	if err != nil {
		return GroupDiscount{}, s.mapRepositoryError(err)
	}
	books, err := s.memberBooks(ctx, bookIDs)
	if err != nil {
		return GroupDiscount{}, err
	}

	updated := current
	updated.Key = strings.Join(bookIDs, groupDiscountKeySeparator)
	updated.BookIDs = bookIDs
	updated.Discount = cmd.Discount
	updated.UpdatedAt = s.clock()
	if err := s.discounts.Update(ctx, updated); err != nil {
		return GroupDiscount{}, s.mapRepositoryError(err)
	}
	updated.Books = books
	return updated, nil
}

func (s *groupDiscountService) Delete(ctx context.Context, discountID string) error {
	discountID = strings.TrimSpace(discountID)
	if discountID == "" {
		return fmt.Errorf("%w: id is required", ErrGroupDiscountInvalidInput)
	}
	if err := s.discounts.Delete(ctx, discountID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "groupDiscount.deleted", map[string]any{"id": discountID})
	return nil
}

func (s *groupDiscountService) Get(ctx context.Context, discountID string) (GroupDiscount, error) {
	discountID = strings.TrimSpace(discountID)
	if discountID == "" {
		return GroupDiscount{}, fmt.Errorf("%w: id is required", ErrGroupDiscountInvalidInput)
	}
	discount, err := s.discounts.FindByID(ctx, discountID)
	if err != nil {
		return GroupDiscount{}, s.mapRepositoryError(err)
	}
	resolved, err := s.resolveBooks(ctx, []GroupDiscount{discount})
	if err != nil {
		return GroupDiscount{}, err
	}
	return resolved[0], nil
}

func (s *groupDiscountService) List(ctx context.Context, filter GroupDiscountListFilter) (GroupDiscountPage, error) {
	all, err := s.discounts.List(ctx)
	if err != nil {
		return GroupDiscountPage{}, s.mapRepositoryError(err)
	}
	return s.page(ctx, all, filter.IsInStock, filter.Pagination)
}

func (s *groupDiscountService) ListByIDs(ctx context.Context, ids []string, page Pagination) (GroupDiscountPage, error) {
	ids = textutil.NormalizeIDs(ids)
	if len(ids) == 0 {
		return GroupDiscountPage{}, nil
	}
	found, err := s.discounts.FindByIDs(ctx, ids)
	if err != nil {
		return GroupDiscountPage{}, s.mapRepositoryError(err)
	}
	return s.page(ctx, found, nil, page)
}

func (s *groupDiscountService) page(ctx context.Context, discounts []GroupDiscount, inStock *bool, page Pagination) (GroupDiscountPage, error) {
	resolved, err := s.resolveBooks(ctx, discounts)
	if err != nil {
		return GroupDiscountPage{}, err
	}
	if inStock != nil {
		filtered := resolved[:0]
		for _, d := range resolved {
			if IsGroupDiscountInStock(d) == *inStock {
				filtered = append(filtered, d)
			}
		}
		resolved = filtered
	}
	items, next, err := pagination.Paginate(resolved, page.PageSize, page.PageToken)
	if err != nil {
		return GroupDiscountPage{}, fmt.Errorf("%w: %v", ErrGroupDiscountInvalidInput, err)
	}
	return GroupDiscountPage{Items: items, TotalCount: len(resolved), NextPageToken: next}, nil
}

// IsGroupDiscountInStock reports whether every member book is in stock. Unresolved members count
// as out of stock.
func IsGroupDiscountInStock(d GroupDiscount) bool {
	if len(d.Books) == 0 || len(d.Books) < len(d.BookIDs) {
		return false
	}
	for _, book := range d.Books {
		if book.NumberInStock <= 0 {
			return false
		}
	}
	return true
}

func (s *groupDiscountService) resolveBooks(ctx context.Context, discounts []GroupDiscount) ([]GroupDiscount, error) {
	var ids []string
	for _, d := range discounts {
		ids = append(ids, d.BookIDs...)
	}
	books, err := s.books.FindByIDs(ctx, textutil.NormalizeIDs(ids))
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	byID := make(map[string]Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	out := make([]GroupDiscount, len(discounts))
	for i, d := range discounts {
		d.Books = nil
		for _, id := range d.BookIDs {
			if b, ok := byID[id]; ok {
				d.Books = append(d.Books, b)
			}
		}
		out[i] = d
	}
	return out, nil
}

func (s *groupDiscountService) memberBooks(ctx context.Context, bookIDs []string) ([]Book, error) {
	books, err := s.books.FindByIDs(ctx, bookIDs)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	byID := make(map[string]Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	ordered := make([]Book, 0, len(bookIDs))
	for _, id := range bookIDs {
		book, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: book %s", ErrBookNotFound, id)
		}
		ordered = append(ordered, book)
	}
	return ordered, nil
}

// validateGroupDiscount returns the sorted distinct member ids.
func validateGroupDiscount(cmd GroupDiscountCommand) ([]string, error) {
	ids := textutil.NormalizeIDs(cmd.BookIDs)
	if len(ids) < 2 {
		return nil, fmt.Errorf("%w: a bundle needs at least two distinct books", ErrGroupDiscountInvalidInput)
	}
	if cmd.Discount < 1 || cmd.Discount > 100 {
		return nil, fmt.Errorf("%w: discount must be between 1 and 100", ErrGroupDiscountInvalidInput)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *groupDiscountService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var discountErr *repositories.GroupDiscountError
	if errors.As(err, &discountErr) {
		switch discountErr.Code {
		case repositories.GroupDiscountErrorDuplicate:
			return fmt.Errorf("%w: %s", ErrGroupDiscountDuplicate, discountErr.Message)
		case repositories.GroupDiscountErrorNotFound:
			return fmt.Errorf("%w: %s", ErrGroupDiscountNotFound, discountErr.Message)
		}
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrGroupDiscountNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrGroupDiscountDuplicate, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrGroupDiscountUnavailable, err)
		}
	}
	return err
}
