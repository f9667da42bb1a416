package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/bookshelf-ua/api/internal/domain"
)

func newGroupDiscountTestService(t *testing.T, store *memoryStore) GroupDiscountService {
	t.Helper()
	seq := 0
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewGroupDiscountService(GroupDiscountServiceDeps{
		Discounts: memoryDiscounts{store},
		Books:     memoryBooks{store},
		Clock: func() time.Time {
			now = now.Add(time.Minute)
			return now
		},
		IDGenerator: func() string {
			seq++
			return fmt.Sprintf("gd_%02d", seq)
		},
	})
	if err != nil {
		t.Fatalf("new group discount service: %v", err)
	}
	return svc
}

func TestGroupDiscountKeyIsOrderIndependent(t *testing.T) {
	if a, b := GroupDiscountKey([]string{"b2", "b1", "b1"}), GroupDiscountKey([]string{" b1", "b2"}); a != b || a != "b1|b2" {
		t.Fatalf("expected equal normalised keys, got %q and %q", a, b)
	}
}

func TestGroupDiscountServiceCreate(t *testing.T) {
	store := newMemoryStore(catalog()...)
	svc := newGroupDiscountTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, GroupDiscountCommand{BookIDs: []string{"b2", "b1"}, Discount: 15})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Key != "b1|b2" || created.BookIDs[0] != "b1" || len(created.Books) != 2 {
		t.Fatalf("unexpected bundle %+v", created)
	}

	if _, err := svc.Create(ctx, GroupDiscountCommand{BookIDs: []string{"b1", "b2"}, Discount: 20}); !errors.Is(err, ErrGroupDiscountDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	cases := []struct {
		name string
		cmd  GroupDiscountCommand
		want error
	}{
		{"single book", GroupDiscountCommand{BookIDs: []string{"b1", "b1"}, Discount: 10}, ErrGroupDiscountInvalidInput},
		{"zero discount", GroupDiscountCommand{BookIDs: []string{"b1", "b3"}, Discount: 0}, ErrGroupDiscountInvalidInput},
		{"over 100", GroupDiscountCommand{BookIDs: []string{"b1", "b3"}, Discount: 101}, ErrGroupDiscountInvalidInput},
		{"unknown member", GroupDiscountCommand{BookIDs: []string{"b1", "zz"}, Discount: 10}, ErrBookNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGroupDiscountServiceUpdateAndDelete(t *testing.T) {
	store := newMemoryStore(catalog()...)
	svc := newGroupDiscountTestService(t, store)
	ctx := context.Background()

	first, err := svc.Create(ctx, GroupDiscountCommand{BookIDs: []string{"b1", "b2"}, Discount: 10})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, GroupDiscountCommand{BookIDs: []string{"b1", "b3"}, Discount: 10})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if _, err := svc.Update(ctx, second.ID, GroupDiscountCommand{BookIDs: []string{"b2", "b1"}, Discount: 5}); !errors.Is(err, ErrGroupDiscountDuplicate) {
		t.Fatalf("expected duplicate on update, got %v", err)
	}
	updated, err := svc.Update(ctx, first.ID, GroupDiscountCommand{BookIDs: []string{"b1", "b2", "b3"}, Discount: 25})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Key != "b1|b2|b3" || updated.Discount != 25 || !updated.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("unexpected updated bundle %+v", updated)
	}
	if _, err := svc.Update(ctx, "missing", GroupDiscountCommand{BookIDs: []string{"b1", "b2"}, Discount: 5}); !errors.Is(err, ErrGroupDiscountNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, first.ID); !errors.Is(err, ErrGroupDiscountNotFound) {
		t.Fatalf("expected deleted bundle to be gone, got %v", err)
	}
	if err := svc.Delete(ctx, first.ID); !errors.Is(err, ErrGroupDiscountNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	// The key is free again after deletion.
	if _, err := svc.Create(ctx, GroupDiscountCommand{BookIDs: []string{"b1", "b2", "b3"}, Discount: 30}); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}

func TestGroupDiscountServiceListFiltersStock(t *testing.T) {
	store := newMemoryStore(catalog()...)
	svc := newGroupDiscountTestService(t, store)
	ctx := context.Background()

	inStock, err := svc.Create(ctx, GroupDiscountCommand{BookIDs: []string{"b1", "b2"}, Discount: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	outOfStock, err := svc.Create(ctx, GroupDiscountCommand{BookIDs: []string{"b1", "b3"}, Discount: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.List(ctx, GroupDiscountListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.TotalCount != 2 || all.Items[0].ID != outOfStock.ID {
		t.Fatalf("expected newest first, got %+v", all.Items)
	}

	available, err := svc.List(ctx, GroupDiscountListFilter{IsInStock: boolPtr(true)})
	if err != nil {
		t.Fatalf("list in stock: %v", err)
	}
	if available.TotalCount != 1 || available.Items[0].ID != inStock.ID {
		t.Fatalf("unexpected in-stock page %+v", available)
	}

	missing, err := svc.List(ctx, GroupDiscountListFilter{IsInStock: boolPtr(false)})
	if err != nil {
		t.Fatalf("list out of stock: %v", err)
	}
	if missing.TotalCount != 1 || missing.Items[0].ID != outOfStock.ID {
		t.Fatalf("unexpected out-of-stock page %+v", missing)
	}

	paged, err := svc.List(ctx, GroupDiscountListFilter{Pagination: Pagination{PageSize: 1}})
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if len(paged.Items) != 1 || paged.TotalCount != 2 || paged.NextPageToken == "" {
		t.Fatalf("unexpected first page %+v", paged)
	}
	next, err := svc.List(ctx, GroupDiscountListFilter{Pagination: Pagination{PageSize: 1, PageToken: paged.NextPageToken}})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(next.Items) != 1 || next.Items[0].ID != inStock.ID || next.NextPageToken != "" {
		t.Fatalf("unexpected second page %+v", next)
	}

	byIDs, err := svc.ListByIDs(ctx, []string{inStock.ID, "missing", inStock.ID}, Pagination{})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if byIDs.TotalCount != 1 || byIDs.Items[0].ID != inStock.ID {
		t.Fatalf("unexpected by-ids page %+v", byIDs)
	}
}

func TestIsGroupDiscountInStock(t *testing.T) {
	cases := []struct {
		name string
		d    GroupDiscount
		want bool
	}{
		{"all stocked", GroupDiscount{BookIDs: []string{"a", "b"}, Books: []domain.Book{{NumberInStock: 1}, {NumberInStock: 3}}}, true},
		{"one empty", GroupDiscount{BookIDs: []string{"a", "b"}, Books: []domain.Book{{NumberInStock: 1}, {NumberInStock: 0}}}, false},
		{"unresolved member", GroupDiscount{BookIDs: []string{"a", "b"}, Books: []domain.Book{{NumberInStock: 1}}}, false},
		{"no books", GroupDiscount{BookIDs: []string{"a", "b"}}, false},
	}
	for _, tc := range cases {
		if got := IsGroupDiscountInStock(tc.d); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestGroupDiscountServiceUnavailable(t *testing.T) {
	store := newMemoryStore(catalog()...)
	svc, err := NewGroupDiscountService(GroupDiscountServiceDeps{
		Discounts: failingDiscounts{memoryDiscounts{store}},
		Books:     memoryBooks{store},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.List(context.Background(), GroupDiscountListFilter{}); !errors.Is(err, ErrGroupDiscountUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

type failingDiscounts struct{ memoryDiscounts }

func (failingDiscounts) List(context.Context) ([]domain.GroupDiscount, error) {
	return nil, stubRepoError{err: errors.New("timeout"), unavailable: true}
}
