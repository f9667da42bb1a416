package postgres

import (
	"testing"

	domain "github.com/bookshelf-ua/api/internal/domain"
)

func TestLockOrderSortsByBookID(t *testing.T) {
	deltas := []domain.StockDelta{
		{BookID: "b3", InStockDelta: -1, SoldDelta: 1},
		{BookID: "b1", InStockDelta: -2, SoldDelta: 2},
		{BookID: "b2", InStockDelta: -3, SoldDelta: 3},
	}

	got := lockOrder(deltas)
	want := []string{"b1", "b2", "b3"}
	for i, delta := range got {
		if delta.BookID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], delta.BookID)
		}
	}
	if got[0].InStockDelta != -2 || got[2].SoldDelta != 1 {
		t.Fatalf("deltas must travel with their book, got %+v", got)
	}
	if deltas[0].BookID != "b3" {
		t.Fatalf("input must not be reordered, got %+v", deltas)
	}
}
