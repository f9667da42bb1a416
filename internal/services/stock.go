package services

import (
	domain "github.com/bookshelf-ua/api/internal/domain"
)

// ConfirmDeltas aggregates order lines into one delta per book: stock goes down and sold goes up
// by the ordered count. Books keep first-appearance order so stores touch them deterministically.
func ConfirmDeltas(lines []OrderLine) []domain.StockDelta {
	index := make(map[string]int, len(lines))
	deltas := make([]domain.StockDelta, 0, len(lines))
	for _, line := range lines {
		if line.Count <= 0 {
			continue
		}
		if i, ok := index[line.BookID]; ok {
			deltas[i].InStockDelta -= int64(line.Count)
			deltas[i].SoldDelta += int64(line.Count)
			continue
		}
		index[line.BookID] = len(deltas)
		deltas = append(deltas, domain.StockDelta{
			BookID:       line.BookID,
			InStockDelta: -int64(line.Count),
			SoldDelta:    int64(line.Count),
		})
	}
	return deltas
}

// NegateDeltas returns the deltas that undo the given ones.
func NegateDeltas(deltas []domain.StockDelta) []domain.StockDelta {
	out := make([]domain.StockDelta, len(deltas))
	for i, d := range deltas {
		out[i] = domain.StockDelta{BookID: d.BookID, InStockDelta: -d.InStockDelta, SoldDelta: -d.SoldDelta}
	}
	return out
}

// ComputeOrderTotals derives the sums shown on an order. Line discounts are percentages applied to
// the line total and rounded down to the minor unit.
func ComputeOrderTotals(lines []OrderLine) OrderTotals {
	var totals OrderTotals
	for _, line := range lines {
		if line.Count <= 0 {
			continue
		}
		lineTotal := line.Price * int64(line.Count)
		totals.FinalSum += lineTotal
		discount := int64(line.Discount)
		if discount < 0 {
			discount = 0
		}
		if discount > 100 {
			discount = 100
		}
		totals.FinalSumWithDiscounts += lineTotal * (100 - discount) / 100
		totals.BooksCount += line.Count
	}
	return totals
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
