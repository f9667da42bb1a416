package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/bookshelf-ua/api/internal/domain"
)

type basketBookRecord struct {
	BookID string `json:"bookId"`
	Count  int    `json:"count"`
}

type basketGroupDiscountRecord struct {
	GroupDiscountID string `json:"groupDiscountId"`
	Count           int    `json:"count"`
}

// BasketRepository keeps one row per user with basket entries stored as jsonb.
type BasketRepository struct {
	pool *pgxpool.Pool
}

func NewBasketRepository(pool *pgxpool.Pool) (*BasketRepository, error) {
	if pool == nil {
		return nil, errors.New("basket repository requires postgres pool")
	}
	return &BasketRepository{pool: pool}, nil
}

type basketQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadBasket(ctx context.Context, q basketQuerier, userID string, forUpdate bool) (domain.Basket, error) {
	sql := `SELECT books, group_discounts, updated_at FROM baskets WHERE user_id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var (
		booksRaw     []byte
		discountsRaw []byte
		updatedAt    time.Time
	)
	err := q.QueryRow(ctx, sql, userID).Scan(&booksRaw, &discountsRaw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Basket{UserID: userID}, nil
	}
	if err != nil {
		return domain.Basket{}, err
	}
	var books []basketBookRecord
	if err := json.Unmarshal(booksRaw, &books); err != nil {
		return domain.Basket{}, fmt.Errorf("decode basket books: %w", err)
	}
	var discounts []basketGroupDiscountRecord
	if err := json.Unmarshal(discountsRaw, &discounts); err != nil {
		return domain.Basket{}, fmt.Errorf("decode basket group discounts: %w", err)
	}
	basket := domain.Basket{UserID: userID, UpdatedAt: updatedAt.UTC()}
	for _, b := range books {
		basket.Books = append(basket.Books, domain.BasketBook(b))
	}
	for _, d := range discounts {
		basket.GroupDiscounts = append(basket.GroupDiscounts, domain.BasketGroupDiscount(d))
	}
	return basket, nil
}

func (r *BasketRepository) Get(ctx context.Context, userID string) (domain.Basket, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Basket{}, errors.New("basket repository: user id is required")
	}
	basket, err := loadBasket(ctx, r.pool, userID, false)
	if err != nil {
		return domain.Basket{}, wrapError("baskets.get", err)
	}
	return basket, nil
}

func (r *BasketRepository) Mutate(ctx context.Context, userID string, fn func(basket *domain.Basket) error) (domain.Basket, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Basket{}, errors.New("basket repository: user id is required")
	}
	if fn == nil {
		return domain.Basket{}, errors.New("basket repository: mutate function is required")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Basket{}, wrapError("baskets.mutate", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the row when it exists; concurrent first writes are serialised by the primary key.
	basket, err := loadBasket(ctx, tx, userID, true)
	if err != nil {
		return domain.Basket{}, wrapError("baskets.mutate", err)
	}
	if err := fn(&basket); err != nil {
		return domain.Basket{}, err
	}
	basket.UserID = userID
	basket.UpdatedAt = time.Now().UTC()

	books := make([]basketBookRecord, 0, len(basket.Books))
	for _, b := range basket.Books {
		books = append(books, basketBookRecord(b))
	}
	discounts := make([]basketGroupDiscountRecord, 0, len(basket.GroupDiscounts))
	for _, d := range basket.GroupDiscounts {
		discounts = append(discounts, basketGroupDiscountRecord(d))
	}
	booksRaw, err := json.Marshal(books)
	if err != nil {
		return domain.Basket{}, fmt.Errorf("encode basket books: %w", err)
	}
	discountsRaw, err := json.Marshal(discounts)
	if err != nil {
		return domain.Basket{}, fmt.Errorf("encode basket group discounts: %w", err)
	}
	_, err = tx.Exec(ctx, `INSERT INTO baskets (user_id, books, group_discounts, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET books = EXCLUDED.books, group_discounts = EXCLUDED.group_discounts, updated_at = EXCLUDED.updated_at`,
		userID, booksRaw, discountsRaw, basket.UpdatedAt)
	if err != nil {
		return domain.Basket{}, wrapError("baskets.mutate", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Basket{}, wrapError("baskets.mutate", err)
	}
	return basket, nil
}

func (r *BasketRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM baskets WHERE user_id = $1`, strings.TrimSpace(userID)); err != nil {
		return wrapError("baskets.clear", err)
	}
	return nil
}
