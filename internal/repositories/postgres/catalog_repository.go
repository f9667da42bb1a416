package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/repositories"
)

const bookColumns = `id, title, author, image_url, price, number_in_stock, number_sold, updated_at`

// BookRepository reads and seeds the books table.
type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) (*BookRepository, error) {
	if pool == nil {
		return nil, errors.New("book repository requires postgres pool")
	}
	return &BookRepository{pool: pool}, nil
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var book domain.Book
	if err := row.Scan(&book.ID, &book.Title, &book.Author, &book.ImageURL, &book.Price,
		&book.NumberInStock, &book.NumberSold, &book.UpdatedAt); err != nil {
		return domain.Book{}, err
	}
	book.UpdatedAt = book.UpdatedAt.UTC()
	return book, nil
}

// FindByIDs returns existing books in request order.
func (r *BookRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, wrapError("books.getAll", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Book, len(ids))
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, wrapError("books.getAll", err)
		}
		byID[book.ID] = book
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("books.getAll", err)
	}

	books := make([]domain.Book, 0, len(byID))
	for _, id := range ids {
		if book, ok := byID[id]; ok {
			books = append(books, book)
			delete(byID, id)
		}
	}
	return books, nil
}

func (r *BookRepository) FindByID(ctx context.Context, bookID string) (domain.Book, error) {
	book, err := scanBook(r.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, bookID))
	if err != nil {
		return domain.Book{}, wrapError("books.get", err)
	}
	return book, nil
}

// Upsert seeds stock counters on insert only; later calls update the descriptive columns.
func (r *BookRepository) Upsert(ctx context.Context, book domain.Book) (domain.Book, error) {
	if strings.TrimSpace(book.ID) == "" {
		return domain.Book{}, errors.New("book repository: book id is required")
	}
	if book.UpdatedAt.IsZero() {
		book.UpdatedAt = time.Now().UTC()
	}
	saved, err := scanBook(r.pool.QueryRow(ctx, `INSERT INTO books (`+bookColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, author = EXCLUDED.author, image_url = EXCLUDED.image_url,
  price = EXCLUDED.price, updated_at = EXCLUDED.updated_at
RETURNING `+bookColumns,
		book.ID, book.Title, book.Author, book.ImageURL, book.Price, book.NumberInStock, book.NumberSold, book.UpdatedAt.UTC()))
	if err != nil {
		return domain.Book{}, wrapError("books.upsert", err)
	}
	return saved, nil
}

const groupDiscountColumns = `id, bundle_key, discount, book_ids, created_at, updated_at`

// GroupDiscountRepository relies on the unique bundle_key index to reject duplicate book sets.
type GroupDiscountRepository struct {
	pool *pgxpool.Pool
}

func NewGroupDiscountRepository(pool *pgxpool.Pool) (*GroupDiscountRepository, error) {
	if pool == nil {
		return nil, errors.New("group discount repository requires postgres pool")
	}
	return &GroupDiscountRepository{pool: pool}, nil
}

func scanGroupDiscount(row pgx.Row) (domain.GroupDiscount, error) {
	var d domain.GroupDiscount
	if err := row.Scan(&d.ID, &d.Key, &d.Discount, &d.BookIDs, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return domain.GroupDiscount{}, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

func duplicateKeyError(key string, err error) error {
	return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorDuplicate, key, "group discount with the same books already exists", err)
}

func (r *GroupDiscountRepository) Insert(ctx context.Context, discount domain.GroupDiscount) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO group_discounts (`+groupDiscountColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		discount.ID, discount.Key, discount.Discount, discount.BookIDs, discount.CreatedAt.UTC(), discount.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return wrapTypedError("groupDiscounts.insert", duplicateKeyError(discount.Key, err))
	}
	if err != nil {
		return wrapError("groupDiscounts.insert", err)
	}
	return nil
}

func (r *GroupDiscountRepository) Update(ctx context.Context, discount domain.GroupDiscount) error {
	tag, err := r.pool.Exec(ctx, `UPDATE group_discounts SET bundle_key = $2, discount = $3, book_ids = $4, updated_at = $5 WHERE id = $1`,
		discount.ID, discount.Key, discount.Discount, discount.BookIDs, discount.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return wrapTypedError("groupDiscounts.update", duplicateKeyError(discount.Key, err))
	}
	if err != nil {
		return wrapError("groupDiscounts.update", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapTypedError("groupDiscounts.update", repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, discount.Key,
			fmt.Sprintf("group discount %s not found", discount.ID), nil))
	}
	return nil
}

func (r *GroupDiscountRepository) Delete(ctx context.Context, discountID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM group_discounts WHERE id = $1`, discountID)
	if err != nil {
		return wrapError("groupDiscounts.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapTypedError("groupDiscounts.delete", repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, "",
			fmt.Sprintf("group discount %s not found", discountID), nil))
	}
	return nil
}

func (r *GroupDiscountRepository) FindByID(ctx context.Context, discountID string) (domain.GroupDiscount, error) {
	d, err := scanGroupDiscount(r.pool.QueryRow(ctx, `SELECT `+groupDiscountColumns+` FROM group_discounts WHERE id = $1`, discountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GroupDiscount{}, wrapTypedError("groupDiscounts.get", repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, "",
			fmt.Sprintf("group discount %s not found", discountID), err))
	}
	if err != nil {
		return domain.GroupDiscount{}, wrapError("groupDiscounts.get", err)
	}
	return d, nil
}

func (r *GroupDiscountRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.GroupDiscount, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	all, err := r.query(ctx, "groupDiscounts.getAll", `SELECT `+groupDiscountColumns+` FROM group_discounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.GroupDiscount, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	result := make([]domain.GroupDiscount, 0, len(all))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			result = append(result, d)
			delete(byID, id)
		}
	}
	return result, nil
}

func (r *GroupDiscountRepository) List(ctx context.Context) ([]domain.GroupDiscount, error) {
	return r.query(ctx, "groupDiscounts.list", `SELECT `+groupDiscountColumns+` FROM group_discounts ORDER BY created_at DESC, id DESC`)
}

func (r *GroupDiscountRepository) query(ctx context.Context, op, sql string, args ...any) ([]domain.GroupDiscount, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer rows.Close()
	var result []domain.GroupDiscount
	for rows.Next() {
		d, err := scanGroupDiscount(rows)
		if err != nil {
			return nil, wrapError(op, err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, err)
	}
	return result, nil
}
