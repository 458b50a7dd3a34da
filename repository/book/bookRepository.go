package bookrepo

import (
	"context"
	"database/sql"
	"time"

	"bookcatalog/model"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var dialect = goqu.Dialect("postgres")

// Filter is the fully-specified list query. It is built once by the
// controller/service and never mutated afterwards; its JSON form doubles
// as the collection cache key, so field order and omitempty matter.
type Filter struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	AuthorID   string `json:"author_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Year       int    `json:"year,omitempty"`
	Status     string `json:"status,omitempty"`
	Search     string `json:"search,omitempty"`
}

// Normalized returns the filter with pagination defaults applied.
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

type Repo interface {
	List(ctx context.Context, f Filter) ([]model.Book, int64, error)
	ByID(ctx context.Context, id string) (*model.Book, error)
	Insert(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id string) (bool, error)

	// TransitionFromAvailable flips the book out of AVAILABLE inside the
	// caller's transaction. The status guard in the WHERE clause is the
	// compare-and-swap that makes concurrent orders on one book safe:
	// false means some other transaction got there first.
	TransitionFromAvailable(ctx context.Context, tx *sql.Tx, bookID string, to model.BookStatus) (bool, error)

	// MarkAvailable puts a returned book back in circulation, keeping the
	// available projection in step with the status.
	MarkAvailable(ctx context.Context, tx *sql.Tx, bookID string) error

	ActiveRentalCount(ctx context.Context, bookID string) (int64, error)
	OrderCount(ctx context.Context, bookID string) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookCols = `id, title, description, author_id, category_id, year,
	price_cents, rent_price_cents, status, available, cover_url, created_at, updated_at`

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Description, &b.AuthorID, &b.CategoryID, &b.Year,
		&b.PriceCents, &b.RentPriceCents, &b.Status, &b.Available, &b.CoverURL,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (f Filter) where() []goqu.Expression {
	var exprs []goqu.Expression
	if f.AuthorID != "" {
		exprs = append(exprs, goqu.C("author_id").Eq(f.AuthorID))
	}
	if f.CategoryID != "" {
		exprs = append(exprs, goqu.C("category_id").Eq(f.CategoryID))
	}
	if f.Year != 0 {
		exprs = append(exprs, goqu.C("year").Eq(f.Year))
	}
	if f.Status != "" {
		exprs = append(exprs, goqu.C("status").Eq(f.Status))
	}
	if f.Search != "" {
		exprs = append(exprs, goqu.C("title").ILike("%"+f.Search+"%"))
	}
	return exprs
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Book, int64, error) {
	f = f.Normalized()

	listSQL, listArgs, err := dialect.From("books").
		Select(goqu.L(bookCols)).
		Where(f.where()...).
		Order(goqu.C("created_at").Desc()).
		Offset(uint((f.Page - 1) * f.Limit)).
		Limit(uint(f.Limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := dialect.From("books").
		Select(goqu.COUNT("*")).
		Where(f.where()...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var (
		books []model.Book
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx, listSQL, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			b, err := scanBook(rows)
			if err != nil {
				return err
			}
			books = append(books, *b)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *repo) ByID(ctx context.Context, id string) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id = $1`
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) Insert(ctx context.Context, b *model.Book) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Status = model.BookAvailable
	b.Available = true
	const q = `
		INSERT INTO books (id, title, description, author_id, category_id, year,
			price_cents, rent_price_cents, status, available, cover_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		b.ID, b.Title, b.Description, b.AuthorID, b.CategoryID, b.Year,
		b.PriceCents, b.RentPriceCents, b.Status, b.Available, b.CoverURL,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	b.UpdatedAt = time.Now().UTC()
	const q = `
		UPDATE books
		SET title=$2, description=$3, author_id=$4, category_id=$5, year=$6,
			price_cents=$7, rent_price_cents=$8, status=$9, available=$10,
			cover_url=$11, updated_at=$12
		WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q,
		b.ID, b.Title, b.Description, b.AuthorID, b.CategoryID, b.Year,
		b.PriceCents, b.RentPriceCents, b.Status, b.Available, b.CoverURL,
		b.UpdatedAt,
	)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) TransitionFromAvailable(ctx context.Context, tx *sql.Tx, bookID string, to model.BookStatus) (bool, error) {
	const q = `
		UPDATE books
		SET status = $2, available = false, updated_at = NOW()
		WHERE id = $1 AND status = 'AVAILABLE'`
	res, err := tx.ExecContext(ctx, q, bookID, to)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}

func (r *repo) MarkAvailable(ctx context.Context, tx *sql.Tx, bookID string) error {
	const q = `
		UPDATE books
		SET status = 'AVAILABLE', available = true, updated_at = NOW()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, bookID)
	return err
}

func (r *repo) ActiveRentalCount(ctx context.Context, bookID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM rentals WHERE book_id = $1 AND is_active`
	var n int64
	err := r.db.QueryRowContext(ctx, q, bookID).Scan(&n)
	return n, err
}

func (r *repo) OrderCount(ctx context.Context, bookID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM orders WHERE book_id = $1`
	var n int64
	err := r.db.QueryRowContext(ctx, q, bookID).Scan(&n)
	return n, err
}
