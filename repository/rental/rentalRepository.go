package rentalrepo

import (
	"context"
	"database/sql"

	"bookcatalog/model"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var dialect = goqu.Dialect("postgres")

// Filter scopes listing to one user; IsActive is optional.
type Filter struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	UserID   string `json:"user_id"`
	IsActive *bool  `json:"is_active,omitempty"`
}

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

// ForUpdateRow is what the return transaction needs to decide:
// who owns the rental, which book it holds, and whether it is still active.
type ForUpdateRow struct {
	UserID   string
	BookID   string
	IsActive bool
}

type Repo interface {
	// Insert writes the rental row inside the order-creation transaction.
	Insert(ctx context.Context, tx *sql.Tx, r *model.Rental) error

	// ForUpdate locks the rental row for the return transaction.
	ForUpdate(ctx context.Context, tx *sql.Tx, rentalID string) (*ForUpdateRow, error)

	MarkReturned(ctx context.Context, tx *sql.Tx, rentalID string) error

	// ByID loads a rental with book and order projections, scoped to the
	// owning user.
	ByID(ctx context.Context, userID, rentalID string) (*model.Rental, error)

	List(ctx context.Context, f Filter) ([]model.Rental, int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, rental *model.Rental) error {
	if rental.ID == "" {
		rental.ID = uuid.NewString()
	}
	rental.IsActive = true
	const q = `
		INSERT INTO rentals (id, order_id, user_id, book_id, duration,
			start_at, end_at, auto_reminder_at, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,true)
		RETURNING created_at`
	return tx.QueryRowContext(ctx, q,
		rental.ID, rental.OrderID, rental.UserID, rental.BookID, rental.Duration,
		rental.StartAt, rental.EndAt, rental.AutoReminderAt,
	).Scan(&rental.CreatedAt)
}

func (r *repo) ForUpdate(ctx context.Context, tx *sql.Tx, rentalID string) (*ForUpdateRow, error) {
	const q = `
		SELECT user_id, book_id, is_active
		FROM rentals
		WHERE id = $1
		FOR UPDATE`
	var row ForUpdateRow
	if err := tx.QueryRowContext(ctx, q, rentalID).Scan(&row.UserID, &row.BookID, &row.IsActive); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, rentalID string) error {
	const q = `
		UPDATE rentals
		SET is_active = false
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, rentalID)
	return err
}

const rentalSelect = `
	SELECT r.id, r.order_id, r.user_id, r.book_id, r.duration,
	       r.start_at, r.end_at, r.auto_reminder_at, r.is_active, r.created_at,
	       b.id, b.title, b.description, b.author_id, b.category_id, b.year,
	       b.price_cents, b.rent_price_cents, b.status, b.available, b.cover_url,
	       b.created_at, b.updated_at,
	       o.id, o.user_id, o.book_id, o.type, o.created_at
	FROM rentals r
	JOIN books b ON b.id = r.book_id
	JOIN orders o ON o.id = r.order_id`

func scanRental(row interface{ Scan(...any) error }) (*model.Rental, error) {
	var (
		rr model.Rental
		b  model.Book
		o  model.Order
	)
	err := row.Scan(
		&rr.ID, &rr.OrderID, &rr.UserID, &rr.BookID, &rr.Duration,
		&rr.StartAt, &rr.EndAt, &rr.AutoReminderAt, &rr.IsActive, &rr.CreatedAt,
		&b.ID, &b.Title, &b.Description, &b.AuthorID, &b.CategoryID, &b.Year,
		&b.PriceCents, &b.RentPriceCents, &b.Status, &b.Available, &b.CoverURL,
		&b.CreatedAt, &b.UpdatedAt,
		&o.ID, &o.UserID, &o.BookID, &o.Type, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rr.Book = &b
	rr.Order = &o
	return &rr, nil
}

func (r *repo) ByID(ctx context.Context, userID, rentalID string) (*model.Rental, error) {
	const q = rentalSelect + ` WHERE r.id = $1 AND r.user_id = $2`
	return scanRental(r.db.QueryRowContext(ctx, q, rentalID, userID))
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Rental, int64, error) {
	f = f.Normalized()

	where := []goqu.Expression{goqu.I("r.user_id").Eq(f.UserID)}
	if f.IsActive != nil {
		where = append(where, goqu.I("r.is_active").Eq(*f.IsActive))
	}

	listSQL, listArgs, err := dialect.From(goqu.T("rentals").As("r")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("r.book_id")))).
		Join(goqu.T("orders").As("o"), goqu.On(goqu.I("o.id").Eq(goqu.I("r.order_id")))).
		Select(goqu.L(`r.id, r.order_id, r.user_id, r.book_id, r.duration,
			r.start_at, r.end_at, r.auto_reminder_at, r.is_active, r.created_at,
			b.id, b.title, b.description, b.author_id, b.category_id, b.year,
			b.price_cents, b.rent_price_cents, b.status, b.available, b.cover_url,
			b.created_at, b.updated_at,
			o.id, o.user_id, o.book_id, o.type, o.created_at`)).
		Where(where...).
		Order(goqu.I("r.start_at").Desc()).
		Offset(uint((f.Page - 1) * f.Limit)).
		Limit(uint(f.Limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := dialect.From(goqu.T("rentals").As("r")).
		Select(goqu.COUNT("*")).
		Where(where...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var (
		rentals []model.Rental
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx, listSQL, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			rr, err := scanRental(rows)
			if err != nil {
				return err
			}
			rentals = append(rentals, *rr)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return rentals, total, nil
}
