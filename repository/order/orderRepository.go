package orderrepo

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

// Filter scopes listing to one user; Type is optional.
type Filter struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	UserID string `json:"user_id"`
	Type   string `json:"type,omitempty"`
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

type Repo interface {
	// Insert writes the order row inside the caller's order-creation
	// transaction.
	Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error

	// ByID loads an order with its book and rental projections, scoped to
	// the owning user. sql.ErrNoRows covers both "missing" and "not mine".
	ByID(ctx context.Context, userID, orderID string) (*model.Order, error)

	List(ctx context.Context, f Filter) ([]model.Order, int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO orders (id, user_id, book_id, type)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`
	return tx.QueryRowContext(ctx, q, o.ID, o.UserID, o.BookID, o.Type).Scan(&o.CreatedAt)
}

const orderSelect = `
	SELECT o.id, o.user_id, o.book_id, o.type, o.created_at,
	       b.id, b.title, b.description, b.author_id, b.category_id, b.year,
	       b.price_cents, b.rent_price_cents, b.status, b.available, b.cover_url,
	       b.created_at, b.updated_at,
	       r.id, r.order_id, r.user_id, r.book_id, r.duration,
	       r.start_at, r.end_at, r.auto_reminder_at, r.is_active, r.created_at
	FROM orders o
	JOIN books b ON b.id = o.book_id
	LEFT JOIN rentals r ON r.order_id = o.id`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var (
		o model.Order
		b model.Book

		rID, rOrderID, rUserID, rBookID, rDuration sql.NullString
		rStartAt, rEndAt, rReminderAt, rCreatedAt  sql.NullTime
		rIsActive                                  sql.NullBool
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.BookID, &o.Type, &o.CreatedAt,
		&b.ID, &b.Title, &b.Description, &b.AuthorID, &b.CategoryID, &b.Year,
		&b.PriceCents, &b.RentPriceCents, &b.Status, &b.Available, &b.CoverURL,
		&b.CreatedAt, &b.UpdatedAt,
		&rID, &rOrderID, &rUserID, &rBookID, &rDuration,
		&rStartAt, &rEndAt, &rReminderAt, &rIsActive, &rCreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Book = &b
	if rID.Valid {
		o.Rental = &model.Rental{
			ID:             rID.String,
			OrderID:        rOrderID.String,
			UserID:         rUserID.String,
			BookID:         rBookID.String,
			Duration:       model.RentalDuration(rDuration.String),
			StartAt:        rStartAt.Time,
			EndAt:          rEndAt.Time,
			AutoReminderAt: rReminderAt.Time,
			IsActive:       rIsActive.Bool,
			CreatedAt:      rCreatedAt.Time,
		}
	}
	return &o, nil
}

func (r *repo) ByID(ctx context.Context, userID, orderID string) (*model.Order, error) {
	const q = orderSelect + ` WHERE o.id = $1 AND o.user_id = $2`
	return scanOrder(r.db.QueryRowContext(ctx, q, orderID, userID))
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Order, int64, error) {
	f = f.Normalized()

	where := []goqu.Expression{goqu.C("user_id").Table("o").Eq(f.UserID)}
	if f.Type != "" {
		where = append(where, goqu.C("type").Table("o").Eq(f.Type))
	}

	listSQL, listArgs, err := dialect.From(goqu.T("orders").As("o")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("o.book_id")))).
		LeftJoin(goqu.T("rentals").As("r"), goqu.On(goqu.I("r.order_id").Eq(goqu.I("o.id")))).
		Select(goqu.L(`o.id, o.user_id, o.book_id, o.type, o.created_at,
			b.id, b.title, b.description, b.author_id, b.category_id, b.year,
			b.price_cents, b.rent_price_cents, b.status, b.available, b.cover_url,
			b.created_at, b.updated_at,
			r.id, r.order_id, r.user_id, r.book_id, r.duration,
			r.start_at, r.end_at, r.auto_reminder_at, r.is_active, r.created_at`)).
		Where(where...).
		Order(goqu.I("o.created_at").Desc()).
		Offset(uint((f.Page - 1) * f.Limit)).
		Limit(uint(f.Limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := dialect.From(goqu.T("orders").As("o")).
		Select(goqu.COUNT("*")).
		Where(where...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var (
		orders []model.Order
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx, listSQL, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			orders = append(orders, *o)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
