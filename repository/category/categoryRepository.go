package categoryrepo

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

type Filter struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"search,omitempty"`
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
	List(ctx context.Context, f Filter) ([]model.Category, int64, error)
	ByID(ctx context.Context, id string) (*model.Category, error)
	ByName(ctx context.Context, name string) (*model.Category, error)
	Insert(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id string) (bool, error)
	BookCount(ctx context.Context, id string) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) List(ctx context.Context, f Filter) ([]model.Category, int64, error) {
	f = f.Normalized()

	var where []goqu.Expression
	if f.Search != "" {
		where = append(where, goqu.I("c.name").ILike("%"+f.Search+"%"))
	}

	listSQL, listArgs, err := dialect.From(goqu.T("categories").As("c")).
		LeftJoin(goqu.T("books").As("b"), goqu.On(goqu.I("b.category_id").Eq(goqu.I("c.id")))).
		Select(goqu.L(`c.id, c.name, c.created_at, COUNT(b.id)`)).
		Where(where...).
		GroupBy(goqu.I("c.id")).
		Order(goqu.I("c.name").Asc()).
		Offset(uint((f.Page - 1) * f.Limit)).
		Limit(uint(f.Limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := dialect.From(goqu.T("categories").As("c")).
		Select(goqu.COUNT("*")).
		Where(where...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var (
		categories []model.Category
		total      int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx, listSQL, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c model.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.BookCount); err != nil {
				return err
			}
			categories = append(categories, c)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

func (r *repo) ByID(ctx context.Context, id string) (*model.Category, error) {
	const q = `
		SELECT c.id, c.name, c.created_at, COUNT(b.id)
		FROM categories c
		LEFT JOIN books b ON b.category_id = c.id
		WHERE c.id = $1
		GROUP BY c.id`
	var c model.Category
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.BookCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) ByName(ctx context.Context, name string) (*model.Category, error) {
	const q = `
		SELECT id, name, created_at
		FROM categories
		WHERE lower(name) = lower(trim($1))`
	var c model.Category
	err := r.db.QueryRowContext(ctx, q, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) Insert(ctx context.Context, c *model.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO categories (id, name)
		VALUES ($1,$2)
		RETURNING created_at`
	return r.db.QueryRowContext(ctx, q, c.ID, c.Name).Scan(&c.CreatedAt)
}

func (r *repo) Update(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name=$2 WHERE id=$1`, c.ID, c.Name)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) BookCount(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE category_id = $1`, id).Scan(&n)
	return n, err
}
