package authorrepo

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
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Search    string `json:"search,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
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
	switch f.SortBy {
	case "name", "created_at":
	default:
		f.SortBy = "created_at"
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
	return f
}

type Repo interface {
	List(ctx context.Context, f Filter) ([]model.Author, int64, error)
	ByID(ctx context.Context, id string) (*model.Author, error)
	ByName(ctx context.Context, name string) (*model.Author, error)
	Insert(ctx context.Context, a *model.Author) error
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id string) (bool, error)
	BookCount(ctx context.Context, id string) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) List(ctx context.Context, f Filter) ([]model.Author, int64, error) {
	f = f.Normalized()

	var where []goqu.Expression
	if f.Search != "" {
		where = append(where, goqu.I("a.name").ILike("%"+f.Search+"%"))
	}

	order := goqu.I("a." + f.SortBy).Desc()
	if f.SortOrder == "asc" {
		order = goqu.I("a." + f.SortBy).Asc()
	}

	listSQL, listArgs, err := dialect.From(goqu.T("authors").As("a")).
		LeftJoin(goqu.T("books").As("b"), goqu.On(goqu.I("b.author_id").Eq(goqu.I("a.id")))).
		Select(goqu.L(`a.id, a.name, a.bio, a.created_at, COUNT(b.id)`)).
		Where(where...).
		GroupBy(goqu.I("a.id")).
		Order(order).
		Offset(uint((f.Page - 1) * f.Limit)).
		Limit(uint(f.Limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := dialect.From(goqu.T("authors").As("a")).
		Select(goqu.COUNT("*")).
		Where(where...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var (
		authors []model.Author
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
			var a model.Author
			if err := rows.Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt, &a.BookCount); err != nil {
				return err
			}
			authors = append(authors, a)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

func (r *repo) ByID(ctx context.Context, id string) (*model.Author, error) {
	const q = `
		SELECT a.id, a.name, a.bio, a.created_at, COUNT(b.id)
		FROM authors a
		LEFT JOIN books b ON b.author_id = a.id
		WHERE a.id = $1
		GROUP BY a.id`
	var a model.Author
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt, &a.BookCount)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) ByName(ctx context.Context, name string) (*model.Author, error) {
	const q = `
		SELECT id, name, bio, created_at
		FROM authors
		WHERE lower(name) = lower(trim($1))`
	var a model.Author
	err := r.db.QueryRowContext(ctx, q, name).Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) Insert(ctx context.Context, a *model.Author) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO authors (id, name, bio)
		VALUES ($1,$2,$3)
		RETURNING created_at`
	return r.db.QueryRowContext(ctx, q, a.ID, a.Name, a.Bio).Scan(&a.CreatedAt)
}

func (r *repo) Update(ctx context.Context, a *model.Author) error {
	const q = `UPDATE authors SET name=$2, bio=$3 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, a.ID, a.Name, a.Bio)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) BookCount(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE author_id = $1`, id).Scan(&n)
	return n, err
}
