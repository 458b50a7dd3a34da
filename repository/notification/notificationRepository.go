package notificationrepo

import (
	"context"
	"database/sql"
	"time"

	"bookcatalog/model"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"golang.org/x/sync/errgroup"
)

var dialect = goqu.Dialect("postgres")

type Filter struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	UserID string `json:"user_id"`
	Read   *bool  `json:"read,omitempty"`
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
	List(ctx context.Context, f Filter) ([]model.Notification, int64, error)
	ByID(ctx context.Context, userID, id string) (*model.Notification, error)
	MarkRead(ctx context.Context, id string, sentAt time.Time) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const cols = `id, user_id, rental_id, message, read, sent_at, created_at`

func scan(row interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.RentalID, &n.Message, &n.Read, &n.SentAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Notification, int64, error) {
	f = f.Normalized()

	where := []goqu.Expression{goqu.C("user_id").Eq(f.UserID)}
	if f.Read != nil {
		where = append(where, goqu.C("read").Eq(*f.Read))
	}

	listSQL, listArgs, err := dialect.From("notifications").
		Select(goqu.L(cols)).
		Where(where...).
		Order(goqu.C("created_at").Desc()).
		Offset(uint((f.Page - 1) * f.Limit)).
		Limit(uint(f.Limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := dialect.From("notifications").
		Select(goqu.COUNT("*")).
		Where(where...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var (
		out   []model.Notification
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
			n, err := scan(rows)
			if err != nil {
				return err
			}
			out = append(out, *n)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repo) ByID(ctx context.Context, userID, id string) (*model.Notification, error) {
	const q = `SELECT ` + cols + ` FROM notifications WHERE id = $1 AND user_id = $2`
	return scan(r.db.QueryRowContext(ctx, q, id, userID))
}

func (r *repo) MarkRead(ctx context.Context, id string, sentAt time.Time) (*model.Notification, error) {
	const q = `
		UPDATE notifications
		SET read = true, sent_at = COALESCE(sent_at, $2)
		WHERE id = $1
		RETURNING ` + cols
	return scan(r.db.QueryRowContext(ctx, q, id, sentAt))
}

func (r *repo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	const q = `UPDATE notifications SET read = true WHERE user_id = $1 AND NOT read`
	res, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
