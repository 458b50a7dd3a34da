package notificationsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookcatalog/model"
	notificationrepo "bookcatalog/repository/notification"
)

var ErrNotFound = errors.New("notification not found")

type Filter = notificationrepo.Filter

type Service interface {
	List(ctx context.Context, f Filter) (*model.Page[model.Notification], error)
	Get(ctx context.Context, userID, id string) (*model.Notification, error)

	// MarkRead is idempotent: marking an already-read notification
	// returns it unchanged.
	MarkRead(ctx context.Context, userID, id string) (*model.Notification, error)

	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type service struct{ notifications notificationrepo.Repo }

func New(nr notificationrepo.Repo) Service { return &service{notifications: nr} }

func (s *service) List(ctx context.Context, f Filter) (*model.Page[model.Notification], error) {
	f = f.Normalized()
	notifications, total, err := s.notifications.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return model.NewPage(notifications, f.Page, f.Limit, total), nil
}

func (s *service) Get(ctx context.Context, userID, id string) (*model.Notification, error) {
	n, err := s.notifications.ByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	n, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	return s.notifications.MarkRead(ctx, id, time.Now().UTC())
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}
