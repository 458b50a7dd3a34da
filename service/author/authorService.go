package authorsvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bookcatalog/model"
	authorrepo "bookcatalog/repository/author"
)

var (
	ErrNotFound  = errors.New("author not found")
	ErrNameTaken = errors.New("author name already exists")
	ErrHasBooks  = errors.New("author is referenced by books")
)

type Filter = authorrepo.Filter

type Service interface {
	List(ctx context.Context, f Filter) (*model.Page[model.Author], error)
	Get(ctx context.Context, id string) (*model.Author, error)
	Create(ctx context.Context, req model.CreateAuthorReq) (*model.Author, error)
	Update(ctx context.Context, id string, req model.UpdateAuthorReq) (*model.Author, error)
	Delete(ctx context.Context, id string) error
}

type service struct{ authors authorrepo.Repo }

func New(ar authorrepo.Repo) Service { return &service{authors: ar} }

func (s *service) List(ctx context.Context, f Filter) (*model.Page[model.Author], error) {
	f = f.Normalized()
	authors, total, err := s.authors.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return model.NewPage(authors, f.Page, f.Limit, total), nil
}

func (s *service) Get(ctx context.Context, id string) (*model.Author, error) {
	a, err := s.authors.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *service) Create(ctx context.Context, req model.CreateAuthorReq) (*model.Author, error) {
	name := strings.TrimSpace(req.Name)

	if _, err := s.authors.ByName(ctx, name); err == nil {
		return nil, ErrNameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	a := &model.Author{Name: name, Bio: req.Bio}
	if err := s.authors.Insert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Update(ctx context.Context, id string, req model.UpdateAuthorReq) (*model.Author, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !strings.EqualFold(name, a.Name) {
			if _, err := s.authors.ByName(ctx, name); err == nil {
				return nil, ErrNameTaken
			} else if !errors.Is(err, sql.ErrNoRows) {
				return nil, err
			}
		}
		a.Name = name
	}
	if req.Bio != nil {
		a.Bio = req.Bio
	}

	if err := s.authors.Update(ctx, a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	n, err := s.authors.BookCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasBooks
	}

	deleted, err := s.authors.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
