package categorysvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bookcatalog/model"
	categoryrepo "bookcatalog/repository/category"
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrNameTaken = errors.New("category name already exists")
	ErrHasBooks  = errors.New("category is referenced by books")
)

type Filter = categoryrepo.Filter

type Service interface {
	List(ctx context.Context, f Filter) (*model.Page[model.Category], error)
	Get(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, req model.CreateCategoryReq) (*model.Category, error)
	Update(ctx context.Context, id string, req model.UpdateCategoryReq) (*model.Category, error)
	Delete(ctx context.Context, id string) error
}

type service struct{ categories categoryrepo.Repo }

func New(cr categoryrepo.Repo) Service { return &service{categories: cr} }

func (s *service) List(ctx context.Context, f Filter) (*model.Page[model.Category], error) {
	f = f.Normalized()
	categories, total, err := s.categories.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return model.NewPage(categories, f.Page, f.Limit, total), nil
}

func (s *service) Get(ctx context.Context, id string) (*model.Category, error) {
	c, err := s.categories.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *service) Create(ctx context.Context, req model.CreateCategoryReq) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)

	if _, err := s.categories.ByName(ctx, name); err == nil {
		return nil, ErrNameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	c := &model.Category{Name: name}
	if err := s.categories.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, id string, req model.UpdateCategoryReq) (*model.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if !strings.EqualFold(name, c.Name) {
		if _, err := s.categories.ByName(ctx, name); err == nil {
			return nil, ErrNameTaken
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	c.Name = name

	if err := s.categories.Update(ctx, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	n, err := s.categories.BookCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasBooks
	}

	deleted, err := s.categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
