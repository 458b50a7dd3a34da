package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"bookcatalog/config"
	"bookcatalog/model"
	authorrepo "bookcatalog/repository/author"
	bookrepo "bookcatalog/repository/book"
	categoryrepo "bookcatalog/repository/category"
	"bookcatalog/util/cache"
)

var (
	ErrNotFound         = errors.New("book not found")
	ErrAuthorNotFound   = errors.New("author not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrBadStatus        = errors.New("invalid book status")
	ErrHasActiveRental  = errors.New("book has an active rental")
	ErrHasOrders        = errors.New("book is referenced by orders")
)

type Filter = bookrepo.Filter

type Service interface {
	List(ctx context.Context, f Filter) (*model.Page[model.Book], error)
	Get(ctx context.Context, id string) (*model.Book, error)
	Create(ctx context.Context, req model.CreateBookReq) (*model.Book, error)
	Update(ctx context.Context, id string, req model.UpdateBookReq) (*model.Book, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	books      bookrepo.Repo
	authors    authorrepo.Repo
	categories categoryrepo.Repo
	cache      cache.Cache
	log        *slog.Logger
	listTTL    int
	entityTTL  int
}

func New(br bookrepo.Repo, ar authorrepo.Repo, cr categoryrepo.Repo, c cache.Cache, log *slog.Logger, cfg config.App) Service {
	return &service{
		books:      br,
		authors:    ar,
		categories: cr,
		cache:      c,
		log:        log,
		listTTL:    cfg.CacheListTTL,
		entityTTL:  cfg.CacheEntityTTL,
	}
}

// List serves filtered pages read-through: the normalized filter is the
// cache key, a hit skips the store entirely, a miss populates the entry.
func (s *service) List(ctx context.Context, f Filter) (*model.Page[model.Book], error) {
	f = f.Normalized()
	key := cache.ListKey("books", f)

	var cached model.Page[model.Book]
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("cache get failed", "key", key, "err", err)
	} else if hit {
		return &cached, nil
	}

	books, total, err := s.books.List(ctx, f)
	if err != nil {
		return nil, err
	}
	page := model.NewPage(books, f.Page, f.Limit, total)

	if err := s.cache.Set(ctx, key, page, s.listTTL); err != nil {
		s.log.Warn("cache set failed", "key", key, "err", err)
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, id string) (*model.Book, error) {
	key := cache.BookKey(id)

	var cached model.Book
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("cache get failed", "key", key, "err", err)
	} else if hit {
		return &cached, nil
	}

	book, err := s.books.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, key, book, s.entityTTL); err != nil {
		s.log.Warn("cache set failed", "key", key, "err", err)
	}
	return book, nil
}

func (s *service) Create(ctx context.Context, req model.CreateBookReq) (*model.Book, error) {
	if err := s.checkRefs(ctx, &req.AuthorID, &req.CategoryID); err != nil {
		return nil, err
	}

	book := &model.Book{
		Title:          req.Title,
		Description:    req.Description,
		AuthorID:       req.AuthorID,
		CategoryID:     req.CategoryID,
		Year:           req.Year,
		PriceCents:     req.PriceCents,
		RentPriceCents: req.RentPriceCents,
		CoverURL:       req.CoverURL,
	}
	if err := s.books.Insert(ctx, book); err != nil {
		return nil, err
	}

	s.invalidateLists(ctx)
	return book, nil
}

func (s *service) Update(ctx context.Context, id string, req model.UpdateBookReq) (*model.Book, error) {
	book, err := s.books.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.checkRefs(ctx, req.AuthorID, req.CategoryID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Description != nil {
		book.Description = req.Description
	}
	if req.AuthorID != nil {
		book.AuthorID = *req.AuthorID
	}
	if req.CategoryID != nil {
		book.CategoryID = *req.CategoryID
	}
	if req.Year != nil {
		book.Year = *req.Year
	}
	if req.PriceCents != nil {
		book.PriceCents = *req.PriceCents
	}
	if req.RentPriceCents != nil {
		book.RentPriceCents = *req.RentPriceCents
	}
	if req.CoverURL != nil {
		book.CoverURL = req.CoverURL
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrBadStatus
		}
		// The projection always follows the status.
		book.Status = *req.Status
		book.Available = *req.Status == model.BookAvailable
	}

	if err := s.books.Update(ctx, book); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.invalidate(ctx, id)
	return book, nil
}

// Delete refuses while the book is held by an active rental or referenced
// by order history.
func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.books.ByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	active, err := s.books.ActiveRentalCount(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrHasActiveRental
	}

	orders, err := s.books.OrderCount(ctx, id)
	if err != nil {
		return err
	}
	if orders > 0 {
		return ErrHasOrders
	}

	deleted, err := s.books.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *service) checkRefs(ctx context.Context, authorID, categoryID *string) error {
	if authorID != nil {
		if _, err := s.authors.ByID(ctx, *authorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAuthorNotFound
			}
			return err
		}
	}
	if categoryID != nil {
		if _, err := s.categories.ByID(ctx, *categoryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCategoryNotFound
			}
			return err
		}
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, cache.BookKey(id)); err != nil {
		s.log.Warn("cache del failed", "key", cache.BookKey(id), "err", err)
	}
	s.invalidateLists(ctx)
}

func (s *service) invalidateLists(ctx context.Context) {
	if err := s.cache.DelPattern(ctx, cache.BooksPattern); err != nil {
		s.log.Warn("cache del pattern failed", "pattern", cache.BooksPattern, "err", err)
	}
}
