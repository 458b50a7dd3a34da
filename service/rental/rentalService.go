package rentalsvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"bookcatalog/model"
	bookrepo "bookcatalog/repository/book"
	rentalrepo "bookcatalog/repository/rental"
	"bookcatalog/util/cache"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound        ErrCode = "RENTAL_NOT_FOUND"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts the error code, empty for unclassified errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Filter = rentalrepo.Filter

type Service interface {
	// Return closes an active rental and puts the book back in
	// circulation. A second return attempt is a conflict, not a no-op.
	Return(ctx context.Context, userID, rentalID string) (*model.Rental, error)

	Get(ctx context.Context, userID, rentalID string) (*model.Rental, error)
	List(ctx context.Context, f Filter) (*model.Page[model.Rental], error)
}

type service struct {
	db      *sql.DB
	rentals rentalrepo.Repo
	books   bookrepo.Repo
	cache   cache.Cache
	log     *slog.Logger
}

func New(db *sql.DB, rr rentalrepo.Repo, br bookrepo.Repo, c cache.Cache, log *slog.Logger) Service {
	return &service{db: db, rentals: rr, books: br, cache: c, log: log}
}

func (s *service) Return(ctx context.Context, userID, rentalID string) (_ *model.Rental, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row, err := s.rentals.ForUpdate(ctx, tx, rentalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	// Not-mine reads as not-found so the endpoint leaks no existence info.
	if row.UserID != userID {
		return nil, makeErr(ErrNotFound)
	}
	if !row.IsActive {
		return nil, makeErr(ErrAlreadyReturned)
	}

	if err = s.rentals.MarkReturned(ctx, tx, rentalID); err != nil {
		return nil, err
	}
	if err = s.books.MarkAvailable(ctx, tx, row.BookID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.invalidateBook(ctx, row.BookID)

	return s.rentals.ByID(ctx, userID, rentalID)
}

func (s *service) Get(ctx context.Context, userID, rentalID string) (*model.Rental, error) {
	r, err := s.rentals.ByID(ctx, userID, rentalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return r, nil
}

func (s *service) List(ctx context.Context, f Filter) (*model.Page[model.Rental], error) {
	f = f.Normalized()
	rentals, total, err := s.rentals.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return model.NewPage(rentals, f.Page, f.Limit, total), nil
}

// invalidateBook drops every cache entry a book mutation could have
// staled. Runs only after commit; failures degrade to shorter-lived
// staleness bounded by the entry TTLs and are never surfaced.
func (s *service) invalidateBook(ctx context.Context, bookID string) {
	if err := s.cache.Del(ctx, cache.BookKey(bookID)); err != nil {
		s.log.Warn("cache del failed", "key", cache.BookKey(bookID), "err", err)
	}
	if err := s.cache.DelPattern(ctx, cache.BooksPattern); err != nil {
		s.log.Warn("cache del pattern failed", "pattern", cache.BooksPattern, "err", err)
	}
}
