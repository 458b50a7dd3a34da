package ordersvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"bookcatalog/model"
	bookrepo "bookcatalog/repository/book"
	orderrepo "bookcatalog/repository/order"
	rentalrepo "bookcatalog/repository/rental"
	rentalsvc "bookcatalog/service/rental"
	"bookcatalog/util/cache"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrBookUnavailable ErrCode = "BOOK_UNAVAILABLE"
	ErrMissingDuration ErrCode = "MISSING_DURATION"
	ErrBadDuration     ErrCode = "BAD_DURATION"
	ErrBadType         ErrCode = "BAD_TYPE"
	ErrOrderNotFound   ErrCode = "ORDER_NOT_FOUND"
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

type Filter = orderrepo.Filter

type Service interface {
	// Create places a purchase or rental order for an AVAILABLE book.
	// The book row read, the availability check, the order/rental writes
	// and the status transition all happen in one transaction; under a
	// race on the same book exactly one caller wins and the rest get
	// ErrBookUnavailable.
	Create(ctx context.Context, userID string, req model.CreateOrderReq) (*model.Order, error)

	Get(ctx context.Context, userID, orderID string) (*model.Order, error)
	List(ctx context.Context, f Filter) (*model.Page[model.Order], error)
}

type service struct {
	db           *sql.DB
	orders       orderrepo.Repo
	books        bookrepo.Repo
	rentals      rentalrepo.Repo
	cache        cache.Cache
	log          *slog.Logger
	reminderLead time.Duration
	now          func() time.Time
}

func New(db *sql.DB, or orderrepo.Repo, br bookrepo.Repo, rr rentalrepo.Repo, c cache.Cache, log *slog.Logger, reminderLead time.Duration) Service {
	return &service{
		db:           db,
		orders:       or,
		books:        br,
		rentals:      rr,
		cache:        c,
		log:          log,
		reminderLead: reminderLead,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, userID string, req model.CreateOrderReq) (_ *model.Order, err error) {
	orderType := model.OrderType(req.Type)
	if !orderType.Valid() {
		return nil, makeErr(ErrBadType)
	}

	var duration model.RentalDuration
	if orderType == model.OrderRental {
		if req.Duration == "" {
			return nil, makeErr(ErrMissingDuration)
		}
		duration = model.RentalDuration(req.Duration)
		if !duration.Valid() {
			return nil, makeErr(ErrBadDuration)
		}
	}

	// Fast-path check outside the transaction. The guarded transition
	// below re-verifies AVAILABLE, so a race here only changes which
	// error the loser sees, never the outcome.
	book, err := s.books.ByID(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}
	if !book.Available || book.Status != model.BookAvailable {
		return nil, makeErr(ErrBookUnavailable)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order := &model.Order{
		UserID: userID,
		BookID: book.ID,
		Type:   orderType,
	}
	if err = s.orders.Insert(ctx, tx, order); err != nil {
		return nil, err
	}

	target := model.BookSold
	if orderType == model.OrderRental {
		target = model.BookRented

		var dates rentalsvc.Dates
		dates, err = rentalsvc.CalcDates(duration, s.now(), s.reminderLead)
		if err != nil {
			return nil, makeErr(ErrBadDuration)
		}

		rental := &model.Rental{
			OrderID:        order.ID,
			UserID:         userID,
			BookID:         book.ID,
			Duration:       duration,
			StartAt:        dates.StartAt,
			EndAt:          dates.EndAt,
			AutoReminderAt: dates.AutoReminderAt,
		}
		if err = s.rentals.Insert(ctx, tx, rental); err != nil {
			return nil, err
		}
	}

	var won bool
	won, err = s.books.TransitionFromAvailable(ctx, tx, book.ID, target)
	if err != nil {
		return nil, err
	}
	if !won {
		// Someone else ordered this book between our read and now.
		err = makeErr(ErrBookUnavailable)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.invalidateBook(ctx, book.ID)

	return s.orders.ByID(ctx, userID, order.ID)
}

func (s *service) Get(ctx context.Context, userID, orderID string) (*model.Order, error) {
	o, err := s.orders.ByID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrOrderNotFound)
		}
		return nil, err
	}
	return o, nil
}

func (s *service) List(ctx context.Context, f Filter) (*model.Page[model.Order], error) {
	f = f.Normalized()
	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return model.NewPage(orders, f.Page, f.Limit, total), nil
}

// invalidateBook runs only after a committed transaction; an aborted
// order must leave the cache untouched. Failures are logged and
// swallowed: the cache degrades, the order stands.
func (s *service) invalidateBook(ctx context.Context, bookID string) {
	if err := s.cache.Del(ctx, cache.BookKey(bookID)); err != nil {
		s.log.Warn("cache del failed", "key", cache.BookKey(bookID), "err", err)
	}
	if err := s.cache.DelPattern(ctx, cache.BooksPattern); err != nil {
		s.log.Warn("cache del pattern failed", "pattern", cache.BooksPattern, "err", err)
	}
}
