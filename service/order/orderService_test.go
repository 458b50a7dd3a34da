package ordersvc

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookcatalog/model"
	bookrepo "bookcatalog/repository/book"
	orderrepo "bookcatalog/repository/order"
	rentalrepo "bookcatalog/repository/rental"
	"bookcatalog/testutil"
	"bookcatalog/util/cache"
)

type mockBookRepo struct {
	byIDFn       func(ctx context.Context, id string) (*model.Book, error)
	transitionFn func(ctx context.Context, tx *sql.Tx, bookID string, to model.BookStatus) (bool, error)
}

func (m *mockBookRepo) List(context.Context, bookrepo.Filter) ([]model.Book, int64, error) {
	panic("unexpected List")
}
func (m *mockBookRepo) ByID(ctx context.Context, id string) (*model.Book, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockBookRepo) Insert(context.Context, *model.Book) error { panic("unexpected Insert") }
func (m *mockBookRepo) Update(context.Context, *model.Book) error { panic("unexpected Update") }
func (m *mockBookRepo) Delete(context.Context, string) (bool, error) {
	panic("unexpected Delete")
}
func (m *mockBookRepo) TransitionFromAvailable(ctx context.Context, tx *sql.Tx, bookID string, to model.BookStatus) (bool, error) {
	return m.transitionFn(ctx, tx, bookID, to)
}
func (m *mockBookRepo) MarkAvailable(context.Context, *sql.Tx, string) error {
	panic("unexpected MarkAvailable")
}
func (m *mockBookRepo) ActiveRentalCount(context.Context, string) (int64, error) {
	panic("unexpected ActiveRentalCount")
}
func (m *mockBookRepo) OrderCount(context.Context, string) (int64, error) {
	panic("unexpected OrderCount")
}

type mockOrderRepo struct {
	insertFn func(ctx context.Context, tx *sql.Tx, o *model.Order) error
	byIDFn   func(ctx context.Context, userID, orderID string) (*model.Order, error)
	listFn   func(ctx context.Context, f orderrepo.Filter) ([]model.Order, int64, error)
}

func (m *mockOrderRepo) Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	return m.insertFn(ctx, tx, o)
}
func (m *mockOrderRepo) ByID(ctx context.Context, userID, orderID string) (*model.Order, error) {
	return m.byIDFn(ctx, userID, orderID)
}
func (m *mockOrderRepo) List(ctx context.Context, f orderrepo.Filter) ([]model.Order, int64, error) {
	return m.listFn(ctx, f)
}

type mockRentalRepo struct {
	insertFn func(ctx context.Context, tx *sql.Tx, r *model.Rental) error
}

func (m *mockRentalRepo) Insert(ctx context.Context, tx *sql.Tx, r *model.Rental) error {
	return m.insertFn(ctx, tx, r)
}
func (m *mockRentalRepo) ForUpdate(context.Context, *sql.Tx, string) (*rentalrepo.ForUpdateRow, error) {
	panic("unexpected ForUpdate")
}
func (m *mockRentalRepo) MarkReturned(context.Context, *sql.Tx, string) error {
	panic("unexpected MarkReturned")
}
func (m *mockRentalRepo) ByID(context.Context, string, string) (*model.Rental, error) {
	panic("unexpected ByID")
}
func (m *mockRentalRepo) List(context.Context, rentalrepo.Filter) ([]model.Rental, int64, error) {
	panic("unexpected List")
}

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func availableBook(id string) *model.Book {
	return &model.Book{
		ID:        id,
		Title:     "Dune",
		Status:    model.BookAvailable,
		Available: true,
	}
}

func seedBookKeys(t *testing.T, fc *testutil.FakeCache, bookID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, fc.Set(ctx, cache.BookKey(bookID), availableBook(bookID), 600))
	require.NoError(t, fc.Set(ctx, cache.ListKey("books", bookrepo.Filter{Page: 1, Limit: 10}), []model.Book{}, 300))
}

func TestCreatePurchase(t *testing.T) {
	ctx := context.Background()
	db, rec := testutil.NewFakeDB()
	fc := testutil.NewFakeCache()
	seedBookKeys(t, fc, "b1")

	var insertedType model.OrderType
	or := &mockOrderRepo{
		insertFn: func(_ context.Context, tx *sql.Tx, o *model.Order) error {
			require.NotNil(t, tx)
			insertedType = o.Type
			o.ID = "o1"
			o.CreatedAt = time.Now()
			return nil
		},
		byIDFn: func(_ context.Context, userID, orderID string) (*model.Order, error) {
			return &model.Order{ID: orderID, UserID: userID, BookID: "b1", Type: model.OrderPurchase}, nil
		},
	}
	var gotTarget model.BookStatus
	br := &mockBookRepo{
		byIDFn: func(_ context.Context, id string) (*model.Book, error) { return availableBook(id), nil },
		transitionFn: func(_ context.Context, _ *sql.Tx, _ string, to model.BookStatus) (bool, error) {
			gotTarget = to
			return true, nil
		},
	}

	svc := New(db, or, br, &mockRentalRepo{}, fc, testLog, 48*time.Hour)
	got, err := svc.Create(ctx, "u1", model.CreateOrderReq{BookID: "b1", Type: "PURCHASE"})
	require.NoError(t, err)
	require.Equal(t, "o1", got.ID)
	require.Equal(t, model.OrderPurchase, insertedType)
	require.Equal(t, model.BookSold, gotTarget)

	require.EqualValues(t, 1, rec.Commits.Load())
	require.EqualValues(t, 0, rec.Rollbacks.Load())

	// invalidation ran after commit
	require.False(t, fc.Has(cache.BookKey("b1")))
	require.Equal(t, 0, fc.Len())
}

func TestCreateRentalComputesDates(t *testing.T) {
	ctx := context.Background()
	db, rec := testutil.NewFakeDB()
	fc := testutil.NewFakeCache()

	start := time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)

	var inserted *model.Rental
	rr := &mockRentalRepo{
		insertFn: func(_ context.Context, tx *sql.Tx, r *model.Rental) error {
			require.NotNil(t, tx)
			inserted = r
			r.ID = "r1"
			return nil
		},
	}
	or := &mockOrderRepo{
		insertFn: func(_ context.Context, _ *sql.Tx, o *model.Order) error {
			o.ID = "o1"
			return nil
		},
		byIDFn: func(_ context.Context, userID, orderID string) (*model.Order, error) {
			return &model.Order{ID: orderID, UserID: userID, BookID: "b1", Type: model.OrderRental}, nil
		},
	}
	var gotTarget model.BookStatus
	br := &mockBookRepo{
		byIDFn: func(_ context.Context, id string) (*model.Book, error) { return availableBook(id), nil },
		transitionFn: func(_ context.Context, _ *sql.Tx, _ string, to model.BookStatus) (bool, error) {
			gotTarget = to
			return true, nil
		},
	}

	svc := New(db, or, br, rr, fc, testLog, 48*time.Hour).(*service)
	svc.now = func() time.Time { return start }

	_, err := svc.Create(ctx, "u1", model.CreateOrderReq{BookID: "b1", Type: "RENTAL", Duration: "ONE_MONTH"})
	require.NoError(t, err)

	require.Equal(t, model.BookRented, gotTarget)
	require.NotNil(t, inserted)
	require.Equal(t, "o1", inserted.OrderID)
	require.Equal(t, "u1", inserted.UserID)
	require.Equal(t, model.OneMonth, inserted.Duration)
	require.Equal(t, start, inserted.StartAt)
	// Jan 31 + one calendar month normalizes past February.
	require.Equal(t, time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC), inserted.EndAt)
	require.Equal(t, inserted.EndAt.Add(-48*time.Hour), inserted.AutoReminderAt)

	require.EqualValues(t, 1, rec.Commits.Load())
}

func TestCreateValidation(t *testing.T) {
	db, _ := testutil.NewFakeDB()
	br := &mockBookRepo{
		byIDFn: func(_ context.Context, id string) (*model.Book, error) { return availableBook(id), nil },
	}
	svc := New(db, &mockOrderRepo{}, br, &mockRentalRepo{}, testutil.NewFakeCache(), testLog, 48*time.Hour)

	cases := []struct {
		name string
		req  model.CreateOrderReq
		code ErrCode
	}{
		{"bad type", model.CreateOrderReq{BookID: "b1", Type: "LEASE"}, ErrBadType},
		{"rental without duration", model.CreateOrderReq{BookID: "b1", Type: "RENTAL"}, ErrMissingDuration},
		{"rental with bad duration", model.CreateOrderReq{BookID: "b1", Type: "RENTAL", Duration: "SIX_YEARS"}, ErrBadDuration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tc.req)
			require.Equal(t, tc.code, Code(err))
		})
	}
}

func TestCreateBookNotFound(t *testing.T) {
	db, rec := testutil.NewFakeDB()
	br := &mockBookRepo{
		byIDFn: func(context.Context, string) (*model.Book, error) { return nil, sql.ErrNoRows },
	}
	svc := New(db, &mockOrderRepo{}, br, &mockRentalRepo{}, testutil.NewFakeCache(), testLog, 48*time.Hour)

	_, err := svc.Create(context.Background(), "u1", model.CreateOrderReq{BookID: "nope", Type: "PURCHASE"})
	require.Equal(t, ErrBookNotFound, Code(err))
	require.EqualValues(t, 0, rec.Commits.Load())
}

func TestCreateBookNotAvailable(t *testing.T) {
	db, rec := testutil.NewFakeDB()
	br := &mockBookRepo{
		byIDFn: func(_ context.Context, id string) (*model.Book, error) {
			b := availableBook(id)
			b.Status = model.BookRented
			b.Available = false
			return b, nil
		},
	}
	svc := New(db, &mockOrderRepo{}, br, &mockRentalRepo{}, testutil.NewFakeCache(), testLog, 48*time.Hour)

	_, err := svc.Create(context.Background(), "u1", model.CreateOrderReq{BookID: "b1", Type: "PURCHASE"})
	require.Equal(t, ErrBookUnavailable, Code(err))
	// fails before any transaction starts
	require.EqualValues(t, 0, rec.Commits.Load())
	require.EqualValues(t, 0, rec.Rollbacks.Load())
}

func TestCreateLosesGuardedTransition(t *testing.T) {
	ctx := context.Background()
	db, rec := testutil.NewFakeDB()
	fc := testutil.NewFakeCache()
	seedBookKeys(t, fc, "b1")

	or := &mockOrderRepo{
		insertFn: func(_ context.Context, _ *sql.Tx, o *model.Order) error { o.ID = "o1"; return nil },
	}
	br := &mockBookRepo{
		byIDFn: func(_ context.Context, id string) (*model.Book, error) { return availableBook(id), nil },
		transitionFn: func(context.Context, *sql.Tx, string, model.BookStatus) (bool, error) {
			return false, nil
		},
	}

	svc := New(db, or, br, &mockRentalRepo{}, fc, testLog, 48*time.Hour)
	_, err := svc.Create(ctx, "u1", model.CreateOrderReq{BookID: "b1", Type: "PURCHASE"})
	require.Equal(t, ErrBookUnavailable, Code(err))

	require.EqualValues(t, 0, rec.Commits.Load())
	require.EqualValues(t, 1, rec.Rollbacks.Load())

	// aborted order must leave the cache untouched
	require.True(t, fc.Has(cache.BookKey("b1")))
	require.Equal(t, 2, fc.Len())
}

func TestCreateConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	db, rec := testutil.NewFakeDB()
	fc := testutil.NewFakeCache()

	or := &mockOrderRepo{
		insertFn: func(_ context.Context, _ *sql.Tx, o *model.Order) error { return nil },
		byIDFn: func(_ context.Context, userID, orderID string) (*model.Order, error) {
			return &model.Order{ID: orderID, UserID: userID, BookID: "b1", Type: model.OrderPurchase}, nil
		},
	}

	var mu sync.Mutex
	taken := false
	br := &mockBookRepo{
		byIDFn: func(_ context.Context, id string) (*model.Book, error) { return availableBook(id), nil },
		transitionFn: func(context.Context, *sql.Tx, string, model.BookStatus) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			if taken {
				return false, nil
			}
			taken = true
			return true, nil
		},
	}

	svc := New(db, or, br, &mockRentalRepo{}, fc, testLog, 48*time.Hour)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, "u1", model.CreateOrderReq{BookID: "b1", Type: "PURCHASE"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case Code(err) == ErrBookUnavailable:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, conflicts)
	require.EqualValues(t, 1, rec.Commits.Load())
	require.EqualValues(t, 1, rec.Rollbacks.Load())
}

func TestCreateSurvivesCacheOutage(t *testing.T) {
	ctx := context.Background()
	db, _ := testutil.NewFakeDB()
	fc := testutil.NewFakeCache()
	fc.Down = true

	or := &mockOrderRepo{
		insertFn: func(_ context.Context, _ *sql.Tx, o *model.Order) error { o.ID = "o1"; return nil },
		byIDFn: func(_ context.Context, userID, orderID string) (*model.Order, error) {
			return &model.Order{ID: orderID, UserID: userID, BookID: "b1", Type: model.OrderPurchase}, nil
		},
	}
	br := &mockBookRepo{
		byIDFn: func(_ context.Context, id string) (*model.Book, error) { return availableBook(id), nil },
		transitionFn: func(context.Context, *sql.Tx, string, model.BookStatus) (bool, error) {
			return true, nil
		},
	}

	svc := New(db, or, br, &mockRentalRepo{}, fc, testLog, 48*time.Hour)
	got, err := svc.Create(ctx, "u1", model.CreateOrderReq{BookID: "b1", Type: "PURCHASE"})
	require.NoError(t, err)
	require.Equal(t, "o1", got.ID)
}

func TestGetNotFound(t *testing.T) {
	db, _ := testutil.NewFakeDB()
	or := &mockOrderRepo{
		byIDFn: func(context.Context, string, string) (*model.Order, error) { return nil, sql.ErrNoRows },
	}
	svc := New(db, or, &mockBookRepo{}, &mockRentalRepo{}, testutil.NewFakeCache(), testLog, 48*time.Hour)

	_, err := svc.Get(context.Background(), "u1", "missing")
	require.Equal(t, ErrOrderNotFound, Code(err))
}

func TestListNormalizesPaging(t *testing.T) {
	db, _ := testutil.NewFakeDB()
	var gotFilter orderrepo.Filter
	or := &mockOrderRepo{
		listFn: func(_ context.Context, f orderrepo.Filter) ([]model.Order, int64, error) {
			gotFilter = f
			return nil, 0, nil
		},
	}
	svc := New(db, or, &mockBookRepo{}, &mockRentalRepo{}, testutil.NewFakeCache(), testLog, 48*time.Hour)

	page, err := svc.List(context.Background(), Filter{UserID: "u1", Page: 0, Limit: 500})
	require.NoError(t, err)
	require.Equal(t, 1, gotFilter.Page)
	require.Equal(t, 100, gotFilter.Limit)
	require.NotNil(t, page.Data)
	require.Empty(t, page.Data)
}
