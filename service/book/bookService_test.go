package booksvc

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookcatalog/config"
	"bookcatalog/model"
	authorrepo "bookcatalog/repository/author"
	bookrepo "bookcatalog/repository/book"
	categoryrepo "bookcatalog/repository/category"
	"bookcatalog/testutil"
	"bookcatalog/util/cache"
)

type mockBookRepo struct {
	listFn              func(ctx context.Context, f bookrepo.Filter) ([]model.Book, int64, error)
	byIDFn              func(ctx context.Context, id string) (*model.Book, error)
	insertFn            func(ctx context.Context, b *model.Book) error
	updateFn            func(ctx context.Context, b *model.Book) error
	deleteFn            func(ctx context.Context, id string) (bool, error)
	activeRentalCountFn func(ctx context.Context, bookID string) (int64, error)
	orderCountFn        func(ctx context.Context, bookID string) (int64, error)

	listCalls int
}

func (m *mockBookRepo) List(ctx context.Context, f bookrepo.Filter) ([]model.Book, int64, error) {
	m.listCalls++
	return m.listFn(ctx, f)
}
func (m *mockBookRepo) ByID(ctx context.Context, id string) (*model.Book, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockBookRepo) Insert(ctx context.Context, b *model.Book) error { return m.insertFn(ctx, b) }
func (m *mockBookRepo) Update(ctx context.Context, b *model.Book) error { return m.updateFn(ctx, b) }
func (m *mockBookRepo) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFn(ctx, id)
}
func (m *mockBookRepo) TransitionFromAvailable(context.Context, *sql.Tx, string, model.BookStatus) (bool, error) {
	panic("unexpected TransitionFromAvailable")
}
func (m *mockBookRepo) MarkAvailable(context.Context, *sql.Tx, string) error {
	panic("unexpected MarkAvailable")
}
func (m *mockBookRepo) ActiveRentalCount(ctx context.Context, bookID string) (int64, error) {
	return m.activeRentalCountFn(ctx, bookID)
}
func (m *mockBookRepo) OrderCount(ctx context.Context, bookID string) (int64, error) {
	return m.orderCountFn(ctx, bookID)
}

type mockAuthorRepo struct {
	byIDFn func(ctx context.Context, id string) (*model.Author, error)
}

func (m *mockAuthorRepo) List(context.Context, authorrepo.Filter) ([]model.Author, int64, error) {
	panic("unexpected List")
}
func (m *mockAuthorRepo) ByID(ctx context.Context, id string) (*model.Author, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockAuthorRepo) ByName(context.Context, string) (*model.Author, error) {
	panic("unexpected ByName")
}
func (m *mockAuthorRepo) Insert(context.Context, *model.Author) error { panic("unexpected Insert") }
func (m *mockAuthorRepo) Update(context.Context, *model.Author) error { panic("unexpected Update") }
func (m *mockAuthorRepo) Delete(context.Context, string) (bool, error) {
	panic("unexpected Delete")
}
func (m *mockAuthorRepo) BookCount(context.Context, string) (int64, error) {
	panic("unexpected BookCount")
}

type mockCategoryRepo struct {
	byIDFn func(ctx context.Context, id string) (*model.Category, error)
}

func (m *mockCategoryRepo) List(context.Context, categoryrepo.Filter) ([]model.Category, int64, error) {
	panic("unexpected List")
}
func (m *mockCategoryRepo) ByID(ctx context.Context, id string) (*model.Category, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockCategoryRepo) ByName(context.Context, string) (*model.Category, error) {
	panic("unexpected ByName")
}
func (m *mockCategoryRepo) Insert(context.Context, *model.Category) error {
	panic("unexpected Insert")
}
func (m *mockCategoryRepo) Update(context.Context, *model.Category) error {
	panic("unexpected Update")
}
func (m *mockCategoryRepo) Delete(context.Context, string) (bool, error) {
	panic("unexpected Delete")
}
func (m *mockCategoryRepo) BookCount(context.Context, string) (int64, error) {
	panic("unexpected BookCount")
}

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

var testCfg = config.App{CacheListTTL: 300, CacheEntityTTL: 600}

func okRefs() (*mockAuthorRepo, *mockCategoryRepo) {
	ar := &mockAuthorRepo{
		byIDFn: func(_ context.Context, id string) (*model.Author, error) {
			return &model.Author{ID: id, Name: "Le Guin"}, nil
		},
	}
	cr := &mockCategoryRepo{
		byIDFn: func(_ context.Context, id string) (*model.Category, error) {
			return &model.Category{ID: id, Name: "Sci-Fi"}, nil
		},
	}
	return ar, cr
}

func TestListReadThrough(t *testing.T) {
	ctx := context.Background()
	fc := testutil.NewFakeCache()
	br := &mockBookRepo{
		listFn: func(_ context.Context, f bookrepo.Filter) ([]model.Book, int64, error) {
			return []model.Book{{ID: "b1", Title: "Dune"}}, 1, nil
		},
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, fc, testLog, testCfg)

	f := Filter{Search: "dune"}

	first, err := svc.List(ctx, f)
	require.NoError(t, err)
	require.Len(t, first.Data, 1)
	require.Equal(t, 1, br.listCalls)

	key := cache.ListKey("books", f.Normalized())
	require.True(t, fc.Has(key))
	require.Equal(t, 300*time.Second, fc.TTL(key))

	// second identical query never reaches the store
	second, err := svc.List(ctx, f)
	require.NoError(t, err)
	require.Equal(t, 1, br.listCalls)
	require.Equal(t, first.Data, second.Data)
	require.Equal(t, first.Meta, second.Meta)
}

func TestListDistinctFiltersGetDistinctEntries(t *testing.T) {
	ctx := context.Background()
	fc := testutil.NewFakeCache()
	br := &mockBookRepo{
		listFn: func(_ context.Context, f bookrepo.Filter) ([]model.Book, int64, error) {
			return nil, 0, nil
		},
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, fc, testLog, testCfg)

	_, err := svc.List(ctx, Filter{Status: "AVAILABLE"})
	require.NoError(t, err)
	_, err = svc.List(ctx, Filter{Status: "SOLD"})
	require.NoError(t, err)

	require.Equal(t, 2, br.listCalls)
	require.Equal(t, 2, fc.Len())
}

func TestListSurvivesCacheOutage(t *testing.T) {
	ctx := context.Background()
	fc := testutil.NewFakeCache()
	fc.Down = true
	br := &mockBookRepo{
		listFn: func(_ context.Context, f bookrepo.Filter) ([]model.Book, int64, error) {
			return []model.Book{{ID: "b1"}}, 1, nil
		},
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, fc, testLog, testCfg)

	page, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	// every request degrades to a store read
	page, err = svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, 2, br.listCalls)
}

func TestGetReadThrough(t *testing.T) {
	ctx := context.Background()
	fc := testutil.NewFakeCache()
	var byIDCalls int
	br := &mockBookRepo{
		byIDFn: func(_ context.Context, id string) (*model.Book, error) {
			byIDCalls++
			return &model.Book{ID: id, Title: "Dune", Status: model.BookAvailable, Available: true}, nil
		},
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, fc, testLog, testCfg)

	got, err := svc.Get(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, "Dune", got.Title)
	require.Equal(t, 1, byIDCalls)
	require.Equal(t, 600*time.Second, fc.TTL(cache.BookKey("b1")))

	got, err = svc.Get(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, "Dune", got.Title)
	require.Equal(t, 1, byIDCalls)
}

func TestGetNotFound(t *testing.T) {
	br := &mockBookRepo{
		byIDFn: func(context.Context, string) (*model.Book, error) { return nil, sql.ErrNoRows },
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, testutil.NewFakeCache(), testLog, testCfg)

	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateChecksReferences(t *testing.T) {
	br := &mockBookRepo{
		insertFn: func(_ context.Context, b *model.Book) error { b.ID = "b1"; return nil },
	}
	cr := &mockCategoryRepo{
		byIDFn: func(_ context.Context, id string) (*model.Category, error) {
			return &model.Category{ID: id}, nil
		},
	}
	ar := &mockAuthorRepo{
		byIDFn: func(context.Context, string) (*model.Author, error) { return nil, sql.ErrNoRows },
	}
	svc := New(br, ar, cr, testutil.NewFakeCache(), testLog, testCfg)

	_, err := svc.Create(context.Background(), model.CreateBookReq{Title: "Dune", AuthorID: "a1", CategoryID: "c1", Year: 1965})
	require.ErrorIs(t, err, ErrAuthorNotFound)
}

func TestCreateInvalidatesListsOnly(t *testing.T) {
	ctx := context.Background()
	fc := testutil.NewFakeCache()
	require.NoError(t, fc.Set(ctx, cache.BookKey("other"), model.Book{ID: "other"}, 600))
	require.NoError(t, fc.Set(ctx, cache.ListKey("books", bookrepo.Filter{Page: 1, Limit: 10}), []model.Book{}, 300))

	br := &mockBookRepo{
		insertFn: func(_ context.Context, b *model.Book) error { b.ID = "b1"; return nil },
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, fc, testLog, testCfg)

	got, err := svc.Create(ctx, model.CreateBookReq{Title: "Dune", AuthorID: "a1", CategoryID: "c1", Year: 1965})
	require.NoError(t, err)
	require.Equal(t, "b1", got.ID)

	// collection entries are stale, the unrelated entity entry is not
	require.False(t, fc.Has(cache.ListKey("books", bookrepo.Filter{Page: 1, Limit: 10})))
	require.True(t, fc.Has(cache.BookKey("other")))
}

func TestUpdatePatchesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	fc := testutil.NewFakeCache()
	require.NoError(t, fc.Set(ctx, cache.BookKey("b1"), model.Book{ID: "b1", Title: "stale"}, 600))
	require.NoError(t, fc.Set(ctx, cache.ListKey("books", bookrepo.Filter{Page: 1, Limit: 10}), []model.Book{}, 300))

	stored := &model.Book{ID: "b1", Title: "Dune", Year: 1965, Status: model.BookAvailable, Available: true}
	var updated *model.Book
	br := &mockBookRepo{
		byIDFn:   func(context.Context, string) (*model.Book, error) { return stored, nil },
		updateFn: func(_ context.Context, b *model.Book) error { updated = b; return nil },
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, fc, testLog, testCfg)

	title := "Dune Messiah"
	status := model.BookMaintenance
	got, err := svc.Update(ctx, "b1", model.UpdateBookReq{Title: &title, Status: &status})
	require.NoError(t, err)
	require.Equal(t, "Dune Messiah", got.Title)
	require.Equal(t, model.BookMaintenance, got.Status)
	require.False(t, got.Available)
	require.Equal(t, 1965, got.Year)
	require.Same(t, got, updated)

	require.Equal(t, 0, fc.Len())
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	stored := &model.Book{ID: "b1", Status: model.BookAvailable, Available: true}
	br := &mockBookRepo{
		byIDFn: func(context.Context, string) (*model.Book, error) { return stored, nil },
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, testutil.NewFakeCache(), testLog, testCfg)

	bad := model.BookStatus("LOST")
	_, err := svc.Update(context.Background(), "b1", model.UpdateBookReq{Status: &bad})
	require.ErrorIs(t, err, ErrBadStatus)
}

func TestDeleteGuards(t *testing.T) {
	stored := &model.Book{ID: "b1", Status: model.BookRented}
	br := &mockBookRepo{
		byIDFn:              func(context.Context, string) (*model.Book, error) { return stored, nil },
		activeRentalCountFn: func(context.Context, string) (int64, error) { return 1, nil },
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, testutil.NewFakeCache(), testLog, testCfg)

	err := svc.Delete(context.Background(), "b1")
	require.ErrorIs(t, err, ErrHasActiveRental)

	br.activeRentalCountFn = func(context.Context, string) (int64, error) { return 0, nil }
	br.orderCountFn = func(context.Context, string) (int64, error) { return 3, nil }
	err = svc.Delete(context.Background(), "b1")
	require.ErrorIs(t, err, ErrHasOrders)
}

func TestDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	fc := testutil.NewFakeCache()
	require.NoError(t, fc.Set(ctx, cache.BookKey("b1"), model.Book{ID: "b1"}, 600))

	br := &mockBookRepo{
		byIDFn:              func(context.Context, string) (*model.Book, error) { return &model.Book{ID: "b1"}, nil },
		activeRentalCountFn: func(context.Context, string) (int64, error) { return 0, nil },
		orderCountFn:        func(context.Context, string) (int64, error) { return 0, nil },
		deleteFn:            func(context.Context, string) (bool, error) { return true, nil },
	}
	ar, cr := okRefs()
	svc := New(br, ar, cr, fc, testLog, testCfg)

	require.NoError(t, svc.Delete(ctx, "b1"))
	require.False(t, fc.Has(cache.BookKey("b1")))
}
