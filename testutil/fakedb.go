// Package testutil provides test doubles for the store handle and the
// cache so service transaction logic can run without Postgres or Redis.
package testutil

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// TxRecorder counts transaction outcomes on a fake database handle.
// Services under test only ever Begin/Commit/Rollback against it; the
// row-level work happens in mock repositories that ignore the *sql.Tx.
type TxRecorder struct {
	Commits   atomic.Int64
	Rollbacks atomic.Int64
}

type fakeDriver struct{ rec *TxRecorder }

func (d *fakeDriver) Open(string) (driver.Conn, error) { return &fakeConn{rec: d.rec}, nil }

type fakeConn struct{ rec *TxRecorder }

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("fakedb: statements not supported")
}
func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) {
	return &fakeTx{rec: c.rec}, nil
}

type fakeTx struct{ rec *TxRecorder }

func (t *fakeTx) Commit() error   { t.rec.Commits.Add(1); return nil }
func (t *fakeTx) Rollback() error { t.rec.Rollbacks.Add(1); return nil }

var (
	regMu sync.Mutex
	regN  int
)

// NewFakeDB returns a *sql.DB whose transactions succeed trivially,
// plus the recorder tracking commits and rollbacks.
func NewFakeDB() (*sql.DB, *TxRecorder) {
	rec := &TxRecorder{}

	regMu.Lock()
	regN++
	name := fmt.Sprintf("fakedb-%d", regN)
	sql.Register(name, &fakeDriver{rec: rec})
	regMu.Unlock()

	db, err := sql.Open(name, "")
	if err != nil {
		panic(err)
	}
	return db, rec
}
