/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	sqlDriver "database/sql/driver"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/sqlrepo/mapper"
	"github.com/tomoncle/sqlrepo/utils"
)

type person struct {
	ID        int64  `sqlrepo:"id,pk"`
	Name      string `sqlrepo:"name"`
	Age       int
	Active    bool
	CreatedAt string `sqlrepo:"created_at,readonly"`
	Note      string `sqlrepo:"-"`
}

const personDDL = `CREATE TABLE person (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	age INTEGER NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT 'now'
)`

// dbSource hands out connections of db and names its dialect.
type dbSource struct {
	db       *sql.DB
	provider string
}

func (s *dbSource) Conn(ctx context.Context) (*sql.Conn, error) { return s.db.Conn(ctx) }

func (s *dbSource) Provider() string { return s.provider }

func newSQLiteSource(t *testing.T) *dbSource {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(personDDL)
	require.NoError(t, err)
	return &dbSource{db: db, provider: "sqlite"}
}

func newPersonRepo(t *testing.T, src ConnectionSource, hooks ...QueryHook) Repository[*person] {
	t.Helper()
	repo, err := New[*person](context.Background(), Config[*person]{
		Source: src,
		Mapper: mapper.MustStruct[person](),
		Hooks:  hooks,
	})
	require.NoError(t, err)
	return repo
}

// recorded is one statement seen by the fake driver.
type recorded struct {
	query string
	args  []sqlDriver.Value
}

type fakeQuery struct {
	columns []string
	rows    [][]sqlDriver.Value
	err     error
}

type fakeExec struct {
	lastInsertID int64
	rowsAffected int64
	err          error
}

// fakeConn replays queued results and records every statement.
type fakeConn struct {
	mu       sync.Mutex
	queries  []fakeQuery
	execs    []fakeExec
	qIdx     int
	eIdx     int
	prepared []string
	log      []recorded
}

func (c *fakeConn) Prepare(query string) (sqlDriver.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prepared = append(c.prepared, query)
	return &fakeStmt{conn: c, query: query}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (sqlDriver.Tx, error) { return nil, fmt.Errorf("not supported") }

func (c *fakeConn) statements() []recorded {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]recorded(nil), c.log...)
}

type fakeStmt struct {
	conn  *fakeConn
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []sqlDriver.Value) (sqlDriver.Result, error) {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.conn.log = append(s.conn.log, recorded{query: s.query, args: args})
	if s.conn.eIdx >= len(s.conn.execs) {
		return nil, fmt.Errorf("no more exec results")
	}
	r := s.conn.execs[s.conn.eIdx]
	s.conn.eIdx++
	if r.err != nil {
		return nil, r.err
	}
	return &fakeResult{lastID: r.lastInsertID, affected: r.rowsAffected}, nil
}

func (s *fakeStmt) Query(args []sqlDriver.Value) (sqlDriver.Rows, error) {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.conn.log = append(s.conn.log, recorded{query: s.query, args: args})
	if s.conn.qIdx >= len(s.conn.queries) {
		return nil, fmt.Errorf("no more query results")
	}
	r := s.conn.queries[s.conn.qIdx]
	s.conn.qIdx++
	if r.err != nil {
		return nil, r.err
	}
	return &fakeRows{columns: r.columns, data: r.rows}, nil
}

type fakeRows struct {
	columns []string
	data    [][]sqlDriver.Value
	pos     int
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []sqlDriver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

type fakeResult struct {
	lastID   int64
	affected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return r.lastID, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

type fakeConnector struct{ conn *fakeConn }

func (c *fakeConnector) Connect(context.Context) (sqlDriver.Conn, error) { return c.conn, nil }

func (c *fakeConnector) Driver() sqlDriver.Driver { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (sqlDriver.Conn, error) { return nil, fmt.Errorf("not implemented") }

// newFakeSource returns a source over conn tagged with provider.
func newFakeSource(t *testing.T, conn *fakeConn, provider string) *dbSource {
	t.Helper()
	db := sql.OpenDB(&fakeConnector{conn: conn})
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return &dbSource{db: db, provider: provider}
}

// failingSource never yields a connection.
type failingSource struct{ err error }

func (s failingSource) Conn(context.Context) (*sql.Conn, error) { return nil, s.err }

func (failingSource) Provider() string { return "mysql" }

var personColumns = []string{"id", "name", "age", "active", "created_at"}

// captureLogger records warning and error messages.
type captureLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *captureLogger) SetLevel(utils.LogLevel) {}
func (l *captureLogger) Debug(string, ...any)    {}
func (l *captureLogger) Info(string, ...any)     {}

func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}
