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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	bundialect "github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/tomoncle/sqlrepo/dialect"
	"github.com/tomoncle/sqlrepo/repository"
	"github.com/tomoncle/sqlrepo/utils"
)

var ErrClosed = errors.New("database closed")

// DataSource is a named connection source over one database/sql pool.
type DataSource struct {
	config  ConnectionConfig
	name    string
	logger  utils.Logger
	dialect dialect.Dialect
	hooks   []repository.QueryHook

	mu     sync.RWMutex
	sqlDB  *sql.DB
	db     *bun.DB
	closed bool
}

// Open creates the pool described by cfg and verifies it with a ping
// bounded by ConnectTimeout.
func Open(ctx context.Context, cfg ConnectionConfig, logger utils.Logger) (*DataSource, error) {
	ds, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := ds.Ping(pingCtx); err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}
	ds.logger.Info("Database connected successfully", "name", ds.name, "type", cfg.Type, "host", cfg.Host)
	return ds, nil
}

// New creates the pool without touching the database. Without a Type the
// driver is the one of the dialect named by Provider.
func New(cfg ConnectionConfig, logger utils.Logger) (*DataSource, error) {
	if logger == nil {
		logger = utils.NopLogger
	}
	ds := &DataSource{config: cfg, name: cfg.Name, logger: logger}
	if ds.name == "" {
		ds.name = "ds-" + uuid.NewString()
	}
	if d, err := dialect.Default().Resolve(ds.Provider()); err == nil {
		ds.dialect = d
	}
	var err error
	ds.sqlDB, ds.db, err = ds.createConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	ds.configureConnectionPool()
	ds.hooks = ds.queryHooks()
	return ds, nil
}

func (ds *DataSource) driverType() string {
	if ds.config.Type != "" {
		return ds.config.Type
	}
	if ds.dialect != nil {
		return ds.dialect.DriverName()
	}
	return ""
}

// queryHooks turns the query log and slow query settings into hooks for the
// repositories built on this source.
func (ds *DataSource) queryHooks() []repository.QueryHook {
	var hooks []repository.QueryHook
	if ds.config.EnableQueryLog {
		hooks = append(hooks, repository.NewLogQueryHook(true))
	}
	if ds.config.SlowQueryTime > 0 {
		hooks = append(hooks, &repository.SlowQueryHook{Threshold: ds.config.SlowQueryTime, Logger: ds.logger})
	}
	return hooks
}

func (ds *DataSource) createConnection() (*sql.DB, *bun.DB, error) {
	var sqlDB *sql.DB
	var db *bun.DB
	var err error

	switch typ := ds.driverType(); typ {
	case "mysql", "mariadb":
		sqlDB, err = sql.Open("mysql", ds.mysqlDSN())
		if err == nil {
			db = bun.NewDB(sqlDB, mysqldialect.New())
		}
	case "postgres", "postgresql":
		sqlDB, err = sql.Open("postgres", ds.postgresDSN())
		if err == nil {
			db = bun.NewDB(sqlDB, pgdialect.New())
		}
	case "sqlite", "sqlite3", sqliteshim.ShimName:
		sqlDB, err = sql.Open(sqliteshim.ShimName, ds.sqliteDSN())
		if err == nil {
			db = bun.NewDB(sqlDB, sqlitedialect.New())
		}
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %q", typ)
	}
	if err != nil {
		return nil, nil, err
	}

	if ds.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if ds.config.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{slowTime: ds.config.SlowQueryTime, logger: ds.logger})
	}
	return sqlDB, db, nil
}

func (ds *DataSource) mysqlDSN() string {
	if ds.config.URL != "" {
		return ds.config.URL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		ds.config.Username,
		ds.config.Password,
		ds.config.Host,
		ds.config.Port,
		ds.config.DBName,
		ds.config.ConnectTimeout,
		ds.config.ReadTimeout,
		ds.config.WriteTimeout,
	)
}

func (ds *DataSource) postgresDSN() string {
	if ds.config.URL != "" {
		return ds.config.URL
	}
	sslMode := ds.config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		ds.config.Username,
		ds.config.Password,
		ds.config.Host,
		ds.config.Port,
		ds.config.DBName,
		sslMode,
		int(ds.config.ConnectTimeout.Seconds()),
	)
}

func (ds *DataSource) sqliteDSN() string {
	switch {
	case ds.config.URL != "":
		return ds.config.URL
	case ds.config.DBName == "", ds.config.DBName == ":memory:":
		return ":memory:"
	default:
		return fmt.Sprintf("%s.db", ds.config.DBName)
	}
}

func (ds *DataSource) configureConnectionPool() {
	if ds.config.MaxIdleConns > 0 {
		ds.sqlDB.SetMaxIdleConns(ds.config.MaxIdleConns)
	}
	if ds.config.MaxOpenConns > 0 {
		ds.sqlDB.SetMaxOpenConns(ds.config.MaxOpenConns)
	}
	ds.sqlDB.SetConnMaxLifetime(ds.config.ConnMaxLifetime)
	ds.sqlDB.SetConnMaxIdleTime(ds.config.ConnMaxIdleTime)
}

func (ds *DataSource) Name() string { return ds.name }

func (ds *DataSource) IsDefault() bool { return ds.config.Default }

func (ds *DataSource) Config() ConnectionConfig { return ds.config }

// Dialect returns the dialect named by Provider, or nil when it is unknown.
func (ds *DataSource) Dialect() dialect.Dialect { return ds.dialect }

// QueryHooks returns the hooks repositories on this source run statements
// under.
func (ds *DataSource) QueryHooks() []repository.QueryHook { return ds.hooks }

// Provider names the SQL dialect: the configured provider, the URL scheme,
// or the database type, in that order.
func (ds *DataSource) Provider() string {
	if ds.config.Provider != "" {
		return ds.config.Provider
	}
	if p := dialect.ProviderFromURL(ds.config.URL); p != "" {
		return p
	}
	return ds.config.Type
}

func (ds *DataSource) handles() (*sql.DB, *bun.DB, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if ds.closed {
		return nil, nil, ErrClosed
	}
	return ds.sqlDB, ds.db, nil
}

// Conn takes a dedicated connection from the pool; the caller closes it.
func (ds *DataSource) Conn(ctx context.Context) (*sql.Conn, error) {
	sqlDB, _, err := ds.handles()
	if err != nil {
		return nil, err
	}
	return sqlDB.Conn(ctx)
}

func (ds *DataSource) Ping(ctx context.Context) error {
	_, db, err := ds.handles()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// ProductName reports the vendor of the database after a ping round trip.
func (ds *DataSource) ProductName(ctx context.Context) (string, error) {
	if err := ds.Ping(ctx); err != nil {
		return "", err
	}
	_, db, err := ds.handles()
	if err != nil {
		return "", err
	}
	switch db.Dialect().Name() {
	case bundialect.PG:
		return "PostgreSQL", nil
	case bundialect.MySQL:
		return "MySQL", nil
	case bundialect.SQLite:
		return "SQLite", nil
	case bundialect.MSSQL:
		return "Microsoft SQL Server", nil
	}
	return db.Dialect().Name().String(), nil
}

// HealthCheck runs the dialect's test query, or a ping when the dialect is
// unknown, and reports pool statistics.
func (ds *DataSource) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{Name: ds.name, Dialect: ds.Provider(), LastCheckTime: start}

	sqlDB, db, err := ds.handles()
	if err != nil {
		status.LastError = err.Error()
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	if ds.dialect != nil {
		status.Dialect = ds.dialect.Name()
		var v any
		err = sqlDB.QueryRowContext(ctxTimeout, ds.dialect.TestQuery()).Scan(&v)
	} else {
		err = db.PingContext(ctxTimeout)
	}
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.LastError = err.Error()
		ds.logger.Warn("Database health check failed", "name", ds.name, "error", err)
	} else {
		status.Healthy = true
		status.Connected = true
	}

	stats := sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (ds *DataSource) Stats() *DBStats {
	sqlDB, _, err := ds.handles()
	if err != nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

// DB returns the bun handle, or nil once closed.
func (ds *DataSource) DB() *bun.DB {
	_, db, _ := ds.handles()
	return db
}

// SQLDB returns the database/sql pool, or nil once closed.
func (ds *DataSource) SQLDB() *sql.DB {
	sqlDB, _, _ := ds.handles()
	return sqlDB
}

// Close releases the pool. Closing twice is a no-op.
func (ds *DataSource) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return nil
	}
	ds.closed = true
	err := ds.db.Close()
	if err != nil {
		ds.logger.Error("Failed to close database connection", "name", ds.name, "error", err)
	} else {
		ds.logger.Info("Database connection closed", "name", ds.name)
	}
	return err
}
