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
	"fmt"
	"strings"
	"time"

	"github.com/tomoncle/sqlrepo/dialect"
	"github.com/tomoncle/sqlrepo/mapper"
	"github.com/tomoncle/sqlrepo/naming"
	"github.com/tomoncle/sqlrepo/query"
	"github.com/tomoncle/sqlrepo/utils"
)

// Config binds a repository to its collaborators. Only Source and Mapper
// are required.
type Config[E any] struct {
	Source ConnectionSource
	Mapper mapper.EntityMapper[E]

	// Table defaults to Naming.TableName(Mapper.TypeName()).
	Table string
	// Dialect is resolved through Registry from the source when nil.
	Dialect  dialect.Dialect
	Registry *dialect.Registry
	Naming   naming.Converter
	Logger   utils.Logger
	// Hooks run after those of a Source implementing HookSource.
	Hooks []QueryHook
}

type baseRepositoryImpl[E any] struct {
	source  ConnectionSource
	mapper  mapper.EntityMapper[E]
	table   string
	dialect dialect.Dialect
	naming  naming.Converter
	logger  utils.Logger
	hooks   []QueryHook
	indexer *query.Indexer

	idField  string
	idColumn string
	// column name, lower-cased, to writable field
	byColumn map[string]string
	columns  map[string]string

	insertFields []string
	updateFields []string
	sequenceSQL  string
}

var _ Repository[any] = (*baseRepositoryImpl[any])(nil)

// New validates cfg and returns a repository. Any missing prerequisite is
// reported as ErrIllegalState. Resolving the dialect may query the database.
func New[E any](ctx context.Context, cfg Config[E]) (Repository[E], error) {
	if cfg.Source == nil {
		return nil, illegalState("no connection source")
	}
	if cfg.Mapper == nil {
		return nil, illegalState("no entity mapper")
	}
	r := &baseRepositoryImpl[E]{
		source:  cfg.Source,
		mapper:  cfg.Mapper,
		naming:  cfg.Naming,
		logger:  cfg.Logger,
		hooks:   cfg.Hooks,
		indexer: query.NewIndexer(),
	}
	if hs, ok := cfg.Source.(HookSource); ok {
		r.hooks = append(append([]QueryHook(nil), hs.QueryHooks()...), cfg.Hooks...)
	}
	if r.naming == nil {
		r.naming = naming.SnakeCase
	}
	if r.logger == nil {
		r.logger = utils.NopLogger
	}

	r.table = strings.TrimSpace(cfg.Table)
	if r.table == "" {
		r.table = r.naming.TableName(cfg.Mapper.TypeName())
	}
	if r.table == "" {
		return nil, illegalState("no table name for %s", cfg.Mapper.TypeName())
	}

	if err := r.initFields(); err != nil {
		return nil, err
	}

	r.dialect = cfg.Dialect
	if r.dialect == nil {
		registry := cfg.Registry
		if registry == nil {
			registry = dialect.Default()
		}
		d, err := registry.ForSource(ctx, cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve dialect for %s: %w", ErrIllegalState, r.table, err)
		}
		r.dialect = d
	}
	if r.dialect.SupportsSequence() {
		seq, err := r.dialect.SequenceNextVal(r.table + "_id_seq")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIllegalState, err)
		}
		r.sequenceSQL = seq
	}
	r.logger.Debug("repository ready", "table", r.table, "dialect", r.dialect.Name())
	return r, nil
}

func (r *baseRepositoryImpl[E]) initFields() error {
	writable := r.mapper.WritableFields()
	if len(writable) == 0 {
		return illegalState("%s has no writable fields", r.mapper.TypeName())
	}
	r.idField = r.mapper.IdentityField()
	if r.idField == "" {
		return illegalState("%s has no identity field", r.mapper.TypeName())
	}

	ro, _ := r.mapper.(mapper.ReadOnlyMapper)
	r.columns = make(map[string]string, len(writable))
	r.byColumn = make(map[string]string, len(writable))
	for _, f := range writable {
		col := r.columnOf(f)
		r.columns[f] = col
		r.byColumn[strings.ToLower(col)] = f
		if f != r.idField && (ro == nil || !ro.IsReadOnly(f)) {
			r.updateFields = append(r.updateFields, f)
		}
	}
	for _, f := range r.mapper.ReadableFields() {
		if _, ok := r.columns[f]; !ok {
			r.columns[f] = r.columnOf(f)
		}
		r.insertFields = append(r.insertFields, f)
	}
	if _, ok := r.columns[r.idField]; !ok {
		r.columns[r.idField] = r.columnOf(r.idField)
	}
	r.idColumn = r.columns[r.idField]
	return nil
}

func (r *baseRepositoryImpl[E]) columnOf(field string) string {
	if cm, ok := r.mapper.(mapper.ColumnMapper); ok {
		if col := cm.ColumnName(field); col != "" {
			return col
		}
	}
	return r.naming.ColumnName(field)
}

func (r *baseRepositoryImpl[E]) Table() string { return r.table }

func (r *baseRepositoryImpl[E]) Dialect() dialect.Dialect { return r.dialect }

func (r *baseRepositoryImpl[E]) IndexedQuery(condition string) (query.IndexedQuery, error) {
	return r.indexer.Index(condition)
}

func (r *baseRepositoryImpl[E]) conn(ctx context.Context, op string) (*sql.Conn, error) {
	c, err := r.source.Conn(ctx)
	if err != nil {
		r.logger.Error("get a new connection error", "table", r.table, "op", op, "error", err)
		return nil, &RepositoryError{Op: op, Err: fmt.Errorf("get a new connection: %w", err)}
	}
	return c, nil
}

// run executes fn under the configured hooks. text is the final statement.
func (r *baseRepositoryImpl[E]) run(ctx context.Context, op, text string, args []any, fn func(context.Context) error) error {
	if len(r.hooks) == 0 {
		return fn(ctx)
	}
	ev := &QueryEvent{Operation: op, Table: r.table, Query: text, Args: args, StartTime: time.Now()}
	for _, h := range r.hooks {
		ctx = h.BeforeQuery(ctx, ev)
	}
	ev.Err = fn(ctx)
	for i := len(r.hooks) - 1; i >= 0; i-- {
		r.hooks[i].AfterQuery(ctx, ev)
	}
	return ev.Err
}

// fail logs and wraps err.
func (r *baseRepositoryImpl[E]) fail(op, text string, args []any, err error) error {
	r.logger.Error("execute sql error", "table", r.table, "op", op, "sql", FormatSQL(text, args...), "error", err)
	return &RepositoryError{Op: op, SQL: text, Params: args, Err: err}
}

func (r *baseRepositoryImpl[E]) rebind(text string) string {
	return dialect.Rebind(r.dialect, text)
}
