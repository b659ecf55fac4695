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
	"sort"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/tomoncle/sqlrepo/dialect"
	"github.com/tomoncle/sqlrepo/mapper"
	"github.com/tomoncle/sqlrepo/naming"
	"github.com/tomoncle/sqlrepo/utils"
)

// Factory caches one repository per table for a single connection source.
type Factory struct {
	source   ConnectionSource
	registry *dialect.Registry
	naming   naming.Converter
	logger   utils.Logger
	hooks    []QueryHook
	dialect  dialect.Dialect

	repos *xsync.MapOf[string, *factoryEntry]
}

type factoryEntry struct {
	once sync.Once
	repo any
	err  error
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

func WithRegistry(r *dialect.Registry) FactoryOption {
	return func(f *Factory) { f.registry = r }
}

func WithNaming(c naming.Converter) FactoryOption {
	return func(f *Factory) { f.naming = c }
}

func WithLogger(l utils.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

func WithHooks(hooks ...QueryHook) FactoryOption {
	return func(f *Factory) { f.hooks = append(f.hooks, hooks...) }
}

// WithDialect skips dialect resolution for every repository of the factory.
func WithDialect(d dialect.Dialect) FactoryOption {
	return func(f *Factory) { f.dialect = d }
}

func NewFactory(source ConnectionSource, opts ...FactoryOption) *Factory {
	f := &Factory{
		source:   source,
		registry: dialect.Default(),
		naming:   naming.SnakeCase,
		logger:   utils.NopLogger,
		repos:    xsync.NewMapOf[string, *factoryEntry](),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Source() ConnectionSource { return f.source }

// Len returns the number of tables with a cached entry, failed ones included.
func (f *Factory) Len() int { return f.repos.Size() }

// Tables returns the cached table names, sorted.
func (f *Factory) Tables() []string {
	tables := make([]string, 0, f.repos.Size())
	f.repos.Range(func(table string, _ *factoryEntry) bool {
		tables = append(tables, table)
		return true
	})
	sort.Strings(tables)
	return tables
}

// Get returns the repository of table, building it on first use. Concurrent
// callers for the same table share one construction and its outcome. An
// empty table derives the name from the mapper. A table already bound to
// another entity type is an ErrIllegalState. Construction ignores the
// cancellation of ctx since its outcome is kept for every later caller.
func Get[E any](ctx context.Context, f *Factory, table string, m mapper.EntityMapper[E]) (Repository[E], error) {
	if f == nil {
		return nil, illegalState("no repository factory")
	}
	if m == nil {
		return nil, illegalState("no entity mapper")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		table = f.naming.TableName(m.TypeName())
	}

	entry, _ := f.repos.LoadOrCompute(table, func() *factoryEntry { return &factoryEntry{} })
	entry.once.Do(func() {
		entry.repo, entry.err = New[E](context.WithoutCancel(ctx), Config[E]{
			Source:   f.source,
			Mapper:   m,
			Table:    table,
			Dialect:  f.dialect,
			Registry: f.registry,
			Naming:   f.naming,
			Logger:   f.logger,
			Hooks:    f.hooks,
		})
		if entry.err != nil {
			f.logger.Error("create repository error", "table", table, "error", entry.err)
		}
	})
	if entry.err != nil {
		return nil, entry.err
	}
	repo, ok := entry.repo.(Repository[E])
	if !ok {
		return nil, illegalState("table %s is bound to another entity type", table)
	}
	return repo, nil
}
