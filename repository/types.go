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

	"github.com/tomoncle/sqlrepo/dialect"
	"github.com/tomoncle/sqlrepo/query"
	"github.com/tomoncle/sqlrepo/types"
)

// ConnectionSource hands out one connection per repository call. The
// repository closes it before returning.
//
// Sources may also implement dialect.ProviderHint or dialect.ProductNamer so
// the dialect can be resolved without configuration.
type ConnectionSource interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// HookSource is implemented by sources that supply query hooks of their own.
// Repositories run them before the hooks of their Config.
type HookSource interface {
	QueryHooks() []QueryHook
}

// NamedSource is a ConnectionSource registered under a name.
type NamedSource interface {
	ConnectionSource
	Name() string
	IsDefault() bool
}

// SaveStatus is the outcome of Save for one entity.
type SaveStatus int

const (
	Failed  SaveStatus = -1
	Updated SaveStatus = 0
	Created SaveStatus = 1
)

func (s SaveStatus) String() string {
	switch s {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "failed"
	}
}

// ListOptions selects columns, a window and an ordering for List. A zero
// Limit means every row.
type ListOptions struct {
	Columns []string
	Limit   types.Limit
	SortBy  *types.SortBy
}

// ReadRepository holds the query side of a repository.
type ReadRepository[E any] interface {
	// ListAll returns every row, optionally projected onto columns.
	ListAll(ctx context.Context, columns ...string) ([]E, error)

	// List runs a positional condition with columns, window and ordering.
	List(ctx context.Context, opts ListOptions, condition string, params ...any) ([]E, error)

	ListBy(ctx context.Context, condition string, params ...any) ([]E, error)

	// ListNamed runs a condition written with :name placeholders.
	ListNamed(ctx context.Context, opts ListOptions, condition string, params types.Parameters) ([]E, error)

	// GetByID and the other Get methods return the zero E and a nil error
	// when no row matches.
	GetByID(ctx context.Context, id any) (E, error)
	GetByColumn(ctx context.Context, column string, value any) (E, error)
	GetBy(ctx context.Context, condition string, params ...any) (E, error)
	GetNamed(ctx context.Context, condition string, params types.Parameters) (E, error)

	CountBy(ctx context.Context, condition string, params ...any) (int64, error)
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[E], error)
}

// WriteRepository holds the insert/update side of a repository. Batched
// methods return one status per entity in input order.
type WriteRepository[E any] interface {
	Create(ctx context.Context, entity E, opts types.Options) (bool, error)
	CreateAll(ctx context.Context, entities []E, opts types.Options) ([]bool, error)
	Update(ctx context.Context, entity E, opts types.Options) (bool, error)
	UpdateAll(ctx context.Context, entities []E, opts types.Options) ([]bool, error)

	// Save creates entities with a zero identity and updates the rest.
	Save(ctx context.Context, entity E, opts types.Options) (SaveStatus, error)
	SaveAll(ctx context.Context, entities []E, opts types.Options) ([]SaveStatus, error)
}

type DeleteRepository interface {
	DeleteByID(ctx context.Context, id any) (bool, error)
	DeleteByColumn(ctx context.Context, column string, value any) (bool, error)
	DeleteBy(ctx context.Context, condition string, params ...any) (bool, error)
	DeleteNamed(ctx context.Context, condition string, params types.Parameters) (bool, error)
	DeleteByIDs(ctx context.Context, ids ...any) ([]bool, error)
}

// Repository is the generic CRUD contract bound to one table.
type Repository[E any] interface {
	ReadRepository[E]
	WriteRepository[E]
	DeleteRepository

	Table() string
	Dialect() dialect.Dialect
	IndexedQuery(condition string) (query.IndexedQuery, error)
}
