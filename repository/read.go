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

	"github.com/tomoncle/sqlrepo/dialect"
	"github.com/tomoncle/sqlrepo/types"
)

const (
	opList   = "list"
	opGet    = "get"
	opCount  = "count"
	opCreate = "create"
	opUpdate = "update"
	opNextID = "sequence"
	opDelete = "delete"
)

func (r *baseRepositoryImpl[E]) ListAll(ctx context.Context, columns ...string) ([]E, error) {
	return r.List(ctx, ListOptions{Columns: columns}, "")
}

func (r *baseRepositoryImpl[E]) ListBy(ctx context.Context, condition string, params ...any) ([]E, error) {
	return r.List(ctx, ListOptions{}, condition, params...)
}

// ListNamed is List with ":name" placeholders. A blank condition lists every
// row, as List does, and rejects non-empty params.
func (r *baseRepositoryImpl[E]) ListNamed(ctx context.Context, opts ListOptions, condition string, params types.Parameters) ([]E, error) {
	if isBlank(condition) {
		if len(params) > 0 {
			return nil, invalidArgument("there are parameters but no query condition")
		}
		return r.List(ctx, opts, "")
	}
	q, args, err := r.named(condition, params)
	if err != nil {
		return nil, err
	}
	return r.List(ctx, opts, q, args...)
}

func (r *baseRepositoryImpl[E]) List(ctx context.Context, opts ListOptions, condition string, params ...any) ([]E, error) {
	text, err := r.selectSQL(opts.Columns, condition, opts.SortBy, len(params))
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit.Count == 0 && limit.Offset == 0 {
		limit = types.Unlimited
	}
	if err := limit.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	args := params
	skip, take := 0, -1
	if !limit.IsUnlimited() {
		if r.dialect.SupportsLimit() {
			var extra []any
			text, extra = dialect.Paginate(r.dialect, text, limit)
			args = append(append(make([]any, 0, len(params)+len(extra)), params...), extra...)
		} else {
			skip, take = limit.Offset, limit.Count
		}
	}
	text = r.rebind(text)

	conn, err := r.conn(ctx, opList)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var list []E
	err = r.run(ctx, opList, text, args, func(ctx context.Context) error {
		rows, err := conn.QueryContext(ctx, text, args...)
		if err != nil {
			return err
		}
		list, err = r.scanRows(rows, skip, take)
		return err
	})
	if err != nil {
		return nil, r.fail(opList, text, args, err)
	}
	if list == nil {
		list = make([]E, 0)
	}
	return list, nil
}

func (r *baseRepositoryImpl[E]) GetByID(ctx context.Context, id any) (E, error) {
	return r.GetBy(ctx, r.idColumn+" = ?", id)
}

func (r *baseRepositoryImpl[E]) GetByColumn(ctx context.Context, column string, value any) (E, error) {
	if isBlank(column) {
		var zero E
		return zero, invalidArgument("empty column")
	}
	return r.GetBy(ctx, column+" = ?", value)
}

func (r *baseRepositoryImpl[E]) GetNamed(ctx context.Context, condition string, params types.Parameters) (E, error) {
	q, args, err := r.named(condition, params)
	if err != nil {
		var zero E
		return zero, err
	}
	return r.GetBy(ctx, q, args...)
}

func (r *baseRepositoryImpl[E]) GetBy(ctx context.Context, condition string, params ...any) (E, error) {
	var zero E
	if isBlank(condition) {
		return zero, invalidArgument("no condition in the query")
	}
	text, err := r.selectSQL(nil, condition, nil, len(params))
	if err != nil {
		return zero, err
	}
	text = r.rebind(text)

	conn, err := r.conn(ctx, opGet)
	if err != nil {
		return zero, err
	}
	defer conn.Close()

	var list []E
	err = r.run(ctx, opGet, text, params, func(ctx context.Context) error {
		rows, err := conn.QueryContext(ctx, text, params...)
		if err != nil {
			return err
		}
		list, err = r.scanRows(rows, 0, 1)
		return err
	})
	if err != nil {
		return zero, r.fail(opGet, text, params, err)
	}
	if len(list) == 0 {
		return zero, nil
	}
	return list[0], nil
}

func (r *baseRepositoryImpl[E]) CountBy(ctx context.Context, condition string, params ...any) (int64, error) {
	text, err := r.countSQL(condition, len(params))
	if err != nil {
		return 0, err
	}
	text = r.rebind(text)

	conn, err := r.conn(ctx, opCount)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var total int64
	err = r.run(ctx, opCount, text, params, func(ctx context.Context) error {
		return conn.QueryRowContext(ctx, text, params...).Scan(&total)
	})
	if err != nil {
		return 0, r.fail(opCount, text, params, err)
	}
	return total, nil
}

func (r *baseRepositoryImpl[E]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[E], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(1, 0)
	}
	var condition string
	var args []any
	if f := page.GetFilter(); f != nil {
		condition, args = f.Condition, f.Args
	}
	pagination := types.NewDefaultPagination[E](page.GetPage(), page.GetPageSize())
	total, err := r.CountBy(ctx, condition, args...)
	if err != nil || total == 0 {
		return pagination, err
	}
	items, err := r.List(ctx, ListOptions{Limit: page.Limit(), SortBy: page.GetSortBy()}, condition, args...)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

func (r *baseRepositoryImpl[E]) named(condition string, params types.Parameters) (string, []any, error) {
	iq, err := r.indexer.Index(condition)
	if err != nil {
		return "", nil, err
	}
	args, err := iq.Project(params)
	if err != nil {
		return "", nil, err
	}
	return iq.Query, args, nil
}

// scanRows maps rows onto new entities, skipping the first skip rows and
// stopping after take entities when take >= 0. Columns without a matching
// writable field are ignored. rows is closed.
func (r *baseRepositoryImpl[E]) scanRows(rows *sql.Rows, skip, take int) ([]E, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	fields := make([]string, len(cols))
	for i, c := range cols {
		fields[i] = r.byColumn[strings.ToLower(c)]
	}

	var list []E
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if skip > 0 {
			skip--
			continue
		}
		if take >= 0 && len(list) >= take {
			break
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		entity := r.mapper.New()
		for i, f := range fields {
			if f == "" {
				continue
			}
			if err := r.mapper.Write(entity, f, values[i]); err != nil {
				return nil, fmt.Errorf("creating entity from column %s: %w", cols[i], err)
			}
		}
		list = append(list, entity)
	}
	return list, rows.Err()
}
