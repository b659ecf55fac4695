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

	"github.com/tomoncle/sqlrepo/types"
)

func (r *baseRepositoryImpl[E]) DeleteByID(ctx context.Context, id any) (bool, error) {
	return r.DeleteBy(ctx, r.idColumn+" = ?", id)
}

func (r *baseRepositoryImpl[E]) DeleteByColumn(ctx context.Context, column string, value any) (bool, error) {
	if isBlank(column) {
		return false, invalidArgument("empty column")
	}
	return r.DeleteBy(ctx, column+" = ?", value)
}

func (r *baseRepositoryImpl[E]) DeleteNamed(ctx context.Context, condition string, params types.Parameters) (bool, error) {
	q, args, err := r.named(condition, params)
	if err != nil {
		return false, err
	}
	return r.DeleteBy(ctx, q, args...)
}

// DeleteBy removes the rows matching condition. An empty condition is
// rejected so a table is never wiped by accident.
func (r *baseRepositoryImpl[E]) DeleteBy(ctx context.Context, condition string, params ...any) (bool, error) {
	if isBlank(condition) {
		return false, invalidArgument("no condition in the delete")
	}
	text := r.rebind(r.deleteSQL(condition))

	conn, err := r.conn(ctx, opDelete)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var res sql.Result
	err = r.run(ctx, opDelete, text, params, func(ctx context.Context) error {
		var err error
		res, err = conn.ExecContext(ctx, text, params...)
		return err
	})
	if err != nil {
		return false, r.fail(opDelete, text, params, err)
	}
	return affected(res), nil
}

// DeleteByIDs prepares one statement and runs it per id. A failing id is
// logged and reported as false.
func (r *baseRepositoryImpl[E]) DeleteByIDs(ctx context.Context, ids ...any) ([]bool, error) {
	result := make([]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	conn, err := r.conn(ctx, opDelete)
	if err != nil {
		return result, err
	}
	defer conn.Close()
	stmts := newStatements(conn)
	defer stmts.close()

	text := r.rebind(r.deleteSQL(r.idColumn + " = ?"))
	for i, id := range ids {
		args := []any{id}
		var res sql.Result
		err := r.run(ctx, opDelete, text, args, func(ctx context.Context) error {
			var err error
			res, err = stmts.exec(ctx, text, args)
			return err
		})
		if err != nil {
			r.logger.Warn("batch element failed", "table", r.table, "op", opDelete, "index", i,
				"sql", FormatSQL(text, args...), "error", err)
			continue
		}
		result[i] = affected(res)
	}
	return result, nil
}
