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
	"errors"

	"github.com/tomoncle/sqlrepo/mapper"
	"github.com/tomoncle/sqlrepo/types"
)

// statements prepares each statement shape once per connection.
type statements struct {
	conn  *sql.Conn
	cache map[string]*sql.Stmt
}

func newStatements(conn *sql.Conn) *statements {
	return &statements{conn: conn, cache: make(map[string]*sql.Stmt)}
}

func (s *statements) exec(ctx context.Context, text string, args []any) (sql.Result, error) {
	stmt, ok := s.cache[text]
	if !ok {
		var err error
		if stmt, err = s.conn.PrepareContext(ctx, text); err != nil {
			return nil, err
		}
		s.cache[text] = stmt
	}
	return stmt.ExecContext(ctx, args...)
}

func (s *statements) close() {
	for _, stmt := range s.cache {
		_ = stmt.Close()
	}
}

func affected(res sql.Result) bool {
	n, err := res.RowsAffected()
	if err != nil {
		return true
	}
	return n >= 1
}

func (r *baseRepositoryImpl[E]) identity(entity E) (any, error) {
	return r.mapper.Read(entity, r.idField)
}

func (r *baseRepositoryImpl[E]) hasIdentity(entity E) (bool, error) {
	id, err := r.identity(entity)
	if err != nil {
		return false, err
	}
	return !mapper.IsZero(id), nil
}

// nextID fetches "<table>_id_seq" on conn into the identity field.
func (r *baseRepositoryImpl[E]) nextID(ctx context.Context, conn *sql.Conn, entity E) error {
	text := r.sequenceSQL
	var id int64
	err := r.run(ctx, opNextID, text, nil, func(ctx context.Context) error {
		return conn.QueryRowContext(ctx, text).Scan(&id)
	})
	if err != nil {
		return r.fail(opNextID, text, nil, err)
	}
	if err := r.mapper.Write(entity, r.idField, id); err != nil {
		return r.fail(opNextID, text, nil, err)
	}
	return nil
}

func (r *baseRepositoryImpl[E]) insert(ctx context.Context, conn *sql.Conn, stmts *statements, entity E) (bool, error) {
	withID, err := r.hasIdentity(entity)
	if err != nil {
		return false, r.fail(opCreate, "", nil, err)
	}
	if !withID && r.sequenceSQL != "" {
		if err := r.nextID(ctx, conn, entity); err != nil {
			return false, err
		}
		withID = true
	}

	text, fields := r.insertSQL(withID)
	text = r.rebind(text)
	args := make([]any, len(fields))
	for i, f := range fields {
		if args[i], err = r.mapper.Read(entity, f); err != nil {
			return false, r.fail(opCreate, text, nil, err)
		}
	}

	var res sql.Result
	err = r.run(ctx, opCreate, text, args, func(ctx context.Context) error {
		var err error
		res, err = stmts.exec(ctx, text, args)
		return err
	})
	if err != nil {
		return false, r.fail(opCreate, text, args, err)
	}
	if !withID {
		if id, err := res.LastInsertId(); err == nil && id != 0 {
			if err := r.mapper.Write(entity, r.idField, id); err != nil {
				return false, r.fail(opCreate, text, args, err)
			}
		}
	}
	return affected(res), nil
}

func (r *baseRepositoryImpl[E]) update(ctx context.Context, stmts *statements, entity E) (bool, error) {
	if len(r.updateFields) == 0 {
		return false, illegalState("%s has no updatable fields", r.table)
	}
	id, err := r.identity(entity)
	if err != nil {
		return false, r.fail(opUpdate, "", nil, err)
	}
	if mapper.IsZero(id) {
		return false, illegalState("the id of %s is zero", r.table)
	}

	text := r.rebind(r.updateSQL())
	args := make([]any, 0, len(r.updateFields)+1)
	for _, f := range r.updateFields {
		v, err := r.mapper.Read(entity, f)
		if err != nil {
			return false, r.fail(opUpdate, text, nil, err)
		}
		args = append(args, v)
	}
	args = append(args, id)

	var res sql.Result
	err = r.run(ctx, opUpdate, text, args, func(ctx context.Context) error {
		var err error
		res, err = stmts.exec(ctx, text, args)
		return err
	})
	if err != nil {
		return false, r.fail(opUpdate, text, args, err)
	}
	return affected(res), nil
}

func (r *baseRepositoryImpl[E]) Create(ctx context.Context, entity E, opts types.Options) (bool, error) {
	ok, err := r.CreateAll(ctx, []E{entity}, strict(opts))
	if len(ok) == 0 {
		return false, err
	}
	return ok[0], err
}

func (r *baseRepositoryImpl[E]) Update(ctx context.Context, entity E, opts types.Options) (bool, error) {
	ok, err := r.UpdateAll(ctx, []E{entity}, strict(opts))
	if len(ok) == 0 {
		return false, err
	}
	return ok[0], err
}

func (r *baseRepositoryImpl[E]) CreateAll(ctx context.Context, entities []E, opts types.Options) ([]bool, error) {
	return r.batch(ctx, opCreate, entities, opts, r.insert)
}

func (r *baseRepositoryImpl[E]) UpdateAll(ctx context.Context, entities []E, opts types.Options) ([]bool, error) {
	return r.batch(ctx, opUpdate, entities, opts, func(ctx context.Context, _ *sql.Conn, stmts *statements, e E) (bool, error) {
		return r.update(ctx, stmts, e)
	})
}

// strict copies opts with ignore_error turned off; single-entity calls
// always report their failure.
func strict(opts types.Options) types.Options {
	out := make(types.Options, len(opts)+1)
	for k, v := range opts {
		out[k] = v
	}
	out[types.OptionIgnoreError] = false
	return out
}

type applyFunc[E any] func(ctx context.Context, conn *sql.Conn, stmts *statements, entity E) (bool, error)

// batch applies fn to each entity on one connection. With ignore_error set
// (the default) execution failures are reported per element only; otherwise
// the first failure stops the batch and is returned. ErrIllegalState, such as
// an update without identity, always stops the batch.
func (r *baseRepositoryImpl[E]) batch(ctx context.Context, op string, entities []E, opts types.Options, fn applyFunc[E]) ([]bool, error) {
	result := make([]bool, len(entities))
	if len(entities) == 0 {
		return result, nil
	}
	conn, err := r.conn(ctx, op)
	if err != nil {
		return result, err
	}
	defer conn.Close()
	stmts := newStatements(conn)
	defer stmts.close()

	ignore := opts.IgnoreError()
	for i, e := range entities {
		ok, err := fn(ctx, conn, stmts, e)
		if err != nil {
			if !ignore || errors.Is(err, ErrIllegalState) {
				return result, err
			}
			r.logger.Warn("batch element failed", "table", r.table, "op", op, "index", i, "error", err)
			continue
		}
		result[i] = ok
	}
	return result, nil
}

func (r *baseRepositoryImpl[E]) Save(ctx context.Context, entity E, opts types.Options) (SaveStatus, error) {
	withID, err := r.hasIdentity(entity)
	if err != nil {
		return Failed, r.fail("save", "", nil, err)
	}
	if !withID {
		ok, err := r.Create(ctx, entity, opts)
		if err != nil || !ok {
			return Failed, err
		}
		return Created, nil
	}
	ok, err := r.Update(ctx, entity, opts)
	if err != nil || !ok {
		return Failed, err
	}
	return Updated, nil
}

// SaveAll splits entities into inserts and updates, runs both batches on
// one connection and reports statuses in input order.
func (r *baseRepositoryImpl[E]) SaveAll(ctx context.Context, entities []E, opts types.Options) ([]SaveStatus, error) {
	status := make([]SaveStatus, len(entities))
	var creates, updates []E
	var createAt, updateAt []int
	for i, e := range entities {
		status[i] = Failed
		withID, err := r.hasIdentity(e)
		if err != nil {
			return status, r.fail("save", "", nil, err)
		}
		if withID {
			updates, updateAt = append(updates, e), append(updateAt, i)
		} else {
			creates, createAt = append(creates, e), append(createAt, i)
		}
	}
	if len(entities) == 0 {
		return status, nil
	}

	conn, err := r.conn(ctx, "save")
	if err != nil {
		return status, err
	}
	defer conn.Close()
	stmts := newStatements(conn)
	defer stmts.close()

	ignore := opts.IgnoreError()
	run := func(batch []E, at []int, done SaveStatus, fn applyFunc[E]) error {
		for j, e := range batch {
			ok, err := fn(ctx, conn, stmts, e)
			if err != nil {
				if !ignore || errors.Is(err, ErrIllegalState) {
					return err
				}
				r.logger.Warn("batch element failed", "table", r.table, "op", "save", "index", at[j], "error", err)
				continue
			}
			if ok {
				status[at[j]] = done
			}
		}
		return nil
	}
	if err := run(creates, createAt, Created, r.insert); err != nil {
		return status, err
	}
	err = run(updates, updateAt, Updated, func(ctx context.Context, _ *sql.Conn, stmts *statements, e E) (bool, error) {
		return r.update(ctx, stmts, e)
	})
	return status, err
}
