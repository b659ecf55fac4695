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

// Package dialect adapts pagination, sequence and bind-variable syntax to
// each supported database vendor.
package dialect

import (
	"errors"
	"fmt"

	"github.com/tomoncle/sqlrepo/types"
)

var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrUnknownDialect       = errors.New("unknown dialect")
)

// Dialect describes the vendor specific parts of the generated SQL.
//
// LimitString only rewrites text; the values for the placeholders it adds
// come from LimitArgs, in the order they appear in the rewritten query.
type Dialect interface {
	Name() string
	DriverName() string

	SupportsLimit() bool
	// UseMaxForLimit reports whether the limit placeholder takes the last
	// row number (offset+count) instead of a row count.
	UseMaxForLimit() bool
	LimitString(query string, hasOffset bool) string
	LimitArgs(offset, bound int) []any

	SupportsSequence() bool
	// SequenceNextVal is a standalone statement returning the next value.
	SequenceNextVal(name string) (string, error)
	// SelectSequenceNextVal is an expression usable inside another statement.
	SelectSequenceNextVal(name string) (string, error)

	TestQuery() string
	// Placeholder returns the native bind variable for the 1-based ordinal n.
	Placeholder(n int) string
}

// base carries the defaults shared by most vendors.
type base struct {
	name   string
	driver string
}

func (b base) Name() string         { return b.name }
func (b base) DriverName() string   { return b.driver }
func (base) SupportsLimit() bool    { return true }
func (base) UseMaxForLimit() bool   { return false }
func (base) SupportsSequence() bool { return false }
func (base) TestQuery() string      { return "SELECT 1" }
func (base) Placeholder(int) string { return "?" }

func (b base) SequenceNextVal(string) (string, error) {
	return "", unsupported(b.name, "sequences")
}

func (b base) SelectSequenceNextVal(string) (string, error) {
	return "", unsupported(b.name, "sequences")
}

func unsupported(name, what string) error {
	return fmt.Errorf("%w: %s doesn't support %s", ErrUnsupportedOperation, name, what)
}

// ApplyLimit rewrites query with the dialect's pagination clause.
func ApplyLimit(d Dialect, query string, offset, limit int) string {
	return d.LimitString(query, offset > 0)
}

// Bound returns the value bound to the limit placeholder for the window.
func Bound(d Dialect, offset, count int) int {
	if d.UseMaxForLimit() {
		return offset + count
	}
	return count
}

// Paginate applies l to query and returns the rewritten text together with
// the values for the added placeholders. It returns the query unchanged when
// l is unlimited or the dialect has no LIMIT support.
func Paginate(d Dialect, query string, l types.Limit) (string, []any) {
	if l.IsUnlimited() || !d.SupportsLimit() {
		return query, nil
	}
	return ApplyLimit(d, query, l.Offset, l.Count), d.LimitArgs(l.Offset, Bound(d, l.Offset, l.Count))
}

// windowArgs returns first, second when an offset is present, else only single.
func windowArgs(offset int, first, second, single any) []any {
	if offset > 0 {
		return []any{first, second}
	}
	return []any{single}
}
