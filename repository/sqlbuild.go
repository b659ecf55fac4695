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
	"strings"

	"github.com/tomoncle/sqlrepo/types"
)

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// where appends " WHERE condition". Parameters without a condition are
// rejected.
func where(sb *strings.Builder, condition string, nparams int) error {
	if isBlank(condition) {
		if nparams > 0 {
			return invalidArgument("there are parameters but no query condition")
		}
		return nil
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(condition)
	return nil
}

func (r *baseRepositoryImpl[E]) selectSQL(columns []string, condition string, sortBy *types.SortBy, nparams int) (string, error) {
	var sb strings.Builder
	sb.Grow(128)
	sb.WriteString("SELECT ")
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
		sb.WriteByte('*')
	} else {
		sb.WriteString(strings.Join(columns, ","))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(r.table)
	if err := where(&sb, condition, nparams); err != nil {
		return "", err
	}
	if sortBy != nil && !isBlank(sortBy.Column) {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(sortBy.SQL())
	}
	return sb.String(), nil
}

func (r *baseRepositoryImpl[E]) countSQL(condition string, nparams int) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(r.table)
	if err := where(&sb, condition, nparams); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// insertSQL lists the insert columns, leaving out the identity column when
// withID is false.
func (r *baseRepositoryImpl[E]) insertSQL(withID bool) (string, []string) {
	fields := make([]string, 0, len(r.insertFields))
	cols := make([]string, 0, len(r.insertFields))
	for _, f := range r.insertFields {
		if f == r.idField && !withID {
			continue
		}
		fields = append(fields, f)
		cols = append(cols, r.columns[f])
	}
	var sb strings.Builder
	sb.Grow(64 + 16*len(cols))
	sb.WriteString("INSERT INTO ")
	sb.WriteString(r.table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ","))
	sb.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('?')
	}
	sb.WriteByte(')')
	return sb.String(), fields
}

func (r *baseRepositoryImpl[E]) updateSQL() string {
	var sb strings.Builder
	sb.Grow(64 + 16*len(r.updateFields))
	sb.WriteString("UPDATE ")
	sb.WriteString(r.table)
	sb.WriteString(" SET ")
	for i, f := range r.updateFields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(r.columns[f])
		sb.WriteString("=?")
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(r.idColumn)
	sb.WriteString(" = ?")
	return sb.String()
}

func (r *baseRepositoryImpl[E]) deleteSQL(condition string) string {
	return "DELETE FROM " + r.table + " WHERE " + condition
}
