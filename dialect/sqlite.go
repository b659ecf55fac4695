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

package dialect

import "strings"

type SQLite struct{ base }

func NewSQLite() Dialect { return &SQLite{base{name: "sqlite", driver: "sqliteshim"}} }

func (d *SQLite) LimitString(query string, hasOffset bool) string {
	query = strings.TrimSpace(query)
	if hasOffset {
		return query + " LIMIT ? OFFSET ?"
	}
	return query + " LIMIT ?"
}

func (d *SQLite) LimitArgs(offset, bound int) []any {
	return windowArgs(offset, bound, offset, bound)
}
