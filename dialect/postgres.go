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

import "strconv"

type Postgres struct{ base }

func NewPostgres() Dialect { return &Postgres{base{name: "postgres", driver: "postgres"}} }

// NewEnterpriseDB returns the PostgreSQL dialect under the enterprisedb name.
func NewEnterpriseDB() Dialect { return &Postgres{base{name: "enterprisedb", driver: "postgres"}} }

func (d *Postgres) LimitString(query string, hasOffset bool) string {
	if hasOffset {
		return query + " limit ? offset ?"
	}
	return query + " limit ?"
}

func (d *Postgres) LimitArgs(offset, bound int) []any {
	return windowArgs(offset, bound, offset, bound)
}

func (d *Postgres) SupportsSequence() bool { return true }

func (d *Postgres) SequenceNextVal(name string) (string, error) {
	frag, _ := d.SelectSequenceNextVal(name)
	return "select " + frag, nil
}

func (d *Postgres) SelectSequenceNextVal(name string) (string, error) {
	return "nextval ('" + name + "')", nil
}

func (d *Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
