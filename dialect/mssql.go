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

// MSSQL targets SQL Server 2012 and later. The query must carry an ORDER BY
// for OFFSET/FETCH to be accepted by the server.
type MSSQL struct{ base }

func NewMSSQL() Dialect { return &MSSQL{base{name: "mssql", driver: "sqlserver"}} }

func (d *MSSQL) LimitString(query string, hasOffset bool) string {
	if hasOffset {
		return query + " OFFSET ? ROWS FETCH NEXT ? ROWS ONLY"
	}
	return query + " FETCH NEXT ? ROWS ONLY"
}

// LimitArgs binds a row count: FETCH NEXT takes the number of rows to
// return, not the last row number.
func (d *MSSQL) LimitArgs(offset, bound int) []any {
	return windowArgs(offset, offset, bound, bound)
}

func (d *MSSQL) SupportsSequence() bool { return true }

func (d *MSSQL) SequenceNextVal(name string) (string, error) {
	frag, _ := d.SelectSequenceNextVal(name)
	return "SELECT " + frag, nil
}

func (d *MSSQL) SelectSequenceNextVal(name string) (string, error) {
	return "NEXT VALUE FOR " + name, nil
}

func (d *MSSQL) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }
