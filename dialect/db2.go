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

// DB2 paginates with rownumber() over(...). Derby shares the syntax.
type DB2 struct{ base }

func NewDB2() Dialect { return &DB2{base{name: "db2", driver: "go_ibm_db"}} }

func NewDerby() Dialect { return &DB2{base{name: "derby"}} }

func (d *DB2) UseMaxForLimit() bool { return true }

func hasDistinct(lower string) bool {
	return strings.Contains(lower, "select distinct")
}

func (d *DB2) LimitString(query string, hasOffset bool) string {
	lower := strings.ToLower(query)
	start := strings.Index(lower, "select")
	if start < 0 {
		start = 0
	}
	distinct := hasDistinct(lower)

	var sb strings.Builder
	sb.Grow(len(query) + 100)
	// leading comments stay in front of the outer select
	sb.WriteString(query[:start])
	sb.WriteString("select * from ( select ")

	sb.WriteString("rownumber() over(")
	if i := strings.Index(lower, "order by"); i > 0 && !distinct {
		sb.WriteString(query[i:])
	}
	sb.WriteString(") as rownumber_,")

	if distinct {
		sb.WriteString(" row_.* from ( ")
		sb.WriteString(query[start:])
		sb.WriteString(" ) as row_")
	} else if start+6 <= len(query) {
		sb.WriteString(query[start+6:])
	}

	sb.WriteString(" ) as temp_ where rownumber_ ")
	if hasOffset {
		sb.WriteString("between ?+1 and ?")
	} else {
		sb.WriteString("<= ?")
	}
	return sb.String()
}

func (d *DB2) LimitArgs(offset, bound int) []any {
	return windowArgs(offset, offset, bound, bound)
}

func (d *DB2) SupportsSequence() bool { return true }

func (d *DB2) SequenceNextVal(name string) (string, error) {
	return "values next value for " + name, nil
}

func (d *DB2) SelectSequenceNextVal(name string) (string, error) {
	return "next value for " + name, nil
}

func (d *DB2) TestQuery() string { return "SELECT 1 FROM SYSIBM.SYSDUMMY1" }
