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

import (
	"strconv"
	"strings"
)

const forUpdate = " FOR UPDATE"

type Oracle struct{ base }

func NewOracle() Dialect { return &Oracle{base{name: "oracle", driver: "oracle"}} }

func (d *Oracle) UseMaxForLimit() bool { return true }

// LimitString nests the query under ROWNUM filters. A trailing FOR UPDATE is
// moved to the outermost select.
func (d *Oracle) LimitString(query string, hasOffset bool) string {
	query = strings.TrimSpace(query)
	locked := false
	if strings.HasSuffix(strings.ToUpper(query), forUpdate) {
		query = query[:len(query)-len(forUpdate)]
		locked = true
	}

	var sb strings.Builder
	sb.Grow(len(query) + 100)
	if hasOffset {
		sb.WriteString("SELECT * FROM ( SELECT ROW_.*, ROWNUM ROWNUM_ FROM ( ")
	} else {
		sb.WriteString("SELECT * FROM ( ")
	}
	sb.WriteString(query)
	if hasOffset {
		sb.WriteString(" ) ROW_ WHERE ROWNUM <= ?) WHERE ROWNUM_ > ?")
	} else {
		sb.WriteString(" ) WHERE ROWNUM <= ?")
	}
	if locked {
		sb.WriteString(forUpdate)
	}
	return sb.String()
}

func (d *Oracle) LimitArgs(offset, bound int) []any {
	return windowArgs(offset, bound, offset, bound)
}

func (d *Oracle) SupportsSequence() bool { return true }

func (d *Oracle) SequenceNextVal(name string) (string, error) {
	frag, _ := d.SelectSequenceNextVal(name)
	return "SELECT " + frag + " FROM DUAL", nil
}

func (d *Oracle) SelectSequenceNextVal(name string) (string, error) {
	return name + ".NEXTVAL", nil
}

func (d *Oracle) TestQuery() string { return "SELECT 1 FROM DUAL" }

func (d *Oracle) Placeholder(n int) string { return ":" + strconv.Itoa(n) }
