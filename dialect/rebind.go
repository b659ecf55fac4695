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

// Rebind rewrites every '?' outside quoted literals into the dialect's native
// bind variable, numbering them from 1. Queries for '?' dialects are returned
// as is.
func Rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" || strings.IndexByte(query, '?') < 0 {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 16)
	var quote byte
	n := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			sb.WriteString(d.Placeholder(n))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
