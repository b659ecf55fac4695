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

package types

// SortBy orders a result set by a single column.
type SortBy struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// OrderBy is the same value under its other common name.
type OrderBy = SortBy

// Asc sorts by column in ascending order.
func Asc(column string) *SortBy {
	return &SortBy{Column: column, Ascending: true}
}

// Desc sorts by column in descending order.
func Desc(column string) *SortBy {
	return &SortBy{Column: column, Ascending: false}
}

// SQL renders the ORDER BY term, e.g. "created_at DESC".
func (s SortBy) SQL() string {
	if s.Ascending {
		return s.Column + " ASC"
	}
	return s.Column + " DESC"
}
