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

// Generic is used for engines without a pagination clause; callers cap the
// result set while reading rows.
type Generic struct{ base }

func NewGeneric() Dialect { return &Generic{base{name: "generic"}} }

func (d *Generic) SupportsLimit() bool { return false }

func (d *Generic) LimitString(query string, _ bool) string { return query }

func (d *Generic) LimitArgs(int, int) []any { return nil }
