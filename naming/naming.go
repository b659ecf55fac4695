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

// Package naming converts Go field and type names into column and table names.
package naming

import (
	"strings"
	"unicode"
)

// Converter maps field names to columns and type names to tables.
type Converter interface {
	ColumnName(field string) string
	TableName(typeName string) string
}

type snakeCase struct{}

// SnakeCase turns "CreatedAt" into "created_at" and "pkg.UserRole" into
// "user_role". Acronyms stay together: "HTTPServer" becomes "http_server".
var SnakeCase Converter = snakeCase{}

func (snakeCase) ColumnName(field string) string { return Underscore(field) }

func (snakeCase) TableName(typeName string) string { return Underscore(baseName(typeName)) }

type exact struct{}

// Exact keeps names as they are, apart from the package qualifier of
// type names.
var Exact Converter = exact{}

func (exact) ColumnName(field string) string { return field }

func (exact) TableName(typeName string) string { return baseName(typeName) }

// ColumnName converts with SnakeCase.
func ColumnName(field string) string { return SnakeCase.ColumnName(field) }

// TableName converts with SnakeCase.
func TableName(typeName string) string { return SnakeCase.TableName(typeName) }

// Underscore converts a CamelCase identifier to snake_case.
func Underscore(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// baseName drops the package path, a pointer marker and generic arguments.
func baseName(typeName string) string {
	typeName = strings.TrimLeft(typeName, "*")
	if i := strings.IndexByte(typeName, '['); i >= 0 {
		typeName = typeName[:i]
	}
	if i := strings.LastIndexByte(typeName, '.'); i >= 0 {
		typeName = typeName[i+1:]
	}
	return typeName
}
