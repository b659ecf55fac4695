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

// Package mapper describes how a repository creates entities and moves
// field values in and out of them.
package mapper

import (
	"errors"
	"reflect"
)

var ErrUnknownField = errors.New("unknown field")

// EntityMapper gives a repository access to entities of type E.
//
// Writable fields are filled from query results and updated by UPDATE.
// Readable fields are read from the entity to build INSERT statements.
type EntityMapper[E any] interface {
	TypeName() string
	New() E
	WritableFields() []string
	ReadableFields() []string
	IdentityField() string
	Read(entity E, field string) (any, error)
	Write(entity E, field string, value any) error
}

// ColumnMapper is implemented by mappers that carry explicit column names.
// An empty result falls back to the repository's naming converter.
type ColumnMapper interface {
	ColumnName(field string) string
}

// ReadOnlyMapper is implemented by mappers with fields that are loaded from
// rows but never written by UPDATE.
type ReadOnlyMapper interface {
	IsReadOnly(field string) bool
}

// IsZero reports whether v is nil or the zero value of its type.
func IsZero(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return rv.Elem().IsZero()
	}
	return rv.IsZero()
}
