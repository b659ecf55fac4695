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

package mapper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TagName is the struct tag read by Struct.
//
//	ID        int64     `sqlrepo:"id,pk"`
//	Name      string    `sqlrepo:"user_name"`
//	CreatedAt time.Time `sqlrepo:",readonly"`
//	Secret    string    `sqlrepo:"-"`
//
// The first element overrides the column name. "pk" marks the identity
// field, otherwise a field named ID or Id is used. "readonly" fields are
// loaded from rows but never inserted or updated.
const TagName = "sqlrepo"

type structField struct {
	name     string
	column   string
	index    []int
	readonly bool
}

// StructMapper maps *T by reflection over the exported fields of T.
// Embedded structs are flattened.
type StructMapper[T any] struct {
	typ      reflect.Type
	fields   map[string]*structField
	writable []string
	readable []string
	id       string
}

var _ EntityMapper[*struct{}] = (*StructMapper[struct{}])(nil)

// Struct builds the mapper for *T. T must be a struct type.
func Struct[T any]() (*StructMapper[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("mapper: %s is not a struct", typ)
	}
	m := &StructMapper[T]{typ: typ, fields: make(map[string]*structField)}
	if err := m.collect(typ, nil); err != nil {
		return nil, err
	}
	if m.id == "" {
		for _, candidate := range []string{"ID", "Id"} {
			if _, ok := m.fields[candidate]; ok {
				m.id = candidate
				break
			}
		}
	}
	return m, nil
}

// MustStruct is like Struct but panics on error.
func MustStruct[T any]() *StructMapper[T] {
	m, err := Struct[T]()
	if err != nil {
		panic(err)
	}
	return m
}

func (m *StructMapper[T]) collect(typ reflect.Type, parent []int) error {
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		tag := sf.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		index := append(append([]int(nil), parent...), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag == "" {
			if err := m.collect(sf.Type, index); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if _, dup := m.fields[sf.Name]; dup {
			return fmt.Errorf("mapper: %s has duplicate field %s", m.typ, sf.Name)
		}

		f := &structField{name: sf.Name, index: index}
		parts := strings.Split(tag, ",")
		f.column = strings.TrimSpace(parts[0])
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "pk":
				if m.id != "" {
					return errors.New("mapper: " + m.typ.String() + " has more than one pk field")
				}
				m.id = sf.Name
			case "readonly":
				f.readonly = true
			}
		}
		m.fields[sf.Name] = f
		m.writable = append(m.writable, sf.Name)
		if !f.readonly {
			m.readable = append(m.readable, sf.Name)
		}
	}
	return nil
}

func (m *StructMapper[T]) TypeName() string { return m.typ.String() }

func (m *StructMapper[T]) New() *T { return new(T) }

func (m *StructMapper[T]) WritableFields() []string { return m.writable }

func (m *StructMapper[T]) ReadableFields() []string { return m.readable }

func (m *StructMapper[T]) IdentityField() string { return m.id }

// ColumnName returns the tag column of field, or "".
func (m *StructMapper[T]) ColumnName(field string) string {
	if f, ok := m.fields[field]; ok {
		return f.column
	}
	return ""
}

// IsReadOnly reports whether field is excluded from INSERT and UPDATE.
func (m *StructMapper[T]) IsReadOnly(field string) bool {
	f, ok := m.fields[field]
	return ok && f.readonly
}

func (m *StructMapper[T]) Read(entity *T, field string) (any, error) {
	v, err := m.value(entity, field)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (m *StructMapper[T]) Write(entity *T, field string, value any) error {
	v, err := m.value(entity, field)
	if err != nil {
		return err
	}
	if err := Assign(v, value); err != nil {
		return fmt.Errorf("mapper: field %s.%s: %w", m.typ.Name(), field, err)
	}
	return nil
}

func (m *StructMapper[T]) value(entity *T, field string) (reflect.Value, error) {
	if entity == nil {
		return reflect.Value{}, fmt.Errorf("mapper: nil %s", m.typ)
	}
	f, ok := m.fields[field]
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, m.typ.Name(), field)
	}
	return reflect.ValueOf(entity).Elem().FieldByIndex(f.index), nil
}
