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

// Package query turns conditions written with named placeholders
// (":name") into positional '?' queries.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/sqlrepo/types"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrMissingParameter = errors.New("missing parameter")
)

// IndexedQuery is a positional query and the ordinal of every named
// placeholder it replaced. Ordinals start at 0 in order of first
// occurrence, and Query holds exactly len(Index) placeholders.
type IndexedQuery struct {
	Query string
	Index map[string]int
}

// Size returns the number of positional placeholders.
func (q IndexedQuery) Size() int { return len(q.Index) }

// Names returns the placeholder names ordered by ordinal.
func (q IndexedQuery) Names() []string {
	names := make([]string, len(q.Index))
	for name, i := range q.Index {
		names[i] = name
	}
	return names
}

// Project maps values onto the query's ordinals.
func (q IndexedQuery) Project(values types.Parameters) ([]any, error) {
	return Project(q.Index, values)
}

// ToIndexedQuery replaces each ":name" token with '?'. A token runs from the
// colon to the next space or the end of the input. Text without a colon is
// returned unchanged with an empty index.
func ToIndexedQuery(raw string) (IndexedQuery, error) {
	if strings.TrimSpace(raw) == "" {
		return IndexedQuery{}, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}
	index := make(map[string]int)
	if strings.IndexByte(raw, ':') < 0 {
		return IndexedQuery{Query: raw, Index: index}, nil
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	i := 0
	for i < len(raw) {
		j := strings.IndexByte(raw[i:], ':')
		if j < 0 {
			sb.WriteString(raw[i:])
			break
		}
		start := i + j
		sb.WriteString(raw[i:start])

		end := start + 1
		for end < len(raw) && raw[end] != ' ' {
			end++
		}
		name := raw[start+1 : end]
		if name == "" {
			return IndexedQuery{}, fmt.Errorf("%w: empty parameter name at %d in %q", ErrInvalidArgument, start, raw)
		}
		if _, dup := index[name]; dup {
			return IndexedQuery{}, fmt.Errorf("%w: duplicate named parameter :%s in %q", ErrInvalidArgument, name, raw)
		}
		index[name] = len(index)
		sb.WriteByte('?')
		i = end
	}
	return IndexedQuery{Query: sb.String(), Index: index}, nil
}

// Project returns a slice of len(index) where slot index[name] holds
// values[name].
func Project(index map[string]int, values types.Parameters) ([]any, error) {
	args := make([]any, len(index))
	for name, i := range index {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%w: :%s", ErrMissingParameter, name)
		}
		args[i] = v
	}
	return args, nil
}
