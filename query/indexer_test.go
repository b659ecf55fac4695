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

package query

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/sqlrepo/types"
)

func TestToIndexedQuery(t *testing.T) {
	q, err := ToIndexedQuery("id =:foo_id AND name =:foo_name OR id=1")
	require.NoError(t, err)
	assert.Equal(t, "id =? AND name =? OR id=1", q.Query)
	assert.Equal(t, map[string]int{"foo_id": 0, "foo_name": 1}, q.Index)
	assert.Equal(t, []string{"foo_id", "foo_name"}, q.Names())
}

func TestToIndexedQueryTrailingToken(t *testing.T) {
	q, err := ToIndexedQuery("name = :name")
	require.NoError(t, err)
	assert.Equal(t, "name = ?", q.Query)
	assert.Equal(t, 1, q.Size())
}

func TestToIndexedQueryLeadingToken(t *testing.T) {
	q, err := ToIndexedQuery(":a = 1")
	require.NoError(t, err)
	assert.Equal(t, "? = 1", q.Query)
	assert.Equal(t, map[string]int{"a": 0}, q.Index)
}

func TestToIndexedQueryNoTokens(t *testing.T) {
	q, err := ToIndexedQuery("id = 1")
	require.NoError(t, err)
	assert.Equal(t, "id = 1", q.Query)
	assert.Empty(t, q.Index)
}

func TestPlaceholderCountMatchesIndex(t *testing.T) {
	for _, raw := range []string{
		"a = :a",
		"a = :a AND b = :b AND c IN ( :c )",
		"x = 1 OR y = :y",
	} {
		q, err := ToIndexedQuery(raw)
		require.NoError(t, err)
		assert.Equal(t, q.Size(), strings.Count(q.Query, "?"), raw)
	}
}

func TestToIndexedQueryRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "a = : AND b = 1", "a = :", "a = :x OR b = :x"} {
		_, err := ToIndexedQuery(raw)
		assert.ErrorIs(t, err, ErrInvalidArgument, raw)
	}
}

func TestProject(t *testing.T) {
	q, err := ToIndexedQuery("id =:foo_id AND name =:foo_name")
	require.NoError(t, err)

	args, err := q.Project(types.Parameters{"foo_name": "bob", "foo_id": 7, "extra": true})
	require.NoError(t, err)
	assert.Equal(t, []any{7, "bob"}, args)

	_, err = q.Project(types.Parameters{"foo_id": 7})
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.Contains(t, err.Error(), "foo_name")

	args, err = Project(map[string]int{}, nil)
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestIndexerCaches(t *testing.T) {
	x := NewIndexer()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := x.Index("name = :name")
			assert.NoError(t, err)
			assert.Equal(t, "name = ?", q.Query)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, x.Len())

	_, err := x.Index("a = :a OR b = :a")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 1, x.Len())
}
