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

import "github.com/puzpuzpuz/xsync/v3"

// Indexer memoizes ToIndexedQuery. It is safe for concurrent use. Failed
// conversions are not remembered. Returned indexes are shared and must not
// be modified.
type Indexer struct {
	cache *xsync.MapOf[string, IndexedQuery]
}

func NewIndexer() *Indexer {
	return &Indexer{cache: xsync.NewMapOf[string, IndexedQuery]()}
}

func (x *Indexer) Index(raw string) (IndexedQuery, error) {
	if q, ok := x.cache.Load(raw); ok {
		return q, nil
	}
	q, err := ToIndexedQuery(raw)
	if err != nil {
		return IndexedQuery{}, err
	}
	actual, _ := x.cache.LoadOrStore(raw, q)
	return actual, nil
}

// Len returns the number of cached queries.
func (x *Indexer) Len() int {
	return x.cache.Size()
}
