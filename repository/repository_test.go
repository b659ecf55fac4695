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

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/sqlrepo/mapper"
	"github.com/tomoncle/sqlrepo/types"
)

func seedPeople(t *testing.T, repo Repository[*person]) []*person {
	t.Helper()
	people := []*person{
		{Name: "alice", Age: 30, Active: true},
		{Name: "bob", Age: 25},
		{Name: "carol", Age: 41, Active: true},
	}
	ok, err := repo.CreateAll(context.Background(), people, nil)
	require.NoError(t, err)
	require.Equal(t, []bool{true, true, true}, ok)
	return people
}

func TestNewValidatesConfig(t *testing.T) {
	ctx := context.Background()
	m := mapper.MustStruct[person]()

	_, err := New[*person](ctx, Config[*person]{Mapper: m})
	assert.ErrorIs(t, err, ErrIllegalState)

	_, err = New[*person](ctx, Config[*person]{Source: failingSource{}})
	assert.ErrorIs(t, err, ErrIllegalState)

	type noID struct{ Name string }
	_, err = New[*noID](ctx, Config[*noID]{
		Source: failingSource{},
		Mapper: mapper.MustStruct[noID](),
	})
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestNewResolvesDialectAndTable(t *testing.T) {
	repo := newPersonRepo(t, newSQLiteSource(t))
	assert.Equal(t, "person", repo.Table())
	assert.Equal(t, "sqlite", repo.Dialect().Name())

	iq, err := repo.IndexedQuery("name = :name")
	require.NoError(t, err)
	assert.Equal(t, "name = ?", iq.Query)
}

func TestCreateAssignsIdentity(t *testing.T) {
	repo := newPersonRepo(t, newSQLiteSource(t))
	people := seedPeople(t, repo)
	assert.Equal(t, int64(1), people[0].ID)
	assert.Equal(t, int64(2), people[1].ID)
	assert.Equal(t, int64(3), people[2].ID)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepo(t, newSQLiteSource(t))
	seedPeople(t, repo)

	p, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "bob", p.Name)
	assert.Equal(t, 25, p.Age)
	assert.False(t, p.Active)
	assert.Equal(t, "now", p.CreatedAt)

	p, err = repo.GetByColumn(ctx, "name", "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.ID)
	assert.True(t, p.Active)

	p, err = repo.GetNamed(ctx, "name = :name AND age = :age", types.Parameters{"name": "alice", "age": 30})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	p, err = repo.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = repo.GetBy(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = repo.GetByColumn(ctx, " ", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = repo.GetNamed(ctx, "name = :name", types.Parameters{})
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepo(t, newSQLiteSource(t))
	seedPeople(t, repo)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := repo.ListBy(ctx, "active = ?", true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	none, err := repo.ListBy(ctx, "age > ?", 100)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	window, err := repo.List(ctx, ListOptions{Limit: types.Limit{Offset: 1, Count: 1}, SortBy: types.Desc("age")}, "")
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "alice", window[0].Name)

	first, err := repo.List(ctx, ListOptions{Limit: types.First(2), SortBy: types.Asc("name")}, "age > ?", 20)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "alice", first[0].Name)
	assert.Equal(t, "bob", first[1].Name)

	named, err := repo.ListNamed(ctx, ListOptions{SortBy: types.Asc("id")}, "age >= :min AND age <= :max",
		types.Parameters{"min": 25, "max": 35})
	require.NoError(t, err)
	require.Len(t, named, 2)
	assert.Equal(t, "alice", named[0].Name)
	assert.Equal(t, "bob", named[1].Name)

	everyone, err := repo.ListNamed(ctx, ListOptions{}, "  ", nil)
	require.NoError(t, err)
	assert.Len(t, everyone, 3)

	_, err = repo.ListNamed(ctx, ListOptions{}, "", types.Parameters{"min": 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = repo.ListBy(ctx, "", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = repo.List(ctx, ListOptions{Limit: types.Limit{Offset: -1, Count: 1}}, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListProjection(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepo(t, newSQLiteSource(t))
	seedPeople(t, repo)

	list, err := repo.ListAll(ctx, "id", "name")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, p := range list {
		assert.NotZero(t, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.Zero(t, p.Age)
		assert.Empty(t, p.CreatedAt)
	}
}

func TestCountAndPage(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepo(t, newSQLiteSource(t))
	seedPeople(t, repo)

	n, err := repo.CountBy(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.CountBy(ctx, "active = ?", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := repo.Page(ctx, types.NewPageRequestWithSort(2, 2, types.Asc("id")))
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.EqualValues(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carol", page.Items[0].Name)

	page, err = repo.Page(ctx, types.NewPageRequestWithFilter(1, 10, types.NewQueryFilter("age > ?", 100)))
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)
	assert.Empty(t, page.Items)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepo(t, newSQLiteSource(t))
	people := seedPeople(t, repo)

	bob := people[1]
	bob.Age = 26
	bob.CreatedAt = "ignored"
	ok, err := repo.Update(ctx, bob, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 26, got.Age)
	assert.Equal(t, "now", got.CreatedAt)

	_, err = repo.Update(ctx, &person{Name: "nobody"}, nil)
	assert.ErrorIs(t, err, ErrIllegalState)

	ok, err = repo.Update(ctx, &person{ID: 42, Name: "ghost"}, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok2, err := repo.UpdateAll(ctx, []*person{people[0], {Name: "zero"}, people[2]}, nil)
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.Equal(t, []bool{true, false, false}, ok2)

	ok2, err = repo.UpdateAll(ctx, []*person{people[0], {ID: 42, Name: "ghost"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, ok2)
}

func TestCreateAllIgnoreError(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepo(t, newSQLiteSource(t))
	seedPeople(t, repo)

	ok, err := repo.CreateAll(ctx, []*person{{Name: "dave"}, {Name: "alice"}, {Name: "erin"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, ok)

	ok, err = repo.CreateAll(ctx, []*person{{Name: "frank"}, {Name: "bob"}, {Name: "gina"}},
		types.Options{types.OptionIgnoreError: false})
	require.Error(t, err)
	assert.Equal(t, []bool{true, false, false}, ok)

	var repoErr *RepositoryError
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, opCreate, repoErr.Op)
	assert.Contains(t, repoErr.SQL, "INSERT INTO person")
	isSQL, kind := Classify(err)
	assert.True(t, isSQL)
	assert.Equal(t, DuplicateKeyErr, kind)

	_, err = repo.Create(ctx, &person{Name: "carol"}, nil)
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepo(t, newSQLiteSource(t))
	people := seedPeople(t, repo)

	status, err := repo.Save(ctx, &person{Name: "dave", Age: 19}, nil)
	require.NoError(t, err)
	assert.Equal(t, Created, status)

	people[0].Age = 31
	status, err = repo.Save(ctx, people[0], nil)
	require.NoError(t, err)
	assert.Equal(t, Updated, status)

	status, err = repo.Save(ctx, &person{ID: 77, Name: "ghost"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Failed, status)

	people[1].Age = 50
	statuses, err := repo.SaveAll(ctx, []*person{
		{Name: "erin"},
		people[1],
		{Name: "alice"},
		{ID: 88, Name: "nobody"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []SaveStatus{Created, Updated, Failed, Failed}, statuses)

	got, err := repo.GetByColumn(ctx, "name", "erin")
	require.NoError(t, err)
	require.NotNil(t, got)

	statuses, err = repo.SaveAll(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepo(t, newSQLiteSource(t))
	seedPeople(t, repo)

	ok, err := repo.DeleteByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DeleteByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteByColumn(ctx, "name", "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DeleteNamed(ctx, "age > :age", types.Parameters{"age": 100})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.DeleteBy(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = repo.DeleteByColumn(ctx, "", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	seeded, err := repo.CreateAll(ctx, []*person{{Name: "x"}, {Name: "y"}}, nil)
	require.NoError(t, err)
	require.Equal(t, []bool{true, true}, seeded)

	results, err := repo.DeleteByIDs(ctx, 3, 99, 4)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, results)

	n, err := repo.CountBy(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	results, err = repo.DeleteByIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConnectionFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("pool exhausted")
	repo, err := New[*person](ctx, Config[*person]{
		Source: failingSource{err: boom},
		Mapper: mapper.MustStruct[person](),
	})
	require.NoError(t, err)
	assert.Equal(t, "mysql", repo.Dialect().Name())

	_, err = repo.ListAll(ctx)
	assert.ErrorIs(t, err, boom)
	var repoErr *RepositoryError
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, opList, repoErr.Op)

	ok, err := repo.CreateAll(ctx, []*person{{Name: "a"}}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []bool{false}, ok)
}

type profile struct {
	ID    int64 `sqlrepo:"id,pk"`
	Attrs types.JsonObject
	Tags  types.JsonArray
}

func TestJSONColumns(t *testing.T) {
	ctx := context.Background()
	src := newSQLiteSource(t)
	_, err := src.db.Exec(`CREATE TABLE profile (id INTEGER PRIMARY KEY AUTOINCREMENT, attrs TEXT, tags TEXT)`)
	require.NoError(t, err)
	repo, err := New[*profile](ctx, Config[*profile]{Source: src, Mapper: mapper.MustStruct[profile]()})
	require.NoError(t, err)

	full := &profile{Attrs: types.JsonObject{"city": "Oslo", "floor": 3}, Tags: types.JsonArray{"a", true}}
	empty := &profile{}
	ok, err := repo.CreateAll(ctx, []*profile{full, empty}, nil)
	require.NoError(t, err)
	require.Equal(t, []bool{true, true}, ok)

	got, err := repo.GetByID(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JsonObject{"city": "Oslo", "floor": float64(3)}, got.Attrs)
	assert.Equal(t, types.JsonArray{"a", true}, got.Tags)

	var raw string
	require.NoError(t, src.db.QueryRow(`SELECT attrs FROM profile WHERE id = ?`, full.ID).Scan(&raw))
	assert.JSONEq(t, `{"city":"Oslo","floor":3}`, raw)

	got, err = repo.GetByID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JsonObject{}, got.Attrs)
	assert.Equal(t, types.JsonArray{}, got.Tags)

	got.Tags = append(got.Tags, "late")
	ok1, err := repo.Update(ctx, got, nil)
	require.NoError(t, err)
	assert.True(t, ok1)
	got, err = repo.GetByID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JsonArray{"late"}, got.Tags)
}
