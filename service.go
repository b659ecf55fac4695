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

package sqlrepo

import (
	"context"
	"sync"

	"github.com/tomoncle/sqlrepo/mapper"
	"github.com/tomoncle/sqlrepo/repository"
	"github.com/tomoncle/sqlrepo/types"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier, or the zero T.
	Get(ctx context.Context, id any) (T, error)

	// All returns all entities.
	All(ctx context.Context) ([]T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]T, error)

	// Query runs a condition written with :name placeholders.
	Query(ctx context.Context, condition string, params types.Parameters) ([]T, error)

	// Count returns the number of entities matching filter.
	Count(ctx context.Context, filter *types.QueryFilter) (int64, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save creates or updates each entity depending on its identity.
	Save(ctx context.Context, model ...T) ([]repository.SaveStatus, error)

	// Update modifies an existing entity.
	Update(ctx context.Context, model T) (bool, error)

	// Delete removes entities by identifier.
	Delete(ctx context.Context, id ...any) ([]bool, error)

	// Repository exposes the bound repository.
	Repository(ctx context.Context) (repository.Repository[T], error)
}

type baseServiceImpl[T any] struct {
	module *Module
	table  string
	mapper mapper.EntityMapper[T]

	once sync.Once
	repo repository.Repository[T]
	err  error
}

// NewService returns a Service bound lazily, on first use, to table on the
// module's default source.
func NewService[T any](m *Module, table string, em mapper.EntityMapper[T]) Service[T] {
	return &baseServiceImpl[T]{module: m, table: table, mapper: em}
}

func (s *baseServiceImpl[T]) baseRepo(ctx context.Context) (repository.Repository[T], error) {
	s.once.Do(func() { s.repo, s.err = Get[T](ctx, s.module, nil, s.table, s.mapper) })
	return s.repo, s.err
}

func filterOf(filter *types.QueryFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}
	return filter.Condition, filter.Args
}

func (s *baseServiceImpl[T]) Repository(ctx context.Context) (repository.Repository[T], error) {
	return s.baseRepo(ctx)
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (T, error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return repo.GetByID(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]T, error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.ListAll(ctx)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]T, error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		return nil, err
	}
	condition, args := filterOf(filter)
	return repo.ListBy(ctx, condition, args...)
}

func (s *baseServiceImpl[T]) Query(ctx context.Context, condition string, params types.Parameters) ([]T, error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.ListNamed(ctx, repository.ListOptions{}, condition, params)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) (int64, error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		return 0, err
	}
	condition, args := filterOf(filter)
	return repo.CountBy(ctx, condition, args...)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.Page(ctx, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...T) ([]repository.SaveStatus, error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.SaveAll(ctx, model, types.NoOptions)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model T) (bool, error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		return false, err
	}
	return repo.Update(ctx, model, types.NoOptions)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id ...any) ([]bool, error) {
	repo, err := s.baseRepo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.DeleteByIDs(ctx, id...)
}
