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

// Package sqlrepo wires named connection sources to repository factories and
// picks the default source.
package sqlrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/tomoncle/sqlrepo/mapper"
	"github.com/tomoncle/sqlrepo/repository"
	"github.com/tomoncle/sqlrepo/utils"
)

// Module holds the known connection sources, in registration order, and one
// repository factory per source.
type Module struct {
	mu      sync.RWMutex
	order   []string
	sources map[string]repository.NamedSource

	factories *xsync.MapOf[repository.ConnectionSource, *repository.Factory]
	options   []repository.FactoryOption
	logger    utils.Logger
}

// Option configures a Module.
type Option func(*Module)

func WithLogger(l utils.Logger) Option {
	return func(m *Module) { m.logger = l }
}

// WithFactoryOptions is applied to every factory the module creates.
func WithFactoryOptions(opts ...repository.FactoryOption) Option {
	return func(m *Module) { m.options = append(m.options, opts...) }
}

func NewModule(opts ...Option) *Module {
	m := &Module{
		sources:   make(map[string]repository.NamedSource),
		factories: xsync.NewMapOf[repository.ConnectionSource, *repository.Factory](),
		logger:    utils.NopLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddSource registers src under src.Name(). Names are unique.
func (m *Module) AddSource(src repository.NamedSource) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", repository.ErrInvalidArgument)
	}
	name := strings.TrimSpace(src.Name())
	if name == "" {
		return fmt.Errorf("%w: source without a name", repository.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[name]; ok {
		return fmt.Errorf("%w: source %s already registered", repository.ErrIllegalState, name)
	}
	m.sources[name] = src
	m.order = append(m.order, name)
	m.logger.Debug("source registered", "name", name, "default", src.IsDefault())
	return nil
}

// RemoveSource unregisters name and drops its factory. It returns the
// removed source, or nil.
func (m *Module) RemoveSource(name string) repository.NamedSource {
	m.mu.Lock()
	src, ok := m.sources[name]
	if ok {
		delete(m.sources, name)
		for i, n := range m.order {
			if n == name {
				m.order = append(m.order[:i:i], m.order[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	m.factories.Delete(src)
	return src
}

func (m *Module) Source(name string) (repository.NamedSource, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[name]
	return src, ok
}

// Sources returns the registered sources in registration order.
func (m *Module) Sources() []repository.NamedSource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]repository.NamedSource, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.sources[name])
	}
	return out
}

// DefaultSource returns nil without sources, the only source when there is
// one, otherwise the first source flagged as default, falling back to the
// first registered.
func (m *Module) DefaultSource() repository.NamedSource {
	sources := m.Sources()
	switch len(sources) {
	case 0:
		return nil
	case 1:
		return sources[0]
	}
	for _, src := range sources {
		if src.IsDefault() {
			return src
		}
	}
	return sources[0]
}

// Factory returns the repository factory of src, creating it on first use.
func (m *Module) Factory(src repository.ConnectionSource) *repository.Factory {
	if src == nil {
		return nil
	}
	f, _ := m.factories.LoadOrCompute(src, func() *repository.Factory {
		opts := append([]repository.FactoryOption{repository.WithLogger(m.logger)}, m.options...)
		return repository.NewFactory(src, opts...)
	})
	return f
}

// Close closes every registered source that can be closed.
func (m *Module) Close() error {
	var errs []error
	for _, src := range m.Sources() {
		if c, ok := src.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", src.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Get returns the repository of table on src, or on the default source when
// src is nil.
func Get[E any](ctx context.Context, m *Module, src repository.ConnectionSource, table string, em mapper.EntityMapper[E]) (repository.Repository[E], error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no module", repository.ErrIllegalState)
	}
	if src == nil {
		def := m.DefaultSource()
		if def == nil {
			return nil, fmt.Errorf("%w: no connection source", repository.ErrIllegalState)
		}
		src = def
	}
	return repository.Get[E](ctx, m.Factory(src), table, em)
}
