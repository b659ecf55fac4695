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

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Factory creates a dialect instance.
type Factory func() Dialect

// ProviderHint is implemented by sources that know their vendor up front.
type ProviderHint interface {
	Provider() string
}

// ProductNamer is implemented by sources that can ask the database for its
// product name.
type ProductNamer interface {
	ProductName(ctx context.Context) (string, error)
}

type resolution struct {
	dialect Dialect
	err     error
}

// Registry maps provider names and aliases to dialects and remembers the
// dialect resolved for each source.
type Registry struct {
	mu        sync.RWMutex
	names     []string
	factories *xsync.MapOf[string, Factory]
	sources   *xsync.MapOf[any, resolution]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: xsync.NewMapOf[string, Factory](),
		sources:   xsync.NewMapOf[any, resolution](),
	}
}

// Default returns a registry holding every built-in dialect.
func Default() *Registry {
	r := NewRegistry()
	r.Register("mysql", NewMySQL, "mariadb")
	r.Register("postgres", NewPostgres, "postgresql", "pgsql", "pq", "pgx")
	r.Register("enterprisedb", NewEnterpriseDB, "edb")
	r.Register("oracle", NewOracle, "godror", "oci8")
	r.Register("db2", NewDB2, "go_ibm_db", "ibm_db")
	r.Register("derby", NewDerby)
	r.Register("mssql", NewMSSQL, "sqlserver")
	r.Register("sqlite", NewSQLite, "sqlite3", "sqliteshim", "file")
	r.Register("generic", NewGeneric)
	return r
}

// Register binds name and its aliases to f, replacing earlier bindings.
func (r *Registry) Register(name string, f Factory, aliases ...string) {
	name = normalize(name)
	r.mu.Lock()
	if _, ok := r.factories.Load(name); !ok {
		r.names = append(r.names, name)
	}
	r.mu.Unlock()
	r.factories.Store(name, f)
	for _, a := range aliases {
		r.factories.Store(normalize(a), f)
	}
}

// Names returns the registered canonical names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := append([]string(nil), r.names...)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Lookup returns a new dialect for a registered name or alias.
func (r *Registry) Lookup(name string) (Dialect, error) {
	if f, ok := r.factories.Load(normalize(name)); ok {
		return f(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// Resolve accepts a dialect name, an alias or a connection URL.
func (r *Registry) Resolve(hint string) (Dialect, error) {
	if strings.TrimSpace(hint) == "" {
		return nil, fmt.Errorf("%w: empty provider", ErrUnknownDialect)
	}
	if d, err := r.Lookup(hint); err == nil {
		return d, nil
	}
	if p := ProviderFromURL(hint); p != "" {
		return r.Lookup(p)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, hint)
}

var productPatterns = []struct {
	pattern string
	name    string
}{
	{"enterprisedb", "enterprisedb"},
	{"postgres", "postgres"},
	{"mysql", "mysql"},
	{"mariadb", "mysql"},
	{"oracle", "oracle"},
	{"godror", "oracle"},
	{"microsoft sql server", "mssql"},
	{"sqlserver", "mssql"},
	{"mssql", "mssql"},
	{"db2", "db2"},
	{"derby", "derby"},
	{"sqlite", "sqlite"},
}

// Detect picks a dialect from a vendor-reported product name such as
// "PostgreSQL", "Microsoft SQL Server" or a driver type name.
func (r *Registry) Detect(productName string) (Dialect, error) {
	lower := strings.ToLower(productName)
	if lower == "" {
		return nil, fmt.Errorf("%w: empty product name", ErrUnknownDialect)
	}
	for _, p := range productPatterns {
		if strings.Contains(lower, p.pattern) {
			return r.Lookup(p.name)
		}
	}
	for _, name := range r.Names() {
		if strings.Contains(lower, name) {
			return r.Lookup(name)
		}
	}
	return nil, fmt.Errorf("%w: product %q", ErrUnknownDialect, productName)
}

// ForSource resolves the dialect of src: its provider hint first, then the
// product name reported by the live database. Results are cached per source,
// including unknown providers. Connection failures are not cached.
func (r *Registry) ForSource(ctx context.Context, src any) (Dialect, error) {
	if res, ok := r.sources.Load(src); ok {
		return res.dialect, res.err
	}

	var res resolution
	if h, ok := src.(ProviderHint); ok && strings.TrimSpace(h.Provider()) != "" {
		res.dialect, res.err = r.Resolve(h.Provider())
	} else if pn, ok := src.(ProductNamer); ok {
		name, err := pn.ProductName(ctx)
		if err != nil {
			return nil, fmt.Errorf("detect dialect: %w", err)
		}
		res.dialect, res.err = r.Detect(name)
	} else {
		res.err = fmt.Errorf("%w: source %T reports no provider", ErrUnknownDialect, src)
	}

	if res.err != nil && !errors.Is(res.err, ErrUnknownDialect) {
		return nil, res.err
	}
	actual, _ := r.sources.LoadOrStore(src, res)
	return actual.dialect, actual.err
}

// Forget drops the cached dialect of src.
func (r *Registry) Forget(src any) {
	r.sources.Delete(src)
}

// ProviderFromURL extracts the vendor from "jdbc:<p>:...", "<p>://..." or a
// go-sql-driver/mysql DSN. It returns "" when nothing matches.
func ProviderFromURL(url string) string {
	url = strings.TrimSpace(url)
	lower := strings.ToLower(url)
	if rest, ok := strings.CutPrefix(lower, "jdbc:"); ok {
		if i := strings.IndexByte(rest, ':'); i > 0 {
			return rest[:i]
		}
		return ""
	}
	if i := strings.Index(lower, "://"); i > 0 {
		return lower[:i]
	}
	if strings.HasPrefix(lower, "file:") || strings.HasSuffix(lower, ".db") || lower == ":memory:" {
		return "sqlite"
	}
	if strings.Contains(lower, "@tcp(") || strings.Contains(lower, "@unix(") {
		return "mysql"
	}
	return ""
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
