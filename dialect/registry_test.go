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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderFromURL(t *testing.T) {
	cases := map[string]string{
		"jdbc:mysql://localhost:3306/test":      "mysql",
		"jdbc:oracle:thin:@localhost:1521:orcl": "oracle",
		"jdbc:postgresql://localhost/test":      "postgresql",
		"postgres://u:p@localhost/db":           "postgres",
		"sqlserver://sa@localhost?database=x":   "sqlserver",
		"root:secret@tcp(127.0.0.1:3306)/test":  "mysql",
		"file::memory:?cache=shared":            "sqlite",
		"data/app.db":                           "sqlite",
		"jdbc:":                                 "",
		"something":                             "",
	}
	for url, want := range cases {
		assert.Equal(t, want, ProviderFromURL(url), url)
	}
}

func TestResolve(t *testing.T) {
	r := Default()
	for hint, want := range map[string]string{
		"mysql":                            "mysql",
		"MariaDB":                          "mysql",
		"postgresql":                       "postgres",
		"edb":                              "enterprisedb",
		"sqlserver":                        "mssql",
		"jdbc:db2://host:50000/db":         "db2",
		"jdbc:derby:memory:test":           "derby",
		"jdbc:postgresql://localhost/test": "postgres",
		"sqlite3":                          "sqlite",
	} {
		d, err := r.Resolve(hint)
		require.NoError(t, err, hint)
		assert.Equal(t, want, d.Name(), hint)
	}

	_, err := r.Resolve("jdbc:informix://x")
	assert.ErrorIs(t, err, ErrUnknownDialect)
	_, err = r.Resolve("")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestDetect(t *testing.T) {
	r := Default()
	for product, want := range map[string]string{
		"*mysql.MySQLDriver":   "mysql",
		"PostgreSQL":           "postgres",
		"EnterpriseDB":         "enterprisedb",
		"Microsoft SQL Server": "mssql",
		"Oracle":               "oracle",
		"DB2/LINUXX8664":       "db2",
		"Apache Derby":         "derby",
		"SQLite":               "sqlite",
	} {
		d, err := r.Detect(product)
		require.NoError(t, err, product)
		assert.Equal(t, want, d.Name(), product)
	}

	_, err := r.Detect("Informix")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestRegisterCustom(t *testing.T) {
	r := Default()
	r.Register("h2", NewGeneric, "hsql")
	d, err := r.Lookup("HSQL")
	require.NoError(t, err)
	assert.Equal(t, "generic", d.Name())
	assert.Contains(t, r.Names(), "h2")
	assert.Len(t, r.Names(), 10)
}

type hinted struct{ provider string }

func (h *hinted) Provider() string { return h.provider }

type namedProduct struct {
	calls int
	name  string
	err   error
}

func (p *namedProduct) ProductName(context.Context) (string, error) {
	p.calls++
	return p.name, p.err
}

func TestForSource(t *testing.T) {
	ctx := context.Background()
	r := Default()

	d, err := r.ForSource(ctx, &hinted{provider: "jdbc:oracle:thin:@x"})
	require.NoError(t, err)
	assert.Equal(t, "oracle", d.Name())

	p := &namedProduct{name: "PostgreSQL"}
	d, err = r.ForSource(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
	_, _ = r.ForSource(ctx, p)
	assert.Equal(t, 1, p.calls)

	r.Forget(p)
	_, _ = r.ForSource(ctx, p)
	assert.Equal(t, 2, p.calls)
}

func TestForSourceCachesUnknown(t *testing.T) {
	ctx := context.Background()
	r := Default()
	p := &namedProduct{name: "Informix"}
	_, err := r.ForSource(ctx, p)
	assert.ErrorIs(t, err, ErrUnknownDialect)
	_, err = r.ForSource(ctx, p)
	assert.ErrorIs(t, err, ErrUnknownDialect)
	assert.Equal(t, 1, p.calls)
}

func TestForSourceRetriesConnectionErrors(t *testing.T) {
	ctx := context.Background()
	r := Default()
	boom := errors.New("connection refused")
	p := &namedProduct{err: boom}
	_, err := r.ForSource(ctx, p)
	assert.ErrorIs(t, err, boom)

	p.err, p.name = nil, "MySQL"
	d, err := r.ForSource(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())
	assert.Equal(t, 2, p.calls)

	_, err = r.ForSource(ctx, struct{}{})
	assert.ErrorIs(t, err, ErrUnknownDialect)
}
