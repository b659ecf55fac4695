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
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/sqlrepo/dialect"
	"github.com/tomoncle/sqlrepo/query"
)

var (
	ErrInvalidArgument      = query.ErrInvalidArgument
	ErrMissingParameter     = query.ErrMissingParameter
	ErrIllegalState         = errors.New("illegal state")
	ErrUnsupportedOperation = dialect.ErrUnsupportedOperation
	ErrUnknownDialect       = dialect.ErrUnknownDialect
)

// RepositoryError wraps a failure to execute a statement or to map its rows.
type RepositoryError struct {
	Op     string
	SQL    string
	Params []any
	Err    error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: execute sql:%s error: %v", e.Op, FormatSQL(e.SQL, e.Params...), e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// FormatSQL renders a statement and its parameters for logs and errors:
// "sql", "sql p" or "sql [p1,p2]".
func FormatSQL(sql string, params ...any) string {
	switch len(params) {
	case 0:
		return sql
	case 1:
		return sql + " " + fmt.Sprint(params[0])
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}
	return sql + " [" + strings.Join(parts, ",") + "]"
}

func illegalState(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIllegalState}, args...)...)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}
