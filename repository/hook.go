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
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/tomoncle/sqlrepo/utils"
)

const (
	ansiReset    = "\x1b[0m"
	ansiRed      = "\x1b[31m"
	ansiYellow   = "\x1b[33m"
	ansiGreen    = "\x1b[32m"
	ansiBlue     = "\x1b[34m"
	ansiMagenta  = "\x1b[35m"
	ansiCyan     = "\x1b[36m"
	ansiBGYellow = "\x1b[43;97m"
)

// QueryEvent describes one statement run by a repository.
type QueryEvent struct {
	Operation string
	Table     string
	Query     string
	Args      []any
	StartTime time.Time
	Err       error
}

// Verb returns the leading SQL keyword of the statement, upper-cased.
func (e *QueryEvent) Verb() string {
	q := strings.TrimSpace(e.Query)
	if i := strings.IndexAny(q, " \t\n("); i > 0 {
		q = q[:i]
	}
	return strings.ToUpper(q)
}

// QueryHook observes statements. BeforeQuery may return a derived context
// which is used to run the statement.
type QueryHook interface {
	BeforeQuery(ctx context.Context, event *QueryEvent) context.Context
	AfterQuery(ctx context.Context, event *QueryEvent)
}

func colorWrap(s, code string) string { return code + s + ansiReset }

// LogQueryHook prints statements in colour. EnvName, when set in the
// environment, overrides Enabled/Verbose: "0" or "" disables, "1" prints
// failures only, "2" prints everything.
type LogQueryHook struct {
	EnvName string
	Enabled bool
	Verbose bool
	Writer  io.Writer
}

var _ QueryHook = (*LogQueryHook)(nil)

// NewLogQueryHook returns a hook controlled by the SQLREPO_DEBUG variable.
func NewLogQueryHook(verbose bool) *LogQueryHook {
	return &LogQueryHook{EnvName: "SQLREPO_DEBUG", Enabled: true, Verbose: verbose, Writer: os.Stderr}
}

func (h *LogQueryHook) BeforeQuery(ctx context.Context, _ *QueryEvent) context.Context {
	return ctx
}

func (h *LogQueryHook) AfterQuery(_ context.Context, event *QueryEvent) {
	enabled, verbose := h.Enabled, h.Verbose
	if h.EnvName != "" {
		if env, ok := os.LookupEnv(h.EnvName); ok {
			env = strings.TrimSpace(env)
			enabled = env != "" && env != "0"
			verbose = env == "2"
		}
	}
	if !enabled {
		return
	}
	if !verbose && (event.Err == nil || errors.Is(event.Err, sql.ErrNoRows)) {
		return
	}

	now := time.Now()
	args := []any{
		now.Format("2006-01-02 15:04:05.000"),
		colorWrap(fmt.Sprintf("%12s", "[SQLREPO]"), ansiCyan),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		"  ", colorByVerb(event.Verb(), FormatSQL(event.Query, event.Args...)),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", color.New(color.BgRed).Sprintf(" %s ", typ+": "+event.Err.Error()))
	}
	w := h.Writer
	if w == nil {
		w = os.Stderr
	}
	_, _ = fmt.Fprintln(w, args...)
}

func colorByVerb(verb, s string) string {
	switch verb {
	case "SELECT", "VALUES":
		return colorWrap(s, ansiGreen)
	case "INSERT":
		return colorWrap(s, ansiBlue)
	case "UPDATE":
		return colorWrap(s, ansiYellow)
	case "DELETE":
		return colorWrap(s, ansiMagenta)
	default:
		return colorWrap(s, ansiRed)
	}
}

// SlowQueryHook reports successful statements slower than Threshold, as a
// warning on Logger when set, otherwise on Writer.
type SlowQueryHook struct {
	Threshold time.Duration
	Writer    io.Writer
	Logger    utils.Logger
}

var _ QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(threshold time.Duration) *SlowQueryHook {
	return &SlowQueryHook{Threshold: threshold, Writer: os.Stderr}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, _ *QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(_ context.Context, event *QueryEvent) {
	if event.Err != nil || h.Threshold <= 0 {
		return
	}
	d := time.Since(event.StartTime)
	if d <= h.Threshold {
		return
	}
	if h.Logger != nil {
		h.Logger.Warn("slow query detected", "table", event.Table, "op", event.Operation,
			"duration", d, "slow_threshold", h.Threshold, "sql", FormatSQL(event.Query, event.Args...))
		return
	}
	w := h.Writer
	if w == nil {
		w = os.Stderr
	}
	_, _ = fmt.Fprintln(w,
		time.Now().Format("2006-01-02 15:04:05.000"),
		colorWrap(fmt.Sprintf("%12s", "[SQLREPO_SLOW]"), ansiYellow),
		fmt.Sprintf("%12s", d.Round(time.Microsecond)),
		"  ", colorWrap(event.Query, ansiBGYellow))
}
