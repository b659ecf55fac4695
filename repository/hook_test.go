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
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	mu     sync.Mutex
	events []QueryEvent
}

func (h *recordingHook) BeforeQuery(ctx context.Context, _ *QueryEvent) context.Context { return ctx }

func (h *recordingHook) AfterQuery(_ context.Context, event *QueryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, *event)
}

func TestQueryEventVerb(t *testing.T) {
	assert.Equal(t, "SELECT", (&QueryEvent{Query: "  select * from t"}).Verb())
	assert.Equal(t, "VALUES", (&QueryEvent{Query: "values next value for s"}).Verb())
	assert.Equal(t, "INSERT", (&QueryEvent{Query: "INSERT INTO t(a) VALUES (?)"}).Verb())
	assert.Equal(t, "", (&QueryEvent{}).Verb())
}

func TestHooksObserveStatements(t *testing.T) {
	hook := &recordingHook{}
	repo := newPersonRepo(t, newSQLiteSource(t), hook)
	ctx := context.Background()

	_, err := repo.Create(ctx, &person{Name: "a"}, nil)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	_, err = repo.ListBy(ctx, "nope = ?", 1)
	require.Error(t, err)

	require.Len(t, hook.events, 3)
	assert.Equal(t, opCreate, hook.events[0].Operation)
	assert.Equal(t, "INSERT", hook.events[0].Verb())
	assert.Equal(t, "person", hook.events[0].Table)
	assert.Equal(t, opGet, hook.events[1].Operation)
	assert.Equal(t, []any{1}, hook.events[1].Args)
	assert.NoError(t, hook.events[1].Err)
	assert.Error(t, hook.events[2].Err)
	assert.False(t, hook.events[2].StartTime.IsZero())
}

func TestLogQueryHook(t *testing.T) {
	var buf bytes.Buffer
	hook := &LogQueryHook{Enabled: true, Writer: &buf}
	ctx := context.Background()
	ok := &QueryEvent{Query: "SELECT 1", StartTime: time.Now()}

	hook.AfterQuery(hook.BeforeQuery(ctx, ok), ok)
	assert.Empty(t, buf.String())

	failed := &QueryEvent{Query: "SELECT * FROM t WHERE id = ?", Args: []any{1}, StartTime: time.Now(), Err: errors.New("boom")}
	hook.AfterQuery(ctx, failed)
	out := buf.String()
	assert.Contains(t, out, "[SQLREPO]")
	assert.Contains(t, out, "SELECT * FROM t WHERE id = ? 1")
	assert.Contains(t, out, "boom")

	buf.Reset()
	hook.Verbose = true
	hook.AfterQuery(ctx, ok)
	assert.Contains(t, buf.String(), "SELECT 1")

	buf.Reset()
	hook.EnvName = "SQLREPO_TEST_DEBUG"
	t.Setenv("SQLREPO_TEST_DEBUG", "0")
	hook.AfterQuery(ctx, failed)
	assert.Empty(t, buf.String())

	t.Setenv("SQLREPO_TEST_DEBUG", "1")
	hook.AfterQuery(ctx, ok)
	assert.Empty(t, buf.String())
	hook.AfterQuery(ctx, failed)
	assert.Contains(t, buf.String(), "boom")
}

func TestSlowQueryHook(t *testing.T) {
	var buf bytes.Buffer
	hook := &SlowQueryHook{Threshold: time.Millisecond, Writer: &buf}
	ctx := context.Background()

	hook.AfterQuery(ctx, &QueryEvent{Query: "SELECT fast", StartTime: time.Now()})
	assert.Empty(t, buf.String())

	hook.AfterQuery(ctx, &QueryEvent{Query: "SELECT slow", StartTime: time.Now().Add(-time.Second), Err: errors.New("x")})
	assert.Empty(t, buf.String())

	hook.AfterQuery(ctx, &QueryEvent{Query: "SELECT slow", StartTime: time.Now().Add(-time.Second)})
	assert.Contains(t, buf.String(), "[SQLREPO_SLOW]")
	assert.Contains(t, buf.String(), "SELECT slow")
}

func TestSlowQueryHookLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &captureLogger{}
	hook := &SlowQueryHook{Threshold: time.Millisecond, Writer: &buf, Logger: logger}

	hook.AfterQuery(context.Background(), &QueryEvent{Query: "SELECT slow", StartTime: time.Now().Add(-time.Second)})
	assert.Equal(t, []string{"slow query detected"}, logger.warns)
	assert.Empty(t, buf.String())
}

func TestSourceHooksRunFirst(t *testing.T) {
	var order []string
	src := &hookedSource{dbSource: newSQLiteSource(t), hooks: []QueryHook{&orderHook{name: "source", order: &order}}}
	repo := newPersonRepo(t, src, &orderHook{name: "config", order: &order})

	_, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"source", "config"}, order)
}

type hookedSource struct {
	*dbSource
	hooks []QueryHook
}

func (s *hookedSource) QueryHooks() []QueryHook { return s.hooks }

type orderHook struct {
	name  string
	order *[]string
}

func (h *orderHook) BeforeQuery(ctx context.Context, _ *QueryEvent) context.Context {
	*h.order = append(*h.order, h.name)
	return ctx
}

func (h *orderHook) AfterQuery(context.Context, *QueryEvent) {}
