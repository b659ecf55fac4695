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
	"errors"
	"fmt"

	"github.com/tomoncle/sqlrepo/database"
	"github.com/tomoncle/sqlrepo/utils"
)

// FromConfig opens every configured connection and registers it in a new
// module. Sources opened before a failure are closed again.
func FromConfig(ctx context.Context, cfg *database.Config, opts ...Option) (*Module, error) {
	if cfg == nil {
		return nil, errors.New("database configuration cannot be empty")
	}
	cfg.ApplyLogging()
	m := NewModule(append([]Option{WithLogger(utils.NewDefaultLogger("sqlrepo"))}, opts...)...)
	for _, c := range cfg.Connections {
		ds, err := database.Open(ctx, c, m.logger)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("open %s: %w", c.Name, err)
		}
		if err := m.AddSource(ds); err != nil {
			_ = ds.Close()
			_ = m.Close()
			return nil, err
		}
	}
	return m, nil
}

// Load reads the configuration at path and calls FromConfig.
func Load(ctx context.Context, path string, opts ...Option) (*Module, error) {
	cfg, err := database.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(ctx, cfg, opts...)
}
