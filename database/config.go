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

package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/sqlrepo/utils"
)

var ErrUnsupportedConfig = errors.New("unsupported config format")

// LoadConfig reads a YAML, TOML or JSON file chosen by extension, fills
// unset pool settings from DefaultConnectionConfig and applies environment
// overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize applies defaults and environment overrides to every connection.
func (c *Config) Normalize() {
	for i := range c.Connections {
		conn := &c.Connections[i]
		conn.applyDefaults()
		conn.overrideFromEnv()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = utils.EnvDefaultString("LOG_LEVEL", "info")
	}
}

// ApplyLogging configures the named loggers from c.Logging.
func (c *Config) ApplyLogging() {
	if c.Logging.Format != "" {
		utils.SetConsoleFormat(c.Logging.Format)
	}
	if c.Logging.Level != "" {
		utils.ConfigureLogLevel(c.Logging.Level)
	}
}

func (c *ConnectionConfig) applyDefaults() {
	def := DefaultConnectionConfig()
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = def.MaxIdleConns
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = def.MaxOpenConns
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = def.ConnMaxIdleTime
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
}

// EnvPrefix returns "DB_<NAME>_" for a named connection and "DB_" otherwise.
// NAME is upper-cased with every other character turned into '_'.
func (c *ConnectionConfig) EnvPrefix() string {
	if c.Name == "" {
		return "DB_"
	}
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, c.Name)
	return "DB_" + name + "_"
}

// overrideFromEnv overrides configuration values from environment variables.
func (c *ConnectionConfig) overrideFromEnv() {
	prefix := c.EnvPrefix()
	c.Host = utils.EnvDefaultString(prefix+"HOST", c.Host)
	c.Port = utils.EnvDefaultInt(prefix+"PORT", c.Port)
	c.Username = utils.EnvDefaultString(prefix+"USERNAME", c.Username)
	c.Password = utils.EnvDefaultString(prefix+"PASSWORD", c.Password)
	c.DBName = utils.EnvDefaultString(prefix+"DBNAME", c.DBName)
	c.URL = utils.EnvDefaultString(prefix+"URL", c.URL)
	c.SSLMode = utils.EnvDefaultString(prefix+"SSLMODE", c.SSLMode)
	c.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", c.EnableQueryLog)
}
