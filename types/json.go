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

package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JsonObject is a JSON object column. NULL scans into an empty object and a
// nil JsonObject is written as NULL.
type JsonObject map[string]any

// JsonArray is a JSON array column. NULL scans into an empty array and a nil
// JsonArray is written as NULL.
type JsonArray []any

func (j JsonObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalText(j)
}

func (j *JsonObject) Scan(value any) error {
	if value == nil {
		*j = make(JsonObject)
		return nil
	}
	return unmarshalColumn(value, j)
}

func (j JsonArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalText(j)
}

func (j *JsonArray) Scan(value any) error {
	if value == nil {
		*j = make(JsonArray, 0)
		return nil
	}
	return unmarshalColumn(value, j)
}

// marshalText binds JSON as a string so TEXT and JSON columns store text.
func marshalText(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalColumn(value any, dst any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("cannot scan %T into a JSON column", value)
}
