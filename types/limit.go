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
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLimit is returned when a limit window has a negative offset or a
// non-positive count.
var ErrInvalidLimit = errors.New("invalid limit")

// Limit describes a pagination window: skip Offset rows, then take Count.
type Limit struct {
	Offset int
	Count  int
}

// Unlimited is the window that returns every row.
var Unlimited = Limit{Offset: 0, Count: math.MaxInt32}

// NewLimit validates and returns a pagination window.
func NewLimit(offset, count int) (Limit, error) {
	l := Limit{Offset: offset, Count: count}
	if err := l.Validate(); err != nil {
		return Limit{}, err
	}
	return l, nil
}

// First returns the window holding the first count rows.
func First(count int) Limit {
	return Limit{Offset: 0, Count: count}
}

// Validate checks Offset >= 0 and Count > 0.
func (l Limit) Validate() error {
	if l.Offset < 0 {
		return fmt.Errorf("%w: offset %d is negative", ErrInvalidLimit, l.Offset)
	}
	if l.Count <= 0 {
		return fmt.Errorf("%w: count %d must be positive", ErrInvalidLimit, l.Count)
	}
	return nil
}

// IsUnlimited reports whether the window covers every row.
func (l Limit) IsUnlimited() bool {
	return l.Offset == 0 && l.Count >= Unlimited.Count
}

// HasOffset reports whether rows have to be skipped.
func (l Limit) HasOffset() bool {
	return l.Offset > 0
}

type limitJSON struct {
	Offset int `json:"offset"`
	Count  int `json:"limit"`
}

// MarshalJSON implements json.Marshaler.
func (l Limit) MarshalJSON() ([]byte, error) {
	return json.Marshal(limitJSON{Offset: l.Offset, Count: l.Count})
}

// UnmarshalJSON implements json.Unmarshaler and rejects invalid windows.
func (l *Limit) UnmarshalJSON(data []byte) error {
	var v limitJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewLimit(v.Offset, v.Count)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l Limit) String() string {
	if l.IsUnlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("offset=%d count=%d", l.Offset, l.Count)
}
