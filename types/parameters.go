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

// Parameters holds values for named placeholders, keyed without the leading ':'.
type Parameters map[string]any

// Options tunes a single repository call.
type Options map[string]any

// OptionIgnoreError keeps a batch running after one element fails. Defaults to true.
const OptionIgnoreError = "ignore_error"

// NoOptions is the empty option set.
var NoOptions = Options{}

// IgnoreError reports the ignore_error option, true unless set to false.
func (o Options) IgnoreError() bool {
	return o.Bool(OptionIgnoreError, true)
}

// Bool returns the boolean option key or def when absent or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if o == nil {
		return def
	}
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}
