// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package regexp wraps the standard library regexp so a pattern can be
// embedded directly in a JSON/YAML config field.
package regexp

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Regexp is a regexp.Regexp that knows how to unmarshal itself from a
// JSON/YAML string. The zero value matches everything: a Regexp that
// failed to unmarshal (and so returned an error to its caller) still
// behaves safely if a caller ignores the error and calls MatchString
// anyway, rather than silently matching nothing forever.
type Regexp struct {
	re *regexp.Regexp
}

// New compiles pattern directly, for callers building a Regexp outside
// of unmarshaling.
func New(pattern string) (Regexp, error) {
	if pattern == "" {
		return Regexp{}, fmt.Errorf("regexp pattern must not be empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regexp{}, err
	}
	return Regexp{re: re}, nil
}

// MatchString reports whether s matches the compiled pattern. A
// Regexp whose pattern never compiled matches every string.
func (r Regexp) MatchString(s string) bool {
	if r.re == nil {
		return true
	}
	return r.re.MatchString(s)
}

// String returns the original pattern, or "" for the zero value.
func (r Regexp) String() string {
	if r.re == nil {
		return ""
	}
	return r.re.String()
}

// UnmarshalJSON implements json.Unmarshaler. sigs.k8s.io/yaml converts
// YAML to JSON before unmarshaling, so this is also what backs YAML
// config fields.
func (r *Regexp) UnmarshalJSON(data []byte) error {
	var pattern string
	if err := json.Unmarshal(data, &pattern); err != nil {
		return fmt.Errorf("regexp must be a JSON/YAML string: %w", err)
	}
	if pattern == "" {
		return fmt.Errorf("regexp pattern must not be empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regexp %q: %w", pattern, err)
	}
	r.re = re
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Regexp) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
