// Copyright 2024 The Taintwalk Authors
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

package solver

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// globCache memoizes glob-to-regexp compilation. The same forbidden
// pattern is recompiled on every generic-string-handler invocation
// across every call site and every path unless cached; 256 entries
// comfortably covers any realistically sized sink configuration.
var globCache, _ = lru.New[string, *regexp.Regexp](256)

// IsGlob reports whether a forbidden value uses the only supported
// wildcard, '*'. '?' and character classes are not recognized as glob
// syntax; a forbidden value containing them is matched literally.
func IsGlob(pattern string) bool {
	return strings.Contains(pattern, "*")
}

// compileGlob turns a glob containing '*' ("any sequence of
// characters") into a regexp anchored to match the whole string.
// Every character other than '*' is treated literally.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	if re, ok := globCache.Get(pattern); ok {
		return re, nil
	}
	var b strings.Builder
	b.WriteByte('^')
	segments := strings.Split(pattern, "*")
	for i, seg := range segments {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(seg))
	}
	b.WriteByte('$')
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	globCache.Add(pattern, re)
	return re, nil
}
