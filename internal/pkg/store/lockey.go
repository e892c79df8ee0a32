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

package store

import (
	"fmt"
	"strconv"
	"strings"
)

// LocKey is a stable string identifier for a storage location: a
// function-local value plus a chain of projections applied to it
// (field access, dereference, indexing, subslicing, enum/interface
// downcast). Two locations compare equal iff their LocKeys are equal
// strings; the type exists so callers don't hand-build these strings
// ad hoc and disagree on formatting.
type LocKey string

// Local builds the LocKey for a bare local value, identified by its
// position in the owning function's value numbering.
func Local(index int) LocKey {
	return LocKey(strconv.Itoa(index))
}

// Deref appends a pointer/interface dereference projection.
func (k LocKey) Deref() LocKey {
	return k + "*"
}

// Field appends a struct field projection.
func (k LocKey) Field(index int) LocKey {
	return LocKey(fmt.Sprintf("%s.f%d", k, index))
}

// Index appends a fixed-index slice/array projection.
func (k LocKey) Index(i int) LocKey {
	return LocKey(fmt.Sprintf("%s[%d]", k, i))
}

// Subslice appends a sub-range projection, as produced by a three-index
// slice expression.
func (k LocKey) Subslice(lo, hi int) LocKey {
	return LocKey(fmt.Sprintf("%s[%d..%d]", k, lo, hi))
}

// Variant appends an enum/sum-type downcast projection, identified by
// the tag's ordinal.
func (k LocKey) Variant(tag int) LocKey {
	return LocKey(fmt.Sprintf("%s::variant%d", k, tag))
}

// Opaque appends a projection the interpreter cannot name precisely
// (e.g. a computed index it couldn't resolve to a constant). All
// opaque projections of the same base share one location, so distinct
// computed indices conservatively collapse together.
func (k LocKey) Opaque() LocKey {
	return k + "::opaque"
}

// Sub marks a location as a sub-component boundary the interpreter
// introduces internally (e.g. a synthesized temporary standing in for
// one element of an aggregate literal).
func (k LocKey) Sub() LocKey {
	return k + "::sub"
}

// HasPrefix reports whether k names a location reached by a (possibly
// empty) chain of further projections on root, i.e. root is a prefix of
// k's projection path. This is the conservative over-approximation the
// store uses for "any update under base might touch this sub-field":
// an opaque projection can't be excluded, so HasPrefix deliberately
// does not attempt to reason about whether an index/variant match.
func (k LocKey) HasPrefix(root LocKey) bool {
	return k == root || strings.HasPrefix(string(k), string(root)+".") ||
		strings.HasPrefix(string(k), string(root)+"[") ||
		strings.HasPrefix(string(k), string(root)+"*") ||
		strings.HasPrefix(string(k), string(root)+"::")
}
