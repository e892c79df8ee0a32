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

// Package store is the symbolic state the interpreter threads through a
// function's control-flow graph: one immutable-by-convention snapshot
// per worklist entry, cloned (never mutated in place) whenever a branch
// forks the path.
package store

import (
	"strings"

	"github.com/taintwalk/taintwalk/internal/pkg/solver"
)

// Store is the full symbolic state for one path through a function: the
// three separate term namespaces (a LocKey may be bound in more than
// one; each lookup consults only its own),
// the taint map, the path's own taint bit, the ordered path condition,
// and the alias table used to resolve mutable-reference writes back to
// the location they actually touch.
type Store struct {
	ints    map[LocKey]solver.IntTerm
	bools   map[LocKey]solver.BoolTerm
	strings map[LocKey]solver.StringTerm

	taint     map[LocKey]bool
	pathTaint bool

	constraints []solver.BoolTerm

	aliases map[LocKey]LocKey
}

// New returns an empty Store: no bound locations, no taint, no path
// condition, untainted path.
func New() *Store {
	return &Store{
		ints:    map[LocKey]solver.IntTerm{},
		bools:   map[LocKey]solver.BoolTerm{},
		strings: map[LocKey]solver.StringTerm{},
		taint:   map[LocKey]bool{},
		aliases: map[LocKey]LocKey{},
	}
}

// Clone returns a deep-enough copy for independent forward evolution:
// every map is copied so writes on one fork never leak into a sibling,
// but term values themselves (solver.IntTerm etc.) are immutable trees
// and are shared by reference.
func (s *Store) Clone() *Store {
	out := &Store{
		ints:        make(map[LocKey]solver.IntTerm, len(s.ints)),
		bools:       make(map[LocKey]solver.BoolTerm, len(s.bools)),
		strings:     make(map[LocKey]solver.StringTerm, len(s.strings)),
		taint:       make(map[LocKey]bool, len(s.taint)),
		aliases:     make(map[LocKey]LocKey, len(s.aliases)),
		pathTaint:   s.pathTaint,
		constraints: append([]solver.BoolTerm{}, s.constraints...),
	}
	for k, v := range s.ints {
		out.ints[k] = v
	}
	for k, v := range s.bools {
		out.bools[k] = v
	}
	for k, v := range s.strings {
		out.strings[k] = v
	}
	for k, v := range s.taint {
		out.taint[k] = v
	}
	for k, v := range s.aliases {
		out.aliases[k] = v
	}
	return out
}

// --- int namespace ---

func (s *Store) SetInt(k LocKey, t solver.IntTerm) { s.ints[s.resolve(k)] = t }

func (s *Store) GetInt(k LocKey) (solver.IntTerm, bool) {
	t, ok := s.ints[s.resolve(k)]
	return t, ok
}

// --- bool namespace ---

func (s *Store) SetBool(k LocKey, t solver.BoolTerm) { s.bools[s.resolve(k)] = t }

func (s *Store) GetBool(k LocKey) (solver.BoolTerm, bool) {
	t, ok := s.bools[s.resolve(k)]
	return t, ok
}

// --- string namespace ---

func (s *Store) SetString(k LocKey, t solver.StringTerm) { s.strings[s.resolve(k)] = t }

func (s *Store) GetString(k LocKey) (solver.StringTerm, bool) {
	t, ok := s.strings[s.resolve(k)]
	return t, ok
}

// --- aliasing ---

// Alias records that k is a mutable reference to target: subsequent
// reads/writes through k are redirected to target. This realizes the
// "simple reference tracking" the design allows without a full
// points-to analysis (interprocedural/aliasing beyond this is a
// declared non-goal).
func (s *Store) Alias(k, target LocKey) {
	s.aliases[k] = s.resolve(target)
}

func (s *Store) resolve(k LocKey) LocKey {
	seen := map[LocKey]bool{}
	for {
		target, ok := s.aliases[k]
		if !ok || seen[k] {
			return k
		}
		seen[k] = true
		k = target
	}
}

// --- taint ---

// SetTaint marks k (after alias resolution) as tainted or untainted.
func (s *Store) SetTaint(k LocKey, tainted bool) {
	s.taint[s.resolve(k)] = tainted
}

// IsTainted reports whether k, or any location k is a projection of,
// is marked tainted: a tainted aggregate taints every field, element,
// or downcast derived from it without each projection needing its own
// taint write. Projection containment is judged by LocKey.HasPrefix,
// so an opaque projection of a tainted base reads tainted too.
func (s *Store) IsTainted(k LocKey) bool {
	k = s.resolve(k)
	if s.taint[k] {
		return true
	}
	for root, tainted := range s.taint {
		if tainted && k != root && k.HasPrefix(root) {
			return true
		}
	}
	return false
}

// PropagateTaint marks dst tainted iff src is tainted, the common case
// for a statement that copies/derives one value from another.
func (s *Store) PropagateTaint(dst, src LocKey) {
	s.SetTaint(dst, s.IsTainted(src))
}

// --- path condition ---

// AddConstraint appends a predicate to the ordered path condition. The
// order matters only in that later entries were learned later; the
// reference solver does not depend on ordering for correctness, but
// preserving it keeps debug dumps readable in program order.
func (s *Store) AddConstraint(b solver.BoolTerm) {
	s.constraints = append(s.constraints, b)
}

// Constraints returns the current path condition. The returned slice
// must not be mutated by the caller; Clone copies it, so forks never
// share a backing array.
func (s *Store) Constraints() []solver.BoolTerm {
	return s.constraints
}

// DropConstraints replaces the path condition with keep, discarding
// everything else. Used by the interpreter's loop-widening step
// (dropping every predicate that mentions a location written in the
// widened block) and nowhere else: constraints are otherwise only ever
// appended to, never removed.
func (s *Store) DropConstraints(keep []solver.BoolTerm) {
	s.constraints = keep
}

// SetPathTaint marks the path itself (not a particular value) tainted,
// used when a branch condition's truth depends on a tainted value: the
// taken arm is reached by a tainted decision even if it reads no
// tainted value directly.
func (s *Store) SetPathTaint(t bool) { s.pathTaint = t }

func (s *Store) PathTaint() bool { return s.pathTaint }

// PathJoin models path construction: forward-slash based and
// deliberately platform-independent, with no OS-specific normalization
// (no "." / ".." collapsing, no case folding, no UNC handling) — a
// sink matching /proc/self/mem will miss /PROC//./self/mem, a known
// limitation. An absolute component (one starting with "/") replaces
// the base entirely.
func PathJoin(base, comp string) string {
	if strings.HasPrefix(comp, "/") {
		return comp
	}
	if base == "" {
		return comp
	}
	if comp == "" {
		return base
	}
	if strings.HasSuffix(base, "/") {
		return base + comp
	}
	return base + "/" + comp
}

// JoinTerms is PathJoin lifted to symbolic string terms, for the common
// case where the base, the component, or both carry a free variable. A
// constant operand is folded with the same rules as PathJoin; a
// symbolic base is assumed not to already end in "/" (the interpreter
// has no way to know a symbolic value's last byte without a query the
// reference solver doesn't support), so the separator is always
// inserted between two non-constant-resolved operands. This matches
// the common-case behavior exercised by path-join call sites: building
// up a path one component at a time from an unknown root.
func JoinTerms(sv *solver.Solver, base, comp solver.StringTerm) solver.StringTerm {
	if cv, ok := comp.IsConst(); ok {
		if strings.HasPrefix(cv, "/") {
			return comp
		}
		if bv, ok := base.IsConst(); ok {
			return sv.StaticString(PathJoin(bv, cv))
		}
		if cv == "" {
			return base
		}
		return sv.ConcatStrings(sv.ConcatStrings(base, sv.StaticString("/")), comp)
	}
	if bv, ok := base.IsConst(); ok {
		if bv == "" {
			return comp
		}
		if strings.HasSuffix(bv, "/") {
			return sv.ConcatStrings(base, comp)
		}
	}
	return sv.ConcatStrings(sv.ConcatStrings(base, sv.StaticString("/")), comp)
}
