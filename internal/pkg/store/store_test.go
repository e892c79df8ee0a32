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
	"testing"

	"github.com/taintwalk/taintwalk/internal/pkg/solver"
)

func TestPathJoin(t *testing.T) {
	cases := []struct {
		base, comp, want string
	}{
		{"", "comp", "comp"},
		{"base", "", "base"},
		{"/proc", "self/mem", "/proc/self/mem"},
		{"/proc/", "self/mem", "/proc/self/mem"},
		{"anything", "/absolute", "/absolute"},
	}
	for _, tc := range cases {
		if got := PathJoin(tc.base, tc.comp); got != tc.want {
			t.Errorf("PathJoin(%q, %q) = %q, want %q", tc.base, tc.comp, got, tc.want)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.SetTaint(Local(0), true)
	s.AddConstraint(solver.New().StaticBool(true))

	clone := s.Clone()
	clone.SetTaint(Local(0), false)
	clone.AddConstraint(solver.New().StaticBool(false))

	if !s.IsTainted(Local(0)) {
		t.Error("mutating the clone's taint must not affect the original")
	}
	if len(s.Constraints()) != 1 {
		t.Errorf("mutating the clone's constraints must not affect the original, got %d constraints", len(s.Constraints()))
	}
}

func TestAliasResolvesThroughChain(t *testing.T) {
	// A mutation through a reference must resolve to the underlying
	// storage slot, not the reference itself.
	s := New()
	a, b, c := Local(1), Local(2), Local(3)
	s.Alias(a, b)
	s.Alias(b, c)

	s.SetTaint(a, true)
	if !s.IsTainted(c) {
		t.Error("SetTaint through an alias chain should land on the root location")
	}
	if s.IsTainted(a) != s.IsTainted(c) {
		t.Error("an aliased location must read back the same taint as its root")
	}
}

func TestIsTaintedCoversDerivedProjections(t *testing.T) {
	s := New()
	base := Local(1)
	s.SetTaint(base, true)

	if !s.IsTainted(base.Field(0)) {
		t.Error("a field projected from a tainted aggregate should read tainted")
	}
	if !s.IsTainted(base.Opaque()) {
		t.Error("an opaque projection of a tainted base should read tainted")
	}
	if s.IsTainted(Local(12)) {
		t.Error("an unrelated local must not inherit taint from local 1")
	}
}

func TestPropagateTaint(t *testing.T) {
	s := New()
	src, dst := Local(1), Local(2)
	s.SetTaint(src, true)
	s.PropagateTaint(dst, src)
	if !s.IsTainted(dst) {
		t.Error("PropagateTaint(dst, tainted src) should taint dst")
	}

	s2 := New()
	s2.PropagateTaint(dst, src)
	if s2.IsTainted(dst) {
		t.Error("PropagateTaint(dst, untainted src) should leave dst untainted")
	}
}

func TestPathTaintIsMonotoneUntilExplicitlyCleared(t *testing.T) {
	s := New()
	if s.PathTaint() {
		t.Error("a fresh store should not be path-tainted")
	}
	s.SetPathTaint(true)
	if !s.PathTaint() {
		t.Error("SetPathTaint(true) should set PathTaint()")
	}
	clone := s.Clone()
	if !clone.PathTaint() {
		t.Error("Clone() should preserve path taint")
	}
}

func TestDropConstraintsReplacesPathCondition(t *testing.T) {
	s := New()
	s.AddConstraint(solver.New().StaticBool(true))
	s.AddConstraint(solver.New().StaticBool(false))
	if len(s.Constraints()) != 2 {
		t.Fatalf("got %d constraints, want 2", len(s.Constraints()))
	}
	s.DropConstraints(nil)
	if len(s.Constraints()) != 0 {
		t.Errorf("DropConstraints(nil) left %d constraints, want 0", len(s.Constraints()))
	}
}

func TestLocKeyProjections(t *testing.T) {
	base := Local(4)
	field := base.Field(1)
	if !field.HasPrefix(base) {
		t.Errorf("%q should have prefix %q", field, base)
	}
	idx := base.Index(2)
	if !idx.HasPrefix(base) {
		t.Errorf("%q should have prefix %q", idx, base)
	}
	unrelated := Local(5)
	if field.HasPrefix(unrelated) {
		t.Errorf("%q should not have prefix %q", field, unrelated)
	}
}
