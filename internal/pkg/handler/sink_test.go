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

package handler

import (
	"testing"

	"github.com/taintwalk/taintwalk/internal/pkg/config"
	"github.com/taintwalk/taintwalk/internal/pkg/solver"
	"github.com/taintwalk/taintwalk/internal/pkg/store"
)

func TestApplySinkChecksHardcodedConstantNeedsNoTaint(t *testing.T) {
	sv := solver.New()
	s := store.New()
	s.SetString(store.Local(0), sv.StaticString("/proc/self/mem"))

	a := &Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{store.Local(0)}}
	hits := ApplySinkChecks(a, []config.SinkFunctionArg{
		{Function: "os.WriteFile", ArgIdx: 0, Forbidden: "/proc/self/mem"},
	})
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
}

func TestApplySinkChecksTaintedFreeValueCouldMatch(t *testing.T) {
	sv := solver.New()
	s := store.New()
	s.SetString(store.Local(0), sv.NewStringVar("filename"))
	s.SetTaint(store.Local(0), true)

	a := &Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{store.Local(0)}}
	hits := ApplySinkChecks(a, []config.SinkFunctionArg{
		{Function: "os.WriteFile", ArgIdx: 0, Forbidden: "/proc/self/mem"},
	})
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
}

func TestApplySinkChecksUntaintedFreeValueNoHit(t *testing.T) {
	sv := solver.New()
	s := store.New()
	s.SetString(store.Local(0), sv.NewStringVar("filename"))

	a := &Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{store.Local(0)}}
	hits := ApplySinkChecks(a, []config.SinkFunctionArg{
		{Function: "os.WriteFile", ArgIdx: 0, Forbidden: "/proc/self/mem"},
	})
	if len(hits) != 0 {
		t.Fatalf("got %d hits, want 0", len(hits))
	}
}

func TestApplySinkChecksExcludedByPathConstraint(t *testing.T) {
	sv := solver.New()
	s := store.New()
	v := sv.NewStringVar("filename")
	s.SetString(store.Local(0), v)
	s.SetTaint(store.Local(0), true)
	s.AddConstraint(sv.Not(sv.StringEquals(v, sv.StaticString("/proc/self/mem"))))

	a := &Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{store.Local(0)}}
	hits := ApplySinkChecks(a, []config.SinkFunctionArg{
		{Function: "os.WriteFile", ArgIdx: 0, Forbidden: "/proc/self/mem"},
	})
	if len(hits) != 0 {
		t.Fatalf("got %d hits, want 0 (path condition rules out the forbidden value)", len(hits))
	}
}

func TestApplySinkChecksGlobMatch(t *testing.T) {
	sv := solver.New()
	s := store.New()
	base := sv.NewStringVar("name")
	s.SetString(store.Local(0), store.JoinTerms(sv, base, sv.StaticString("codegen.rs")))
	s.SetTaint(store.Local(0), true)

	a := &Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{store.Local(0)}}
	hits := ApplySinkChecks(a, []config.SinkFunctionArg{
		{Function: "os.WriteFile", ArgIdx: 0, Forbidden: "/proc/*"},
	})
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1 (glob is satisfiable against an unconstrained prefix)", len(hits))
	}
}
