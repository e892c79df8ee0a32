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
	"reflect"
	"testing"

	"github.com/taintwalk/taintwalk/internal/pkg/solver"
	"github.com/taintwalk/taintwalk/internal/pkg/store"
)

func TestHandleGenericSourceTaintsAndBindsAFreeString(t *testing.T) {
	sv := solver.New()
	s := store.New()
	dst := store.Local(0)

	HandleGenericSource(&Args{Store: s, Solver: sv, DestKey: dst})

	if !s.IsTainted(dst) {
		t.Error("destination should be tainted")
	}
	if _, ok := s.GetString(dst); !ok {
		t.Error("destination should carry a string term so downstream handlers/sinks have something to reason about")
	}
}

func TestHandleFilepathJoinPropagatesTaintAndValue(t *testing.T) {
	sv := solver.New()
	s := store.New()
	base, comp, dst := store.Local(0), store.Local(1), store.Local(2)
	s.SetString(base, sv.NewStringVar("name"))
	s.SetTaint(base, true)
	s.SetString(comp, sv.StaticString("codegen.rs"))

	HandleFilepathJoin(&Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{base, comp}, DestKey: dst})

	if !s.IsTainted(dst) {
		t.Error("joined result should inherit taint from a tainted operand")
	}
	if _, ok := s.GetString(dst); !ok {
		t.Error("joined result should carry a string term")
	}
}

func TestHandlePushLikeMutatesReceiverInPlace(t *testing.T) {
	sv := solver.New()
	s := store.New()
	self, arg := store.Local(0), store.Local(1)
	s.SetString(self, sv.StaticString("/var/log/"))
	s.SetString(arg, sv.NewStringVar("name"))
	s.SetTaint(arg, true)

	HandlePushLike(&Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{self, arg}})

	if !s.IsTainted(self) {
		t.Error("receiver should become tainted after a tainted value is pushed onto it")
	}
	if _, ok := s.GetString(self); !ok {
		t.Error("receiver should still carry a string term after the push")
	}
}

func TestHandlePushLikeSeedsEmptyBaseOnFreshReceiver(t *testing.T) {
	sv := solver.New()
	s := store.New()
	self, arg := store.Local(0), store.Local(1)
	s.SetString(arg, sv.StaticString("/proc/self/"))

	HandlePushLike(&Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{self, arg}})

	got, ok := s.GetString(self)
	if !ok {
		t.Fatal("receiver should carry a string term after its first write")
	}
	if sv.MustEqualLiteral(nil, got, "/proc/self/") != solver.Unsat {
		t.Errorf("first write to a fresh receiver should always equal its argument alone, got term %+v", got)
	}
}

func TestHandlePassthroughStringCopiesValueAndTaint(t *testing.T) {
	sv := solver.New()
	s := store.New()
	src, dst := store.Local(0), store.Local(1)
	v := sv.NewStringVar("name")
	s.SetString(src, v)
	s.SetTaint(src, true)

	HandlePassthroughString(&Args{Store: s, Solver: sv, ArgKeys: []store.LocKey{src}, DestKey: dst})

	if !s.IsTainted(dst) {
		t.Error("passthrough should propagate taint")
	}
	got, ok := s.GetString(dst)
	if !ok || !reflect.DeepEqual(got, v) {
		t.Error("passthrough should copy the exact source term")
	}
}
