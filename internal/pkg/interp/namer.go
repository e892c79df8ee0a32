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

// Package interp is the symbolic executor: an explicit worklist walks
// one function's *ssa.BasicBlocks, threading a store.Store through
// statement and terminator semantics, forking at branches and pruning
// forks the solver proves unreachable.
package interp

import (
	"golang.org/x/tools/go/ssa"

	"github.com/taintwalk/taintwalk/internal/pkg/store"
)

// namer assigns each ssa.Value encountered in one function a stable
// store.LocKey, the first time it is seen. It is shared by every path
// forked while interpreting that function, so two paths that both
// reference the same ssa.Value agree on its key; it must never be
// shared across functions.
type namer struct {
	idx  map[ssa.Value]int
	next int
}

func newNamer() *namer {
	return &namer{idx: map[ssa.Value]int{}}
}

// nilKey is used for an operand slot that go/ssa leaves nil (e.g. a
// missing Call.Call.Value on some builtins); it resolves to a location
// no real value ever aliases.
const nilKey store.LocKey = "<nil>"

func (n *namer) key(v ssa.Value) store.LocKey {
	if v == nil {
		return nilKey
	}
	if i, ok := n.idx[v]; ok {
		return store.Local(i)
	}
	i := n.next
	n.next++
	n.idx[v] = i
	return store.Local(i)
}
