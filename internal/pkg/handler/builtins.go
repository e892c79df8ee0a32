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

import "github.com/taintwalk/taintwalk/internal/pkg/solver"

// HandleGenericSource marks a call's destination tainted with no
// regard to its arguments, and, whatever the destination's sort, binds
// a fresh unconstrained symbolic string term to it exactly as
// AnalyzeFunction seeds a string-sorted parameter: a source produces
// data the interpreter cannot see the content of, but the solver still
// needs a term to reason about once that data reaches a sink argument,
// directly or through a path-construction handler. Registered once per
// configured source function (os.Args-alikes: process argv, an
// environment read, a network read).
func HandleGenericSource(a *Args) {
	a.Store.SetTaint(a.DestKey, true)
	a.Store.SetString(a.DestKey, a.Solver.NewStringVar(string(a.DestKey)))
}

// HandleFilepathJoin models path/filepath.Join(elem...): the already
// unpacked components are folded left to right with the join rules
// store.JoinTerms applies. The destination receives the joined string
// only when every component resolved to a term, and inherits taint
// from any operand.
func HandleFilepathJoin(a *Args) {
	acc, ok := a.ArgString(0)
	for i := 1; ok && i < len(a.ArgKeys); i++ {
		var comp solver.StringTerm
		if comp, ok = a.ArgString(i); ok {
			acc = joinTerms(a.Solver, acc, comp)
		}
	}
	if ok {
		a.Store.SetString(a.DestKey, acc)
	}
	for i := range a.ArgKeys {
		if a.ArgTainted(i) {
			a.Store.SetTaint(a.DestKey, true)
			break
		}
	}
}

// HandlePushLike models a (*strings.Builder).WriteString-shaped call:
// arg 0 is the receiver (self), arg 1 is the string being appended.
// The receiver is a mutable reference, so the result is written back
// through whatever location the receiver aliases rather than to a
// fresh destination. A receiver with no string bound yet (its first
// write since the zero value) starts from "", matching a fresh
// strings.Builder rather than leaving the accumulator unbound forever.
func HandlePushLike(a *Args) {
	if len(a.ArgKeys) < 2 {
		return
	}
	selfKey := a.ArgKeys[0]
	base, hasBase := a.Store.GetString(selfKey)
	if !hasBase {
		base = a.Solver.StaticString("")
	}
	comp, hasComp := a.ArgString(1)

	tainted := a.ArgTainted(0) || a.ArgTainted(1)
	if hasComp {
		a.Store.SetString(selfKey, concatTerms(a.Solver, base, comp))
	}
	if tainted {
		a.Store.SetTaint(selfKey, true)
	}
}

// HandlePassthroughString models a no-argument String()/Stringer-style
// accessor: the destination takes on the receiver's string value and
// taint unchanged, preserving content across a type change.
func HandlePassthroughString(a *Args) {
	if len(a.ArgKeys) == 0 {
		return
	}
	if s, ok := a.ArgString(0); ok {
		a.Store.SetString(a.DestKey, s)
	}
	if a.ArgTainted(0) {
		a.Store.SetTaint(a.DestKey, true)
	}
}

// HandleFromTrait is the destination-type-keyed constructor dispatch:
// rather than being looked up by callee name, it applies whenever a
// conversion's destination type is string-shaped. The interpreter
// calls this directly from its ssa.Convert handling, not through the
// Registry, because a conversion is not a *ssa.Call site: Go has no
// callee name to look up for `string(x)`.
func HandleFromTrait(a *Args) {
	HandlePassthroughString(a)
}
