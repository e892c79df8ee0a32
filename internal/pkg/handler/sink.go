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
	"strings"

	"github.com/taintwalk/taintwalk/internal/pkg/config"
	"github.com/taintwalk/taintwalk/internal/pkg/solver"
)

// Hit records that one configured sink rule fired against one call
// site's argument.
type Hit struct {
	Forbidden string
}

// ApplySinkChecks scores a call's already-resolved argument terms
// against every sink rule configured for the callee. A rule fires
// (produces a Hit) in exactly the two cases the reference
// implementation distinguishes:
//
//  1. the argument's value could take the forbidden value in some
//     execution, AND the argument is tainted (an attacker-influenced
//     value sometimes reaches the forbidden value), or
//  2. the argument's value is forced to the forbidden value in every
//     execution (a hardcoded dangerous constant needs no taint to be
//     worth reporting).
//
// A sink rule whose Forbidden contains '*' is matched as a glob;
// otherwise it is matched as an exact literal.
func ApplySinkChecks(a *Args, sinks []config.SinkFunctionArg) []Hit {
	var hits []Hit
	for _, sink := range sinks {
		arg, ok := a.ArgString(sink.ArgIdx)
		if !ok {
			continue
		}
		// The checked argument's value flows into the call's result, so
		// downstream uses of the result see the same term and taint.
		a.Store.SetString(a.DestKey, arg)
		tainted := a.ArgTainted(sink.ArgIdx) || a.Store.PathTaint()
		if tainted {
			a.Store.SetTaint(a.DestKey, true)
		}
		constraints := a.Store.Constraints()

		var couldMatch, alwaysMatch bool
		if strings.Contains(sink.Forbidden, "*") {
			couldMatch = a.Solver.CheckStringMatches(constraints, arg, sink.Forbidden) == solver.Sat
			alwaysMatch = a.Solver.CheckStringAlwaysMatches(constraints, arg, sink.Forbidden) == solver.Unsat
		} else {
			couldMatch = a.Solver.CouldEqualLiteral(constraints, arg, sink.Forbidden) == solver.Sat
			alwaysMatch = a.Solver.MustEqualLiteral(constraints, arg, sink.Forbidden) == solver.Unsat
		}

		if (couldMatch && tainted) || alwaysMatch {
			hits = append(hits, Hit{Forbidden: sink.Forbidden})
		}
	}
	return hits
}
