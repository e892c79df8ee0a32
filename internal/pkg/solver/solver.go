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
	"math/big"
	"strings"
)

// SatResult is the tri-state outcome of a satisfiability query. Unknown
// must be treated conservatively by callers: as "could match" / "path
// reachable", never as "must match".
type SatResult int

const (
	Unsat SatResult = iota
	Sat
	Unknown
)

func (r SatResult) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Solver builds terms over integer, boolean, and string sorts and
// answers satisfiability queries against a caller-supplied path
// condition. It holds no per-path state of its own; the Store owns the
// constraint list.
//
// This is a reference implementation, not a general-purpose SMT engine:
// no off-the-shelf Go SMT binding with string/regex theories exists in
// the available ecosystem, so queries are answered by a bounded
// equality/prefix-suffix propagation over the constraint list rather
// than a real decision procedure. It is sound for the properties the
// interpreter relies on (it never reports Unsat for a satisfiable
// state) but it is not complete: some unsatisfiable states are
// reported Sat where a full SMT solver would return Unsat.
type Solver struct{}

// New returns a Solver. It carries no state; one instance may be
// shared across every path of every function.
func New() *Solver {
	return &Solver{}
}

// --- sort constructors ---

func (s *Solver) NewIntVar(name string) IntTerm {
	return IntTerm{kind: intFree, name: name}
}

func (s *Solver) NewBoolVar(name string) BoolTerm {
	return BoolTerm{kind: boolFree, name: name}
}

func (s *Solver) NewStringVar(name string) StringTerm {
	return StringTerm{kind: stringFree, name: name}
}

// StaticInt builds a constant integer term from a value that fits in a
// native int64.
func (s *Solver) StaticInt(v int64) IntTerm {
	return IntTerm{kind: intConst, value: big.NewInt(v)}
}

// StaticInt128 builds a constant integer term from a 128-bit value
// split into 64-bit halves, combined as hi*2^64 + lo. This is how
// values outside the native int64 range are represented exactly.
func (s *Solver) StaticInt128(hi, lo uint64) IntTerm {
	v := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
	v.Add(v, new(big.Int).SetUint64(lo))
	return IntTerm{kind: intConst, value: v}
}

// StaticBigInt builds a constant integer term directly from a *big.Int,
// for decoded constants of arbitrary width.
func (s *Solver) StaticBigInt(v *big.Int) IntTerm {
	return IntTerm{kind: intConst, value: new(big.Int).Set(v)}
}

func (s *Solver) StaticBool(v bool) BoolTerm {
	return BoolTerm{kind: boolConst, value: v}
}

func (s *Solver) StaticString(v string) StringTerm {
	return StringTerm{kind: stringConst, value: v}
}

// --- string operations ---

func (s *Solver) ConcatStrings(a, b StringTerm) StringTerm {
	if av, ok := a.IsConst(); ok {
		if bv, ok := b.IsConst(); ok {
			return StringTerm{kind: stringConst, value: av + bv}
		}
	}
	parts := make([]StringTerm, 0, 2)
	if a.kind == stringConcat {
		parts = append(parts, a.parts...)
	} else {
		parts = append(parts, a)
	}
	if b.kind == stringConcat {
		parts = append(parts, b.parts...)
	} else {
		parts = append(parts, b)
	}
	return StringTerm{kind: stringConcat, parts: parts}
}

func (s *Solver) StringEquals(a, b StringTerm) BoolTerm {
	return BoolTerm{kind: boolStringCompare, op: "eq", sl: &a, sr: &b}
}

func (s *Solver) StringHasPrefix(str, prefix StringTerm) BoolTerm {
	return BoolTerm{kind: boolStringCompare, op: "hasPrefix", sl: &str, sr: &prefix}
}

func (s *Solver) StringHasSuffix(str, suffix StringTerm) BoolTerm {
	return BoolTerm{kind: boolStringCompare, op: "hasSuffix", sl: &str, sr: &suffix}
}

// StringMatchesPattern builds the regex-matching predicate over a
// '*'-glob pattern. The fact extractor treats it as opaque; it exists
// so a caller can record a match requirement in the path condition.
func (s *Solver) StringMatchesPattern(str StringTerm, pattern string) BoolTerm {
	return BoolTerm{kind: boolRegexMatch, sl: &str, regex: pattern}
}

// --- arithmetic ---

func (s *Solver) intBinOp(op string, a, b IntTerm) IntTerm {
	return IntTerm{kind: intBinOp, op: op, lhs: &a, rhs: &b}
}

func (s *Solver) Add(a, b IntTerm) IntTerm { return s.intBinOp("+", a, b) }
func (s *Solver) Sub(a, b IntTerm) IntTerm { return s.intBinOp("-", a, b) }
func (s *Solver) Mul(a, b IntTerm) IntTerm { return s.intBinOp("*", a, b) }
func (s *Solver) Div(a, b IntTerm) IntTerm { return s.intBinOp("/", a, b) }
func (s *Solver) Mod(a, b IntTerm) IntTerm { return s.intBinOp("%", a, b) }

func (s *Solver) intCompare(op string, a, b IntTerm) BoolTerm {
	return BoolTerm{kind: boolIntCompare, op: op, il: &a, ir: &b}
}

func (s *Solver) IntEq(a, b IntTerm) BoolTerm { return s.intCompare("==", a, b) }
func (s *Solver) IntNe(a, b IntTerm) BoolTerm { return s.intCompare("!=", a, b) }
func (s *Solver) IntLt(a, b IntTerm) BoolTerm { return s.intCompare("<", a, b) }
func (s *Solver) IntLe(a, b IntTerm) BoolTerm { return s.intCompare("<=", a, b) }
func (s *Solver) IntGt(a, b IntTerm) BoolTerm { return s.intCompare(">", a, b) }
func (s *Solver) IntGe(a, b IntTerm) BoolTerm { return s.intCompare(">=", a, b) }

// --- boolean operations ---

func (s *Solver) Not(a BoolTerm) BoolTerm {
	if a.kind == boolConst {
		return BoolTerm{kind: boolConst, value: !a.value}
	}
	return BoolTerm{kind: boolUnary, op: "not", lhs: &a}
}

func (s *Solver) And(a, b BoolTerm) BoolTerm {
	return BoolTerm{kind: boolBinary, op: "and", lhs: &a, rhs: &b}
}

func (s *Solver) Or(a, b BoolTerm) BoolTerm {
	return BoolTerm{kind: boolBinary, op: "or", lhs: &a, rhs: &b}
}

func (s *Solver) Iff(a, b BoolTerm) BoolTerm {
	return BoolTerm{kind: boolBinary, op: "iff", lhs: &a, rhs: &b}
}

// --- regex ---

// CheckStringMatches answers "could s match pattern under constraints".
func (s *Solver) CheckStringMatches(constraints []BoolTerm, str StringTerm, pattern string) SatResult {
	re, err := compileGlob(normalizeGlob(pattern))
	if err != nil {
		return Unknown
	}
	sh := resolve(str, gatherFacts(constraints))
	if sh.definite {
		return boolToSat(re.MatchString(sh.value))
	}
	candidate := sh.constPrefix + globFiller(pattern) + sh.constSuffix
	return boolToSat(re.MatchString(candidate))
}

// CheckStringAlwaysMatches answers "is s forced to match pattern under
// constraints", i.e. UNSAT of constraints ∧ ¬matches.
func (s *Solver) CheckStringAlwaysMatches(constraints []BoolTerm, str StringTerm, pattern string) SatResult {
	re, err := compileGlob(normalizeGlob(pattern))
	if err != nil {
		return Unknown
	}
	sh := resolve(str, gatherFacts(constraints))
	if sh.definite {
		if re.MatchString(sh.value) {
			return Unsat // forced to match => no assignment fails to match
		}
		return Sat
	}
	// A non-definite value still has freedom; there exists an assignment
	// that does not match, so it is never forced.
	return Sat
}

// CouldEqualLiteral answers "could s equal L under constraints".
func (s *Solver) CouldEqualLiteral(constraints []BoolTerm, str StringTerm, literal string) SatResult {
	f := gatherFacts(constraints)
	sh := resolve(str, f)
	if sh.definite {
		return boolToSat(sh.value == literal)
	}
	if !strings.HasPrefix(literal, sh.constPrefix) || !strings.HasSuffix(literal, sh.constSuffix) {
		return Unsat
	}
	if len(literal) < len(sh.constPrefix)+len(sh.constSuffix) {
		return Unsat
	}
	if sh.bareVar != "" {
		for _, excluded := range f.neq[sh.bareVar] {
			if excluded == literal {
				return Unsat
			}
		}
	}
	return Sat
}

// MustEqualLiteral answers "is s forced to equal L", i.e. UNSAT of
// constraints ∧ s ≠ L.
func (s *Solver) MustEqualLiteral(constraints []BoolTerm, str StringTerm, literal string) SatResult {
	f := gatherFacts(constraints)
	sh := resolve(str, f)
	if sh.definite {
		if sh.value == literal {
			return Unsat
		}
		return Sat
	}
	return Sat
}

// CheckConstraintSat checks satisfiability of the conjunction of
// constraints and an extra predicate, used for branch pruning and
// path forking. It detects direct contradictions (the same
// variable forced to two distinct values, or forced both equal and
// unequal to the same literal); anything it cannot resolve is reported
// Sat, per the solver's conservative-reachability contract.
func (s *Solver) CheckConstraintSat(constraints []BoolTerm, extra BoolTerm) SatResult {
	all := append(append([]BoolTerm{}, constraints...), extra)
	f := gatherFacts(all)
	if f.contradiction {
		return Unsat
	}
	return Sat
}

func boolToSat(b bool) SatResult {
	if b {
		return Sat
	}
	return Unsat
}

// normalizeGlob is a hook point kept distinct from compileGlob so that
// future wildcard-escaping refinements don't touch the cache key logic.
func normalizeGlob(pattern string) string { return pattern }

func globFiller(pattern string) string {
	return strings.Join(strings.Split(pattern, "*"), "")
}
