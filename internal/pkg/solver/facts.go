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

// facts is what the reference solver manages to extract from a path
// condition: for each named free string variable, a single value it is
// forced to equal (if any path predicate pins it down) and a set of
// values it is forced to differ from. This is deliberately far short of
// a general string theory; it is enough to answer the four queries
// soundly for the equality/inequality idioms the interpreter's call
// and branch handling actually produces.
type facts struct {
	eq            map[string]string
	neq           map[string][]string
	contradiction bool
}

func gatherFacts(constraints []BoolTerm) facts {
	f := facts{eq: map[string]string{}, neq: map[string][]string{}}
	for _, c := range constraints {
		f.absorb(c, true)
	}
	return f
}

// absorb walks a boolean term asserted with the given polarity (true if
// the term itself must hold, false if its negation must hold) and
// records any equality/inequality fact on a bare free string variable
// that it recognizes. Anything it doesn't recognize is silently
// ignored: the fact set only ever grows more conservative, never wrong.
func (f *facts) absorb(b BoolTerm, polarity bool) {
	switch b.kind {
	case boolUnary:
		if b.op == "not" && b.lhs != nil {
			f.absorb(*b.lhs, !polarity)
		}
	case boolBinary:
		if b.op == "and" && polarity && b.lhs != nil && b.rhs != nil {
			f.absorb(*b.lhs, true)
			f.absorb(*b.rhs, true)
		}
		if b.op == "or" && !polarity && b.lhs != nil && b.rhs != nil {
			// De Morgan: ¬(a∨b) == ¬a ∧ ¬b
			f.absorb(*b.lhs, false)
			f.absorb(*b.rhs, false)
		}
	case boolStringCompare:
		if b.op != "eq" || b.sl == nil || b.sr == nil {
			return
		}
		varName, lit, ok := bareVarAndLiteral(*b.sl, *b.sr)
		if !ok {
			return
		}
		if polarity {
			f.assertEq(varName, lit)
		} else {
			if existing, ok := f.eq[varName]; ok && existing == lit {
				f.contradiction = true
				return
			}
			f.neq[varName] = append(f.neq[varName], lit)
		}
	}
}

func (f *facts) assertEq(name, value string) {
	if existing, ok := f.eq[name]; ok && existing != value {
		f.contradiction = true
		return
	}
	for _, excluded := range f.neq[name] {
		if excluded == value {
			f.contradiction = true
			return
		}
	}
	f.eq[name] = value
}

// bareVarAndLiteral recognizes the pattern (bare free string var, const
// literal) in either argument order.
func bareVarAndLiteral(a, b StringTerm) (name, literal string, ok bool) {
	if a.kind == stringFree {
		if lit, isConst := b.IsConst(); isConst {
			return a.name, lit, true
		}
	}
	if b.kind == stringFree {
		if lit, isConst := a.IsConst(); isConst {
			return b.name, lit, true
		}
	}
	return "", "", false
}

// shape is the resolved form of a StringTerm under a fact set: either a
// fully definite value, or a free region bracketed by a known constant
// prefix/suffix (possibly both empty, for a single unconstrained
// variable).
type shape struct {
	definite    bool
	value       string
	constPrefix string
	constSuffix string
	bareVar     string // set only when the whole term is one free variable
}

func resolve(term StringTerm, f facts) shape {
	if v, ok := term.IsConst(); ok {
		return shape{definite: true, value: v}
	}
	if term.kind == stringFree {
		if v, ok := f.eq[term.name]; ok {
			return shape{definite: true, value: v}
		}
		return shape{bareVar: term.name}
	}
	if term.kind != stringConcat {
		return shape{}
	}

	// Inline any part that resolves to a definite value (e.g. a free
	// variable pinned by an eq fact), then take the literal run before
	// the first remaining free part as the prefix and the literal run
	// after the last remaining free part as the suffix.
	type resolved struct {
		definite bool
		value    string
	}
	parts := make([]resolved, len(term.parts))
	for i, p := range term.parts {
		sh := resolve(p, f)
		if sh.definite {
			parts[i] = resolved{true, sh.value}
		} else if v, ok := p.IsConst(); ok {
			parts[i] = resolved{true, v}
		} else {
			parts[i] = resolved{false, ""}
		}
	}

	allDefinite := true
	for _, p := range parts {
		if !p.definite {
			allDefinite = false
			break
		}
	}
	if allDefinite {
		var b []byte
		for _, p := range parts {
			b = append(b, p.value...)
		}
		return shape{definite: true, value: string(b)}
	}

	firstFree, lastFree := -1, -1
	for i, p := range parts {
		if !p.definite {
			if firstFree == -1 {
				firstFree = i
			}
			lastFree = i
		}
	}
	var prefix, suffix string
	for i := 0; i < firstFree; i++ {
		prefix += parts[i].value
	}
	for i := lastFree + 1; i < len(parts); i++ {
		suffix += parts[i].value
	}
	return shape{constPrefix: prefix, constSuffix: suffix}
}
