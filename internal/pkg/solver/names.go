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

// FreeNames returns every free-variable name (int, bool, or string
// sort) referenced anywhere in b's expression tree. The interpreter's
// loop widening step uses this to find path-condition
// predicates that mention a location written in a revisited block: the
// store binds every fresh symbolic term's name to the LocKey it was
// created for, so a name collected here is directly comparable against
// a LocKey string.
func (b BoolTerm) FreeNames() []string {
	var names []string
	var walkBool func(BoolTerm)
	var walkInt func(IntTerm)
	var walkString func(StringTerm)

	walkInt = func(t IntTerm) {
		switch t.kind {
		case intFree:
			names = append(names, t.name)
		case intBinOp:
			if t.lhs != nil {
				walkInt(*t.lhs)
			}
			if t.rhs != nil {
				walkInt(*t.rhs)
			}
		}
	}

	walkString = func(t StringTerm) {
		switch t.kind {
		case stringFree:
			names = append(names, t.name)
		case stringConcat:
			for _, p := range t.parts {
				walkString(p)
			}
		}
	}

	walkBool = func(t BoolTerm) {
		switch t.kind {
		case boolFree:
			names = append(names, t.name)
		case boolUnary:
			if t.lhs != nil {
				walkBool(*t.lhs)
			}
		case boolBinary:
			if t.lhs != nil {
				walkBool(*t.lhs)
			}
			if t.rhs != nil {
				walkBool(*t.rhs)
			}
		case boolStringCompare:
			if t.sl != nil {
				walkString(*t.sl)
			}
			if t.sr != nil {
				walkString(*t.sr)
			}
		case boolRegexMatch:
			if t.sl != nil {
				walkString(*t.sl)
			}
		case boolIntCompare:
			if t.il != nil {
				walkInt(*t.il)
			}
			if t.ir != nil {
				walkInt(*t.ir)
			}
		}
	}

	walkBool(b)
	return names
}

// Mentions reports whether any of b's free names is a member of names.
func (b BoolTerm) Mentions(names map[string]bool) bool {
	for _, n := range b.FreeNames() {
		if names[n] {
			return true
		}
	}
	return false
}
