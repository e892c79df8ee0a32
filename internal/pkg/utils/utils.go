// Copyright 2020 Google LLC
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

// Package utils contains various utility functions.
package utils

import (
	"go/types"
	"strings"

	"golang.org/x/exp/typeparams"
	"golang.org/x/tools/go/ssa"
)

// Dereference returns the underlying type of a pointer.
// If the input is not a pointer, then the type of the input is returned.
func Dereference(t types.Type) types.Type {
	for {
		tt, ok := t.Underlying().(*types.Pointer)
		if !ok {
			return t
		}
		t = tt.Elem()
	}
}

func UnqualifiedName(t types.Type) string {
	packageQualifiedName := t.String()
	dotPos := strings.LastIndexByte(packageQualifiedName, '.')
	if dotPos == -1 {
		return packageQualifiedName
	}
	return packageQualifiedName[dotPos+1:]
}

// QualifiedName joins a function's path, receiver, and name into the
// single dotted string the handler registry keys its lookups on, e.g.
// "os.(*File).Write" or "os.Setenv" for a bare function.
func QualifiedName(path, recv, name string) string {
	switch {
	case path == "" && recv == "":
		return name
	case recv == "":
		return path + "." + name
	default:
		return path + ".(" + recv + ")." + name
	}
}

// FunctionQualifiedName is QualifiedName applied to an ssa.Function's
// own package path, receiver, and name. Shared functions (wrappers,
// error.Error) have no package and yield a path-less name.
func FunctionQualifiedName(f *ssa.Function) string {
	path := ""
	if f.Pkg != nil {
		path = f.Pkg.Pkg.Path()
	}
	recv := ""
	if recvVar := f.Signature.Recv(); recvVar != nil {
		recv = UnqualifiedName(recvVar.Type())
	}
	return QualifiedName(path, recv, f.Name())
}

// CalleeQualifiedName is FunctionQualifiedName, generalized to resolve
// through a generic instantiation: a call to a generic function or
// method produces an *ssa.Function specific to its type arguments
// (e.g. "Map[string]"), which would never match a handler or sink rule
// configured against the generic declaration's own name. When callee is
// an instantiation, this resolves to the origin method's name instead,
// exactly as the source/sink matching logic this lineage carries
// forward needs to see through generics.
func CalleeQualifiedName(callee *ssa.Function) string {
	if obj, ok := callee.Object().(*types.Func); ok {
		if orig := typeparams.OriginMethod(obj); orig != nil && orig != obj {
			return QualifiedName(decomposeFuncObj(orig))
		}
	}
	return FunctionQualifiedName(callee)
}

func decomposeFuncObj(f *types.Func) (path, recv, name string) {
	name = f.Name()
	if sig, ok := f.Type().(*types.Signature); ok && sig.Recv() != nil {
		recv = UnqualifiedName(sig.Recv().Type())
	}
	if f.Pkg() != nil {
		path = f.Pkg().Path()
	}
	return path, recv, name
}
