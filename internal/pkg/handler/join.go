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
	"github.com/taintwalk/taintwalk/internal/pkg/solver"
	"github.com/taintwalk/taintwalk/internal/pkg/store"
)

func joinTerms(sv *solver.Solver, base, comp solver.StringTerm) solver.StringTerm {
	return store.JoinTerms(sv, base, comp)
}

func concatTerms(sv *solver.Solver, base, comp solver.StringTerm) solver.StringTerm {
	return sv.ConcatStrings(base, comp)
}
