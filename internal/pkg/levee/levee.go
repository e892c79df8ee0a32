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

// Package levee wires config, the handler registry and the symbolic
// executor together into a go/analysis pass: for every function in the
// packages under analysis, run the interpreter and turn its hits into
// both console diagnostics and a CSV report.
package levee

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"

	"github.com/taintwalk/taintwalk/internal/pkg/config"
	"github.com/taintwalk/taintwalk/internal/pkg/handler"
	"github.com/taintwalk/taintwalk/internal/pkg/interp"
	"github.com/taintwalk/taintwalk/internal/pkg/report"
)

var csvPath string
var verbose bool

// flags extends config.FlagSet with the flags this driver adds on top
// of the shared -config flag. Built as its own initializer (rather
// than registering them from an init func in this package) so the
// flag.FlagSet value Analyzer below copies is guaranteed to already
// carry them, regardless of package-level initialization order.
func flags() flag.FlagSet {
	fs := config.FlagSet
	fs.StringVar(&csvPath, "csv", "", "path to append a CSV report to (disabled if empty)")
	fs.BoolVar(&verbose, "verbose", false, "log each hit's position and forbidden value as it is found")
	return fs
}

var analyzerFlags = flags()

// Analyzer reports values from a configured source function reaching a
// configured sink argument, path-sensitively, within each function.
var Analyzer = &analysis.Analyzer{
	Name:     "taintwalk",
	Doc:      "reports values from configured source functions reaching configured sink arguments",
	Run:      run,
	Flags:    analyzerFlags,
	Requires: []*analysis.Analyzer{buildssa.Analyzer},
}

func run(pass *analysis.Pass) (interface{}, error) {
	cfg, err := config.ReadConfig()
	if err != nil {
		return nil, err
	}
	reg := handler.NewDefaultRegistry(cfg)

	runID := uuid.New()
	log.Printf("taintwalk: run %s analyzing package %s", runID, pass.Pkg.Path())

	ssaInput := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	var allHits []interp.Hit
	for _, fn := range ssaInput.SrcFuncs {
		for _, hit := range interp.AnalyzeFunction(cfg, reg, fn) {
			pass.Reportf(hit.Pos, "possible %s reaching sink argument of %s", hit.Forbidden, hit.Function)
			if verbose {
				log.Printf("taintwalk: run %s: %s: %q may reach %s", runID, pass.Fset.Position(hit.Pos), hit.Forbidden, hit.Function)
			}
			allHits = append(allHits, hit)
		}
	}

	if csvPath != "" {
		rows := report.BuildRows(pass.Fset, allHits)
		if err := report.WriteCSV(csvPath, rows); err != nil {
			return nil, fmt.Errorf("taintwalk: writing csv report: %w", err)
		}
	}

	return nil, nil
}
