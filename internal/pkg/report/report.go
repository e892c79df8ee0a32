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

// Package report persists hits to a CSV file, as a supplement to the
// console diagnostics a go/analysis.Pass reports directly.
package report

import (
	"encoding/csv"
	"go/token"
	"os"
	"strconv"

	"github.com/taintwalk/taintwalk/internal/pkg/interp"
)

// Row is one CSV record: a hit's function and forbidden value, its
// 1-based index among every hit sharing that (function, value) pair
// (in report order), and the source span it was found at.
type Row struct {
	Function string
	Value    string
	Index    int
	Span     string
}

// BuildRows turns raw hits into rows, assigning each hit its index
// within its own (function, value) pair in the order the hits were
// found.
func BuildRows(fset *token.FileSet, hits []interp.Hit) []Row {
	counts := map[[2]string]int{}
	rows := make([]Row, 0, len(hits))
	for _, h := range hits {
		key := [2]string{h.Function, h.Forbidden}
		counts[key]++
		rows = append(rows, Row{
			Function: h.Function,
			Value:    h.Forbidden,
			Index:    counts[key],
			Span:     fset.Position(h.Pos).String(),
		})
	}
	return rows
}

var header = []string{"function", "value", "index", "span"}

// WriteCSV appends rows to the CSV file at path, creating it (and
// writing the header row) only if it didn't already exist. A run that
// finds nothing leaves an existing report file untouched and does not
// create a new, empty one.
func WriteCSV(path string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, r := range rows {
		record := []string{r.Function, r.Value, strconv.Itoa(r.Index), r.Span}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
