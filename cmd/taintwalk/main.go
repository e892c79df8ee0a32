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

package main

import (
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/taintwalk/taintwalk/pkg/taintwalk"
)

func main() {
	// Best-effort: a missing .env is the common case, not an error.
	_ = godotenv.Load()
	// Environment values act as flag defaults; explicit command-line
	// flags still win because they are parsed afterwards.
	if v := os.Getenv("TAINTWALK_CONFIG"); v != "" {
		_ = taintwalk.Analyzer.Flags.Set("config", v)
	}
	if v := os.Getenv("TAINTWALK_CSV"); v != "" {
		_ = taintwalk.Analyzer.Flags.Set("csv", v)
	}
	singlechecker.Main(taintwalk.Analyzer)
}
