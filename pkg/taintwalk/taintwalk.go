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

// Package taintwalk exports the taintwalk Analyzer.
package taintwalk

import (
	"github.com/taintwalk/taintwalk/internal/pkg/config"
	"github.com/taintwalk/taintwalk/internal/pkg/levee"
)

// Analyzer reports values from a configured source reaching a
// configured sink argument.
var Analyzer = levee.Analyzer

// SetConfigBytes is a wrapper around the config package's SetBytes
// function, letting a caller that already has configuration in memory
// bypass the -config flag and the file system entirely.
var SetConfigBytes = config.SetBytes
