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

package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetBytes(t *testing.T) {
	want := &Config{
		MaxLoopIter:     5,
		SourceFunctions: []string{"os.Args"},
		SinkFunctionArgs: []SinkFunctionArg{
			{Function: "os.WriteFile", ArgIdx: 0, Forbidden: "/proc/self/mem"},
		},
		EnvVarsToTrack: []string{"RUSTC", "CARGO"},
	}

	bytes := []byte(`
max_loop_iter: 5
source_functions:
  - os.Args
sink_function_args:
  - function: os.WriteFile
    arg_idx: 0
    forbidden: /proc/self/mem
env_vars_to_track:
  - RUSTC
  - CARGO
`)

	got, err := SetBytes(bytes)
	if err != nil {
		t.Fatalf("SetBytes returned an unexpected error: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("set config differs from parsed config (-want, +got):\n%s", diff)
	}

	read, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig returned an unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, read); diff != "" {
		t.Errorf("set config differs from cached config (-want, +read):\n%s", diff)
	}
}

func TestSetBytesRejectsInvalidConfig(t *testing.T) {
	if _, err := SetBytes([]byte(`source_functions: [""]`)); err == nil {
		t.Error("SetBytes with an empty source function name should have returned an error")
	}
}
