// Package taintedonly exercises the "tainted-only concrete-safe path"
// case: the same join-then-sink shape is safe when its input is a
// plain parameter, and a hit only once that input is itself sourced.
package taintedonly

import (
	"os"
	"path/filepath"
)

func UntaintedParamSafePath(name string) {
	p := filepath.Join(name, "codegen.rs")
	os.Chmod(p, 0644)
}

func TaintedParamUnsafePath() {
	name := os.Getenv("NAME")
	p := filepath.Join(name, "codegen.rs")
	os.Chmod(p, 0644) // want "possible \\*codegen.rs reaching sink argument of os.Chmod"
}
