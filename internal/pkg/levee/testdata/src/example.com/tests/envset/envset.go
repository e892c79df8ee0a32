// Package envset exercises the tracked-environment-variable sink: each
// entry of env_vars_to_track becomes a literal forbidden value on the
// environment-mutation function's first argument.
package envset

import "os"

func MutateTrackedVar() {
	v := os.Getenv("V")
	os.Setenv("RUSTC", v) // want "possible RUSTC reaching sink argument of os.Setenv"
}

func MutateUntrackedVar() {
	v := os.Getenv("V")
	os.Setenv("GOPATH", v)
}
