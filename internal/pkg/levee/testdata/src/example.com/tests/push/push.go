// Package push exercises in-place mutation through a reference: a
// tainted value is pushed onto an accumulator with WriteString rather
// than assigned, and the sink fires on the accumulator's final value.
package push

import (
	"os"
	"strings"
)

func MutatedPathViaPush() {
	var b strings.Builder
	b.WriteString("/proc/self/")
	name := os.Getenv("NAME")
	b.WriteString(name)
	os.Remove(b.String()) // want "possible /proc/\\* reaching sink argument of os.Remove"
}

func UnmutatedPathIsSafe() {
	var b strings.Builder
	b.WriteString("/tmp/")
	b.WriteString("scratch")
	os.Remove(b.String())
}
