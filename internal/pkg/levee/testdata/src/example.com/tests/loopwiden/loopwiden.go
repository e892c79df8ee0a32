// Package loopwiden exercises bounded-visit loop handling: the loop
// body below would run ten times if unrolled, but the analyzer only
// ever explores it up to the configured loop bound before widening and
// abandoning the path, producing the hits found on the early
// iterations rather than diverging.
package loopwiden

import (
	"os"
	"path/filepath"
)

func LoopWithWidening() {
	name := os.Getenv("NAME")
	p := "/proc"
	for i := 0; i < 10; i++ {
		p = filepath.Join(p, name)
		os.Remove(p) // want "possible /proc/\\* reaching sink argument of os.Remove" "possible /proc/\\* reaching sink argument of os.Remove"
	}
}

func LoopStaysSafe() {
	p := "/tmp"
	for i := 0; i < 10; i++ {
		p = filepath.Join(p, "scratch")
		os.Remove(p)
	}
}
