// Package pathjoin exercises path-join concealment: a tainted
// component is joined onto a constant-looking prefix, and the sink
// fires on the joined result rather than on either operand alone.
package pathjoin

import (
	"os"
	"path/filepath"
)

func JoinConcealsDangerousPath() {
	name := os.Getenv("NAME")
	p := filepath.Join("/proc", name)
	os.Remove(p) // want "possible /proc/\\* reaching sink argument of os.Remove"
}

func JoinOfTwoLiteralsIsSafe() {
	p := filepath.Join("/tmp", "scratch")
	os.Remove(p)
}
