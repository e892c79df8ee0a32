// Package constsink exercises a hardcoded dangerous constant: a sink
// rule fires on a literal forbidden value regardless of taint.
package constsink

import "os"

func WriteHardcodedPath() {
	os.WriteFile("/proc/self/mem", nil, 0644) // want "possible /proc/self/mem reaching sink argument of os.WriteFile"
}

func WriteSafePath() {
	os.WriteFile("/tmp/scratch", nil, 0644)
}
