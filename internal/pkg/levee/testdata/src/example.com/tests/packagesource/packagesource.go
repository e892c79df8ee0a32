// Package packagesource exercises SourcePackagePatterns: a function
// from a package matched only by regex (never listed in
// source_functions) must still taint its result.
package packagesource

import (
	"os"

	"example.com/core/untrusted"
)

func ReadFromMatchedPackageIsTainted() {
	p := untrusted.Read()
	os.Remove(p) // want "possible /proc/\\* reaching sink argument of os.Remove"
}
