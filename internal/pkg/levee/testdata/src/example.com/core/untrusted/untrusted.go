// Package untrusted stands in for a third-party SDK whose entire
// import path is configured as a source via SourcePackagePatterns,
// rather than listing every entry point individually.
package untrusted

func Read() string {
	return ""
}
