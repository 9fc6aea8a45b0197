// Package config holds the small set of build-wide constants and mode
// flags every other package reads instead of threading them through as
// parameters — the same role the teacher's internal/config plays for its
// own source extensions and test/LSP mode switches, generalized here to
// this compiler's own source extension and run modes.
package config

// Version is the current compiler version.
// Set at build time via -ldflags or by writing to this file.
var Version = "0.1.0"

const SourceFileExt = ".sw"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".sw"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode mirrors the teacher's own IsTestMode flag: a package-level
// mode switch set once at startup (here, by cmd/swaycore's -test flag) and
// read by whichever packages need to special-case a test-harness run.
var IsTestMode = false

// IsIncrementalMode is IsLSPMode renamed to this domain: set by
// cmd/swaycore's -incremental flag when it backs a long-lived session
// instead of a one-shot build.
var IsIncrementalMode = false
