// Package stacktrace trims goroutine dumps down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" entries for every
// frame of a debug.Stack dump that lives under an internal/ directory.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)

		_, rest, found := strings.Cut(line, "/internal/")
		if !found {
			continue
		}

		idx := strings.Index(rest, ".go:")
		if idx == -1 {
			continue
		}

		loc, _, _ := strings.Cut(rest, " ")
		paths = append(paths, "internal/"+loc)
	}
	return paths
}
