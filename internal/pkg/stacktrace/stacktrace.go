// Package stacktrace trims goroutine dumps down to this module's frames.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" locations found
// in a debug.Stack dump, outermost frame last.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		i := strings.Index(line, "/internal/")
		if i < 0 || !strings.Contains(line, ".go:") {
			continue
		}
		loc, _, _ := strings.Cut(line[i+1:], " ")
		paths = append(paths, loc)
	}
	return paths
}
