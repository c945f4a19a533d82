//go:build tinylfu_debug

package tinylfu

import "fmt"

const debugging = true

// assert panics with the formatted message if cond is false.
// Checks guarded by [debugging] are compiled out of release builds.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("tinylfu: invariant broken: "+format, args...))
	}
}
