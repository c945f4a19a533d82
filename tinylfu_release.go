//go:build !tinylfu_debug

package tinylfu

const debugging = false

func assert(bool, string, ...any) {}
