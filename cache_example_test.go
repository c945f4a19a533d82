package tinylfu_test

import (
	"fmt"
	"slices"

	tinylfu "github.com/djdv/go-tinylfu"
)

func ExampleCache() {
	const (
		capacity = 1024 // TODO(Anyone): Use contextual capacity.
		key      = "name"
		value    = 1
	)
	cache, err := tinylfu.New[string, int](capacity)
	if err != nil {
		panic(err) // TODO(Anyone): Handle error.
	}
	cache.Set(key, value)
	if got, ok := cache.Get(key); ok {
		fmt.Printf("%s: %d\n", key, got)
	}
	// Output:
	// name: 1
}

func ExampleCache_Flush() {
	cache, err := tinylfu.New[string, int](2)
	if err != nil {
		panic(err)
	}
	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Get("a")
	cache.Set("c", 3)
	// Evictions are settled by maintenance.
	cache.Flush()
	keys := slices.Sorted(cache.Keys())
	fmt.Println(keys, cache.Len())
	// Output:
	// [a c] 2
}

func ExampleWithRemovalListener() {
	cache, err := tinylfu.New[string, int](1,
		// Run maintenance and notifications on the calling goroutine.
		tinylfu.WithExecutor(func(task func()) { task() }),
		tinylfu.WithRemovalListener[string, int](
			func(key string, value int, cause tinylfu.RemovalCause) {
				fmt.Printf("%s=%d %s\n", key, value, cause)
			},
		),
	)
	if err != nil {
		panic(err)
	}
	cache.Set("a", 1)
	cache.Set("a", 2)
	cache.Set("b", 3)
	cache.Invalidate("b")
	// Output:
	// a=1 replaced
	// a=2 evicted
	// b=3 explicit
}
