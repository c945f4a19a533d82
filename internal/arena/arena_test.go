package arena_test

import (
	"slices"
	"testing"

	"github.com/djdv/go-tinylfu/internal/arena"
)

const (
	first arena.List = iota
	second
	lists
)

func TestArena(t *testing.T) {
	t.Run("empty", empty)
	t.Run("push order", pushOrder)
	t.Run("move between lists", moveBetweenLists)
	t.Run("remove", remove)
	t.Run("slot reuse", slotReuse)
	t.Run("reset", reset)
	t.Run("misuse panics", misusePanics)
}

func empty(t *testing.T) {
	t.Parallel()
	a := arena.New[string](int(lists), 0)
	for _, l := range []arena.List{first, second} {
		if got := a.Front(l); got != arena.Nil {
			t.Errorf("expected empty list %d to have no front, got %d", l, got)
		}
		if len(slices.Collect(a.All(l))) != 0 {
			t.Errorf("expected empty list %d to yield nothing", l)
		}
		checkLen(t, a, l, 0)
	}
}

func pushOrder(t *testing.T) {
	t.Parallel()
	a := arena.New[string](int(lists), 3)
	for _, v := range []string{"a", "b", "c"} {
		a.PushBack(first, a.Alloc(v))
	}
	checkValues(t, a, first, []string{"a", "b", "c"})
	checkLen(t, a, first, 3)
	checkLen(t, a, second, 0)
	if got := *a.Value(a.Front(first)); got != "a" {
		t.Errorf("front: got %q want %q", got, "a")
	}
}

func moveBetweenLists(t *testing.T) {
	t.Parallel()
	a := arena.New[string](int(lists), 0)
	var (
		x = a.Alloc("x")
		y = a.Alloc("y")
		z = a.Alloc("z")
	)
	a.PushBack(first, x)
	a.PushBack(first, y)
	a.PushBack(first, z)
	a.MoveToBack(second, y)
	checkValues(t, a, first, []string{"x", "z"})
	checkValues(t, a, second, []string{"y"})
	if got := a.ListOf(y); got != second {
		t.Errorf("expected y in list %d, got %d", second, got)
	}
	a.MoveToBack(first, x)
	checkValues(t, a, first, []string{"z", "x"})
}

func remove(t *testing.T) {
	t.Parallel()
	a := arena.New[int](int(lists), 0)
	indices := make([]arena.Index, 4)
	for i := range indices {
		indices[i] = a.Alloc(i)
		a.PushBack(first, indices[i])
	}
	a.Remove(indices[1])
	a.Remove(indices[1]) // Detached; no-op.
	if got := a.Next(indices[1]); got != arena.Nil {
		t.Errorf("removed slot still has a successor: %d", got)
	}
	checkValues(t, a, first, []int{0, 2, 3})
	checkLen(t, a, first, 3)
}

func slotReuse(t *testing.T) {
	t.Parallel()
	a := arena.New[int](int(lists), 0)
	i := a.Alloc(1)
	a.PushBack(first, i)
	a.Remove(i)
	a.Free(i)
	if got := a.Allocated(); got != 0 {
		t.Fatalf("expected no allocated slots after free, got %d", got)
	}
	j := a.Alloc(2)
	if j != i {
		t.Errorf("expected freed slot %d to be reused, got %d", i, j)
	}
	if got := *a.Value(j); got != 2 {
		t.Errorf("reused slot value: got %d want 2", got)
	}
}

func reset(t *testing.T) {
	t.Parallel()
	a := arena.New[int](int(lists), 0)
	for i := range 8 {
		a.PushBack(arena.List(i%int(lists)), a.Alloc(i))
	}
	a.Reset()
	checkLen(t, a, first, 0)
	checkLen(t, a, second, 0)
	if got := a.Allocated(); got != 0 {
		t.Errorf("expected no allocated slots after reset, got %d", got)
	}
	a.PushBack(second, a.Alloc(42))
	checkValues(t, a, second, []int{42})
}

func misusePanics(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		name string
		fn   func(*arena.Arena[int])
	}{
		{"free linked", func(a *arena.Arena[int]) {
			i := a.Alloc(1)
			a.PushBack(first, i)
			a.Free(i)
		}},
		{"double free", func(a *arena.Arena[int]) {
			i := a.Alloc(1)
			a.Free(i)
			a.Free(i)
		}},
		{"free sentinel", func(a *arena.Arena[int]) {
			a.Free(arena.Index(first))
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", test.name)
				}
			}()
			test.fn(arena.New[int](int(lists), 0))
		})
	}
}

func checkLen[Value any](tb testing.TB, a *arena.Arena[Value], l arena.List, want int) {
	tb.Helper()
	if got := a.Len(l); got != want {
		tb.Fatalf(
			"expected list %d to be specific length"+
				"\n\tgot: %d"+
				"\n\twant: %d",
			l, got, want)
	}
}

func checkValues[Value comparable](tb testing.TB, a *arena.Arena[Value], l arena.List, want []Value) {
	tb.Helper()
	var got []Value
	for i := range a.All(l) {
		got = append(got, *a.Value(i))
	}
	if !slices.Equal(got, want) {
		tb.Fatalf(
			"unexpected list %d contents"+
				"\n\tgot: %v"+
				"\n\twant: %v",
			l, got, want)
	}
}
