package param

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectWarnings() (*[]*EncodingError, BufferOption) {
	var (
		mu       sync.Mutex
		warnings []*EncodingError
	)
	return &warnings, WithWarningHandler(func(err *EncodingError) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, err)
	})
}

func TestSetKeepsOnlyLastValue(t *testing.T) {
	b := NewBuffer()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Set(Volatile, "p", Int(int64(i)), Options{}))
	}

	p, ok := b.Get(Volatile, "p")
	require.True(t, ok)
	require.Len(t, p.Values, 1)
	require.Equal(t, []Pair{{Name: "p", Value: "4"}}, b.Flatten(Volatile))
}

func TestSetKeepsPosition(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Set(Volatile, "a", Static("1"), Options{}))
	require.NoError(t, b.Set(Volatile, "b", Static("2"), Options{}))
	require.NoError(t, b.Set(Volatile, "a", Static("3"), Options{}))

	require.Equal(t, []string{"a", "b"}, b.Names(Volatile))
	require.Equal(t, []Pair{{"a", "3"}, {"b", "2"}}, b.Flatten(Volatile))
}

func TestAppendPreservesOrderAndCount(t *testing.T) {
	b := NewBuffer()

	for i := 0; i < 4; i++ {
		require.NoError(t, b.Append(Volatile, "x", Int(int64(i)), Options{}))
	}

	p, ok := b.Get(Volatile, "x")
	require.True(t, ok)
	require.True(t, p.Options.Append)
	require.Len(t, p.Values, 4)
	require.Equal(t, []Pair{{"x", "0::1::2::3"}}, b.Flatten(Volatile))
}

func TestAppendForcesAppendOption(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Set(Volatile, "x", Static("a"), Options{}))
	require.NoError(t, b.Append(Volatile, "x", Static("b"), Options{Append: false}))

	p, _ := b.Get(Volatile, "x")
	require.True(t, p.Options.Append)
	require.Equal(t, []Pair{{"x", "a::b"}}, b.Flatten(Volatile))
}

func TestSetWithAppendOptionAccumulates(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Set(Volatile, "x", Static("a"), Options{Append: true, Separator: "|"}))
	require.NoError(t, b.Set(Volatile, "x", Static("b"), Options{Append: true, Separator: "|"}))

	require.Equal(t, []Pair{{"x", "a|b"}}, b.Flatten(Volatile))
}

func TestEmptyNameIsRejected(t *testing.T) {
	b := NewBuffer()

	err := b.Set(Volatile, "", Static("x"), Options{})
	require.ErrorIs(t, err, ErrInvalidName)
	err = b.Append(Persistent, "", Static("x"), Options{})
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, 0, b.Len(Volatile))
	require.Equal(t, 0, b.Len(Persistent))

	err = b.Set(Volatile, "x", nil, Options{})
	require.ErrorIs(t, err, ErrNilValue)
}

func TestUnsetIsIdempotent(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Set(Persistent, "site", Static("123"), Options{}))

	b.Unset(Persistent, "site")
	b.Unset(Persistent, "site")
	b.Unset(Volatile, "never-set")

	require.Equal(t, 0, b.Len(Persistent))
	require.Empty(t, b.Flatten(Persistent))
}

func TestClearVolatileKeepsPersistent(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Set(Volatile, "p", Static("home"), Options{}))
	require.NoError(t, b.Set(Persistent, "s", Static("42"), Options{}))

	b.ClearVolatile()

	require.Empty(t, b.Flatten(Volatile))
	require.Equal(t, []Pair{{"s", "42"}}, b.Flatten(Persistent))
}

func TestValuesAreEvaluatedAtFlattenTime(t *testing.T) {
	b := NewBuffer()
	counter := 0
	require.NoError(t, b.Set(Persistent, "n", Lazy(func() string {
		counter++
		return strconv.Itoa(counter)
	}), Options{Type: TypeNumber}))

	require.Equal(t, 0, counter)
	require.Equal(t, []Pair{{"n", "1"}}, b.Flatten(Persistent))
	require.Equal(t, []Pair{{"n", "2"}}, b.Flatten(Persistent))
}

func TestEncodingByType(t *testing.T) {
	tests := []struct {
		name   string
		values []Closure
		opts   Options
		want   string
	}{
		{"string raw", []Closure{Static("a b&c")}, Options{}, "a b&c"},
		{"number int", []Closure{Static(" 56 ")}, Options{Type: TypeNumber}, "56"},
		{"number float", []Closure{Float(1.5)}, Options{Type: TypeNumber}, "1.5"},
		{"number trailing zeros", []Closure{Static("2.50")}, Options{Type: TypeNumber}, "2.5"},
		{"number exponent", []Closure{Static("1e3")}, Options{Type: TypeNumber}, "1000"},
		{"bool true", []Closure{Static("TRUE")}, Options{Type: TypeBool}, "true"},
		{"bool from int", []Closure{Static("0")}, Options{Type: TypeBool}, "false"},
		{"json single", []Closure{Static(`{"b":1,"a":"<x>"}`)}, Options{Type: TypeJSON}, `{"a":"<x>","b":1}`},
		{"json merge objects", []Closure{Static(`{"a":{"x":1}}`), Static(`{"a":{"y":2},"b":true}`)}, Options{Type: TypeJSON, Append: true}, `{"a":{"x":1,"y":2},"b":true}`},
		{"json concat arrays", []Closure{Static(`[1,2]`), Static(`[3]`)}, Options{Type: TypeJSON, Append: true}, `[1,2,3]`},
		{"json later key wins", []Closure{Static(`{"a":1}`), Static(`{"a":2}`)}, Options{Type: TypeJSON, Append: true}, `{"a":2}`},
		{"json keeps big numbers", []Closure{Static(`{"id":12345678901234567890}`)}, Options{Type: TypeJSON}, `{"id":12345678901234567890}`},
		{"array joins", []Closure{Static("a"), Static("b")}, Options{Type: TypeArray, Append: true}, "a,b"},
		{"array expands json", []Closure{Static(`["a","b"]`), Static("c")}, Options{Type: TypeArray, Append: true}, "a,b,c"},
		{"csa keeps brackets", []Closure{Static(`[x]`), Static("y")}, Options{Type: TypeCommaSeparatedArray, Append: true}, "[x],y"},
		{"array ignores separator", []Closure{Static("a"), Static("b")}, Options{Type: TypeArray, Append: true, Separator: "|"}, "a,b"},
		{"encode escapes", []Closure{Static("a b&c")}, Options{Encode: true}, "a+b%26c"},
		{"encode json", []Closure{Static(`{"k":"v"}`)}, Options{Type: TypeJSON, Encode: true}, "%7B%22k%22%3A%22v%22%7D"},
		{"encode each array value", []Closure{Static("a,b"), Static("c")}, Options{Type: TypeCommaSeparatedArray, Append: true, Encode: true}, "a%2Cb,c"},
		{"custom separator", []Closure{Static("chapter1"), Static("name")}, Options{Append: true, Separator: "::"}, "chapter1::name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeParameter(&Parameter{Name: "x", Values: tt.values, Options: tt.opts})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEncodingFailuresDropParameter(t *testing.T) {
	warnings, opt := collectWarnings()
	b := NewBuffer(opt)

	boom := errors.New("boom")
	require.NoError(t, b.Set(Volatile, "ok1", Static("1"), Options{}))
	require.NoError(t, b.Set(Volatile, "bad", func() (string, error) { return "", boom }, Options{}))
	require.NoError(t, b.Set(Volatile, "nan", Static("abc"), Options{Type: TypeNumber}))
	require.NoError(t, b.Set(Volatile, "json", Static("{"), Options{Type: TypeJSON}))
	require.NoError(t, b.Set(Volatile, "ok2", Static("2"), Options{}))

	require.Equal(t, []Pair{{"ok1", "1"}, {"ok2", "2"}}, b.Flatten(Volatile))
	require.Len(t, *warnings, 3)
	require.Equal(t, "bad", (*warnings)[0].Name)
	require.ErrorIs(t, (*warnings)[0], boom)
	require.Equal(t, "nan", (*warnings)[1].Name)
	require.Equal(t, TypeNumber, (*warnings)[1].Type)
	require.Equal(t, "json", (*warnings)[2].Name)
}

func TestPanickingValueIsDropped(t *testing.T) {
	warnings, opt := collectWarnings()
	b := NewBuffer(opt)

	require.NoError(t, b.Set(Volatile, "ok", Static("1"), Options{}))
	require.NoError(t, b.Set(Volatile, "crash", Lazy(func() string {
		var m map[string]int
		m["x"] = 1
		return "unreachable"
	}), Options{}))
	require.NoError(t, b.Append(Persistent, "multi", Static("a"), Options{}))
	require.NoError(t, b.Append(Persistent, "multi", Lazy(func() string { panic("boom") }), Options{}))

	require.Equal(t, []Pair{{"ok", "1"}}, b.Flatten(Volatile))
	require.Len(t, *warnings, 1)
	require.Equal(t, "crash", (*warnings)[0].Name)
	require.ErrorIs(t, (*warnings)[0], ErrValuePanicked)

	require.Equal(t, []Pair{{"ok", "1"}}, b.TakeHit())
	require.Len(t, *warnings, 3)
	require.Equal(t, "multi", (*warnings)[1].Name)
	require.ErrorContains(t, (*warnings)[1], "boom")
}

func TestFlattenHitMergesCollections(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Set(Persistent, "s", Static("site"), Options{}))
	require.NoError(t, b.Set(Persistent, "p", Static("default"), Options{}))
	require.NoError(t, b.Set(Volatile, "ref", Static("https://x"), Options{Relative: RelativeLast}))
	require.NoError(t, b.Set(Volatile, "p", Static("home"), Options{}))
	require.NoError(t, b.Set(Volatile, "a", Static("play"), Options{}))
	require.NoError(t, b.Set(Volatile, "idclient", Static("id"), Options{Relative: RelativeFirst}))

	require.Equal(t, []Pair{
		{"idclient", "id"},
		{"s", "site"},
		{"p", "home"},
		{"a", "play"},
		{"ref", "https://x"},
	}, b.FlattenHit())

	// FlattenHit does not clear
	require.Equal(t, 4, b.Len(Volatile))
}

func TestTakeHitClearsVolatile(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Set(Persistent, "s", Static("site"), Options{}))
	require.NoError(t, b.Set(Volatile, "p", Static("home"), Options{}))

	require.Equal(t, []Pair{{"s", "site"}, {"p", "home"}}, b.TakeHit())
	require.Equal(t, []Pair{{"s", "site"}}, b.TakeHit())
}

func TestClosureMayUseBuffer(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.Set(Volatile, "count", Lazy(func() string {
		return strconv.Itoa(b.Len(Volatile))
	}), Options{}))

	require.Equal(t, []Pair{{"count", "1"}}, b.Flatten(Volatile))
}

func TestConcurrentAppend(t *testing.T) {
	b := NewBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = b.Append(Volatile, fmt.Sprintf("p%d", id), Int(int64(j)), Options{Type: TypeArray})
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 10, b.Len(Volatile))
	for i := 0; i < 10; i++ {
		p, ok := b.Get(Volatile, fmt.Sprintf("p%d", i))
		require.True(t, ok)
		require.Len(t, p.Values, 100)
	}
}
