package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesCurrentValueFirst(t *testing.T) {
	s := New("initial")
	s.Emit("second")

	var got []string
	unsubscribe := s.Subscribe(func(v string) { got = append(got, v) })
	defer unsubscribe()

	s.Emit("third")
	assert.Equal(t, []string{"second", "third"}, got)
	assert.Equal(t, "third", s.Value())
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := New(0)
	var calls int
	unsubscribe := s.Subscribe(func(int) { calls++ })
	require.Equal(t, 1, s.Len())

	unsubscribe()
	unsubscribe()
	s.Emit(5)

	assert.Equal(t, 1, calls, "only the initial replay")
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 5, s.Value())
}

func TestMultipleObservers(t *testing.T) {
	s := New[[]int](nil)
	var a, b [][]int
	s.Subscribe(func(v []int) { a = append(a, v) })
	s.Subscribe(func(v []int) { b = append(b, v) })

	s.Emit([]int{1, 2})
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, []int{1, 2}, a[1])
	assert.Equal(t, []int{1, 2}, b[1])
}

func TestObserversRunInSubscriptionOrder(t *testing.T) {
	s := New(0)
	var order []string
	record := func(name string) func(int) {
		return func(v int) {
			if v > 0 {
				order = append(order, name)
			}
		}
	}
	s.Subscribe(record("a"))
	unsubscribeB := s.Subscribe(record("b"))
	s.Subscribe(record("c"))
	s.Subscribe(record("d"))

	for i := 1; i <= 3; i++ {
		s.Emit(i)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "a", "b", "c", "d", "a", "b", "c", "d"}, order)

	order = nil
	unsubscribeB()
	s.Emit(4)
	assert.Equal(t, []string{"a", "c", "d"}, order)
	assert.Equal(t, 3, s.Len())
}
