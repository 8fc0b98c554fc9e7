package observe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesCurrentValue(t *testing.T) {
	v := NewValue(42)

	var got []int
	cancel := v.Subscribe(func(x int) { got = append(got, x) })
	defer cancel()

	require.Equal(t, []int{42}, got)
}

func TestTransitionsDeliveredInOrder(t *testing.T) {
	v := NewValue(0)

	var got []int
	cancel := v.Subscribe(func(x int) { got = append(got, x) })
	defer cancel()

	v.Set(1)
	v.Set(2)
	v.Set(3)

	require.Equal(t, []int{0, 1, 2, 3}, got)
	require.Equal(t, 3, v.Get())
}

func TestLateSubscriberGetsLatestOnly(t *testing.T) {
	v := NewValue("a")
	v.Set("b")
	v.Set("c")

	var got []string
	cancel := v.Subscribe(func(x string) { got = append(got, x) })
	defer cancel()

	require.Equal(t, []string{"c"}, got)
}

func TestCancelStopsDelivery(t *testing.T) {
	v := NewValue(0)

	var got []int
	cancel := v.Subscribe(func(x int) { got = append(got, x) })

	v.Set(1)
	cancel()
	cancel() // second cancel is a no-op
	v.Set(2)

	require.Equal(t, []int{0, 1}, got)
}

func TestMultipleSubscribers(t *testing.T) {
	v := NewValue(0)

	var a, b []int
	cancelA := v.Subscribe(func(x int) { a = append(a, x) })
	defer cancelA()
	cancelB := v.Subscribe(func(x int) { b = append(b, x) })
	defer cancelB()

	v.Set(7)

	require.Equal(t, []int{0, 7}, a)
	require.Equal(t, []int{0, 7}, b)
}
