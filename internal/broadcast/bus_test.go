package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus[int](4)
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	n := b.Publish(1)
	assert.Equal(t, 2, n)

	v1 := <-sub1.C()
	v2 := <-sub2.C()
	assert.Equal(t, 1, v1)
	assert.Equal(t, 1, v2)
}

func TestBusDropsOldestWhenFull(t *testing.T) {
	b := NewBus[int](2)
	sub := b.Subscribe()

	b.Publish(1)
	b.Publish(2)
	b.Publish(3) // sub's channel (cap 2) is full: 1 gets dropped.

	require.Len(t, sub.C(), 2)
	assert.Equal(t, 2, <-sub.C())
	assert.Equal(t, 3, <-sub.C())
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus[int](1)
	sub := b.Subscribe()
	sub.Unsubscribe()

	n := b.Publish(7)
	assert.Equal(t, 0, n)

	_, ok := <-sub.C()
	assert.False(t, ok, "channel should be closed after Unsubscribe")
}

func TestLatestOverwritesUnread(t *testing.T) {
	l := NewLatest[string]()
	sub := l.Subscribe()

	l.Publish("first")
	l.Publish("second")

	require.Len(t, sub.C(), 1)
	assert.Equal(t, "second", <-sub.C())
}

func TestLatestSubscribersCancellation(t *testing.T) {
	l := NewLatest[int]()
	sub := l.Subscribe()
	assert.Equal(t, 1, l.Subscribers())

	sub.Unsubscribe()
	assert.Equal(t, 0, l.Subscribers())
}
