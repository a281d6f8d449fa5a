package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
	var zero T
	return zero
}

func assertEmpty[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Errorf("Unexpected value received: %v", v)
	default:
	}
}

func TestNewChannelEvent(t *testing.T) {
	event := NewChannelEvent[string](false)
	require.NotNil(t, event)
	assert.Equal(t, 0, event.ListenerCount())
	assert.False(t, event.retainLast)

	event2 := NewChannelEvent[int](true)
	require.NotNil(t, event2)
	assert.True(t, event2.retainLast)
}

func TestChannelEvent_Listen_Notify_Basic(t *testing.T) {
	event := NewChannelEvent[string](false)

	ch := make(chan string, 10)
	unregister := event.Listen(ch)
	assert.Equal(t, 1, event.ListenerCount())

	event.Notify("test1")
	event.Notify("test2")

	// single notifier, so order is preserved
	assert.Equal(t, "test1", receive(t, ch))
	assert.Equal(t, "test2", receive(t, ch))

	unregister()
	assert.Equal(t, 0, event.ListenerCount())

	event.Notify("test3")
	assertEmpty(t, ch)
}

func TestChannelEvent_MultipleListeners(t *testing.T) {
	event := NewChannelEvent[int](false)

	ch1 := make(chan int, 10)
	ch2 := make(chan int, 10)
	unregister1 := event.Listen(ch1)
	unregister2 := event.Listen(ch2)
	assert.Equal(t, 2, event.ListenerCount())

	event.Notify(42)
	event.Notify(100)

	assert.Equal(t, []int{42, 100}, []int{receive(t, ch1), receive(t, ch1)})
	assert.Equal(t, []int{42, 100}, []int{receive(t, ch2), receive(t, ch2)})

	unregister1()
	unregister2()
	assert.Equal(t, 0, event.ListenerCount())
}

func TestChannelEvent_RetainLast_NoNotifyYet(t *testing.T) {
	event := NewChannelEvent[string](true)

	ch := make(chan string, 10)
	unregister := event.Listen(ch)
	defer unregister()

	assertEmpty(t, ch)
	_, ok := event.Latest()
	assert.False(t, ok)
}

func TestChannelEvent_RetainLast_AfterNotify(t *testing.T) {
	event := NewChannelEvent[string](true)

	ch1 := make(chan string, 10)
	unregister1 := event.Listen(ch1)
	defer unregister1()

	event.Notify("first-event")
	assert.Equal(t, "first-event", receive(t, ch1))

	// A late listener gets the held value straight away
	ch2 := make(chan string, 10)
	unregister2 := event.Listen(ch2)
	defer unregister2()
	assert.Equal(t, "first-event", receive(t, ch2))

	event.Notify("second-event")
	assert.Equal(t, "second-event", receive(t, ch1))
	assert.Equal(t, "second-event", receive(t, ch2))

	latest, ok := event.Latest()
	require.True(t, ok)
	assert.Equal(t, "second-event", latest)
}

func TestChannelEvent_RetainLast_False(t *testing.T) {
	event := NewChannelEvent[string](false)

	event.Notify("first-event")

	ch := make(chan string, 10)
	unregister := event.Listen(ch)
	defer unregister()
	assertEmpty(t, ch)

	_, ok := event.Latest()
	assert.False(t, ok)

	event.Notify("second-event")
	assert.Equal(t, "second-event", receive(t, ch))
}

func TestNewValueEvent(t *testing.T) {
	event := NewValueEvent(7)

	latest, ok := event.Latest()
	require.True(t, ok)
	assert.Equal(t, 7, latest)

	ch := make(chan int, 1)
	unregister := event.Listen(ch)
	defer unregister()
	assert.Equal(t, 7, receive(t, ch))
}

func TestChannelEvent_Listen_NilChannel(t *testing.T) {
	event := NewChannelEvent[string](false)

	assert.Panics(t, func() {
		event.Listen(nil)
	})
}

func TestChannelEvent_FullChannel(t *testing.T) {
	event := NewChannelEvent[string](true)

	ch := make(chan string, 1)
	unregister := event.Listen(ch)
	defer unregister()

	ch <- "blocking"

	// Both are skipped for this listener, but the slot still advances
	event.Notify("test1")
	event.Notify("test2")
	assert.Equal(t, 1, len(ch))
	assert.Equal(t, uint64(2), event.Dropped())

	latest, _ := event.Latest()
	assert.Equal(t, "test2", latest)

	<-ch
	event.Notify("test3")
	assert.Equal(t, "test3", receive(t, ch))
}

func TestChannelEvent_UnregisterTwice(t *testing.T) {
	event := NewChannelEvent[int](false)
	unregister := event.Listen(make(chan int, 1))
	other := event.Listen(make(chan int, 1))
	defer other()

	unregister()
	unregister()
	assert.Equal(t, 1, event.ListenerCount())
}

func TestChannelEvent_ConcurrentAccess(t *testing.T) {
	event := NewChannelEvent[int](false)

	var wg sync.WaitGroup
	channels := make([]chan int, 10)
	unregisters := make([]func(), 10)

	for i := 0; i < 10; i++ {
		ch := make(chan int, 100)
		channels[i] = ch
		unregisters[i] = event.Listen(ch)
	}
	assert.Equal(t, 10, event.ListenerCount())

	wg.Add(5)
	for i := 0; i < 5; i++ {
		go func(value int) {
			defer wg.Done()
			event.Notify(value)
		}(i)
	}
	wg.Wait()

	for i, ch := range channels {
		received := make([]int, 0)
		for len(received) < 5 {
			select {
			case val := <-ch:
				received = append(received, val)
			case <-time.After(200 * time.Millisecond):
				t.Fatalf("Channel %d did not receive all values. Got %d", i, len(received))
			}
		}
		assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, received)
	}

	for _, unregister := range unregisters {
		unregister()
	}
}
