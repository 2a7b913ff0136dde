package session

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stampedEvent(at time.Time, to string) Event {
	return GameStateChanged{stamp: stamp{At: at}, To: to}
}

func TestLogSequencesAreDense(t *testing.T) {
	t.Parallel()

	l := NewLog("g1")
	assert.Equal(t, uint64(0), l.LastSeq())

	now := time.Now()
	for i := 1; i <= 5; i++ {
		s := l.Append(stampedEvent(now, "x"))
		assert.Equal(t, uint64(i), s.Seq)
		assert.Equal(t, "g1", s.GameID)
		assert.Equal(t, EventGameStateChanged, s.Type)
	}
	assert.Equal(t, 5, l.Len())
	assert.Equal(t, uint64(5), l.LastSeq())
}

func TestLogSince(t *testing.T) {
	t.Parallel()

	l := NewLog("g1")
	now := time.Now()
	for range 5 {
		l.Append(stampedEvent(now, "x"))
	}

	all := l.Since(0)
	require.Len(t, all, 5)
	assert.Equal(t, uint64(1), all[0].Seq)

	tail := l.Since(3)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(4), tail[0].Seq)
	assert.Equal(t, uint64(5), tail[1].Seq)

	assert.Nil(t, l.Since(5))
	assert.Nil(t, l.Since(99))
}

func TestBusDeliveryOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus(NewLog("g1"), zerolog.Nop())

	var got []string
	bus.Subscribe(func(s Stored) {
		// The log already holds the event when a subscriber sees it.
		assert.Equal(t, s.Seq, bus.Log().LastSeq())
		got = append(got, "sub1")
	})
	bus.Subscribe(func(Stored) { got = append(got, "sub2") })
	bus.SetBroadcast(func(Stored) { got = append(got, "broadcast") })

	bus.Publish(stampedEvent(time.Now(), "x"))
	assert.Equal(t, []string{"sub1", "sub2", "broadcast"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewBus(NewLog("g1"), zerolog.Nop())
	calls := 0
	token := bus.Subscribe(func(Stored) { calls++ })

	bus.Publish(stampedEvent(time.Now(), "x"))
	bus.Unsubscribe(token)
	bus.Publish(stampedEvent(time.Now(), "y"))
	assert.Equal(t, 1, calls)
}

func TestClosedBusDropsPublishes(t *testing.T) {
	t.Parallel()

	bus := NewBus(NewLog("g1"), zerolog.Nop())
	calls := 0
	bus.Subscribe(func(Stored) { calls++ })
	bus.Close()

	bus.Publish(stampedEvent(time.Now(), "x"))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, bus.Log().Len())

	// The log stays readable after close.
	assert.Nil(t, bus.Log().Since(0))
}

func TestConcurrentPublishersDeliverInSequence(t *testing.T) {
	t.Parallel()

	bus := NewBus(NewLog("g1"), zerolog.Nop())

	var mu sync.Mutex
	var seen []uint64
	bus.Subscribe(func(s Stored) {
		mu.Lock()
		seen = append(seen, s.Seq)
		mu.Unlock()
	})

	const publishers, perPublisher = 8, 50
	var wg sync.WaitGroup
	for range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perPublisher {
				bus.Publish(stampedEvent(time.Now(), "running"))
			}
		}()
	}
	wg.Wait()

	// Every subscriber sees sequence numbers in order with no gaps.
	require.Len(t, seen, publishers*perPublisher)
	for i, seq := range seen {
		require.Equal(t, uint64(i+1), seq)
	}
}
