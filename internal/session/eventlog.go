package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Stored is an event as recorded in a game's log, with its assigned
// sequence number.
type Stored struct {
	GameID string    `json:"game_id"`
	Seq    uint64    `json:"seq"`
	Type   EventType `json:"type"`
	Event  Event     `json:"event"`
	At     time.Time `json:"at"`
}

// Log is the append-only event history of one game. Sequence numbers start
// at 1 and increase by one per append; gaps never occur.
type Log struct {
	gameID string

	mu     sync.RWMutex
	events []Stored
	seq    uint64
}

// NewLog creates an empty log for the game.
func NewLog(gameID string) *Log {
	return &Log{gameID: gameID}
}

// Append records the event under the next sequence number.
func (l *Log) Append(ev Event) Stored {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	s := Stored{
		GameID: l.gameID,
		Seq:    l.seq,
		Type:   ev.Type(),
		Event:  ev,
		At:     ev.OccurredAt(),
	}
	l.events = append(l.events, s)
	return s
}

// Since returns every event with a sequence number greater than n, in order.
// Since(0) returns the full history.
func (l *Log) Since(n uint64) []Stored {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n >= l.seq {
		return nil
	}
	// Sequence numbers are dense, so the slice offset is direct.
	out := make([]Stored, len(l.events)-int(n))
	copy(out, l.events[n:])
	return out
}

// Len returns the number of stored events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// LastSeq returns the highest assigned sequence number.
func (l *Log) LastSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// Subscriber receives events published to a bus.
type Subscriber func(Stored)

// Bus publishes a game's events: each event is appended to the log first,
// then delivered to in-process subscribers in subscription order, then
// handed to the broadcast callback for the transport. That ordering is what
// lets a reconnecting client replay Since(n) without missing anything.
type Bus struct {
	log  *Log
	zlog zerolog.Logger

	// pubMu serializes append and delivery as one unit, so every subscriber
	// observes sequence numbers in order even with concurrent publishers.
	// mu only guards registration state and is never held during delivery.
	pubMu sync.Mutex

	mu        sync.Mutex
	nextToken int
	order     []int
	subs      map[int]Subscriber
	broadcast func(Stored)
	closed    bool
}

// NewBus creates a bus writing to the given log.
func NewBus(log *Log, logger zerolog.Logger) *Bus {
	return &Bus{
		log:  log,
		zlog: logger.With().Str("component", "eventbus").Logger(),
		subs: make(map[int]Subscriber),
	}
}

// Log returns the underlying event log.
func (b *Bus) Log() *Log { return b.log }

// SetBroadcast installs the transport fan-out callback.
func (b *Bus) SetBroadcast(fn func(Stored)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast = fn
}

// Subscribe registers an in-process listener and returns a token for
// Unsubscribe.
func (b *Bus) Subscribe(fn Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextToken++
	token := b.nextToken
	b.subs[token] = fn
	b.order = append(b.order, token)
	return token
}

// Unsubscribe removes a listener.
func (b *Bus) Unsubscribe(token int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, token)
	for i, t := range b.order {
		if t == token {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Publish stores the event and delivers it. Publishing to a closed bus is a
// no-op.
func (b *Bus) Publish(ev Event) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	stored := b.log.Append(ev)
	listeners := make([]Subscriber, 0, len(b.order))
	for _, t := range b.order {
		listeners = append(listeners, b.subs[t])
	}
	broadcast := b.broadcast
	b.mu.Unlock()

	b.zlog.Debug().Str("type", string(stored.Type)).Uint64("seq", stored.Seq).Msg("event")
	for _, fn := range listeners {
		fn(stored)
	}
	if broadcast != nil {
		broadcast(stored)
	}
}

// Close stops delivery. The log remains readable for replay.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[int]Subscriber)
	b.order = nil
}
