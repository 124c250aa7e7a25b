package app

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// EventsStoreKey is the store holding the committed event log.
const EventsStoreKey = "events"

var (
	keyPrefixEvent = []byte{0x01}
	keyLastSeq     = []byte{0x02}
)

var eventCdc = codec.NewLegacyAmino()

// Attribute is a key/value pair of a logged event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a committed event with its position in the log.
type Event struct {
	Seq        uint64      `json:"seq"`
	Height     int64       `json:"height"`
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute returns the value of key, or "" when absent.
func (e Event) Attribute(key string) string {
	for _, attr := range e.Attributes {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

func eventKey(seq uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, seq)
	return bz
}

func lastSeq(store sdk.KVStore) uint64 {
	bz := store.Get(keyLastSeq)
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

// appendEvents assigns sequence numbers to events and writes them to store.
func appendEvents(store sdk.KVStore, height int64, events sdk.Events) []Event {
	seq := lastSeq(store)
	logged := make([]Event, 0, len(events))
	eventStore := prefix.NewStore(store, keyPrefixEvent)

	for _, e := range events {
		seq++
		ev := Event{Seq: seq, Height: height, Type: e.Type}
		for _, attr := range e.Attributes {
			ev.Attributes = append(ev.Attributes, Attribute{Key: string(attr.Key), Value: string(attr.Value)})
		}
		eventStore.Set(eventKey(seq), eventCdc.MustMarshal(&ev))
		logged = append(logged, ev)
	}

	store.Set(keyLastSeq, eventKey(seq))
	return logged
}

// eventsAfter returns up to limit events with a sequence number above after.
// A non-positive limit returns every remaining event.
func eventsAfter(store sdk.KVStore, after uint64, limit int) []Event {
	eventStore := prefix.NewStore(store, keyPrefixEvent)
	iterator := eventStore.Iterator(eventKey(after+1), nil)
	defer iterator.Close()

	var events []Event
	for ; iterator.Valid(); iterator.Next() {
		var ev Event
		eventCdc.MustUnmarshal(iterator.Value(), &ev)
		events = append(events, ev)
		if limit > 0 && len(events) >= limit {
			break
		}
	}
	return events
}

// Subscription delivers committed events in order. It is closed when the
// subscriber falls behind or calls Close.
type Subscription struct {
	id     string
	ch     chan Event
	remove func(id string)

	mu     sync.Mutex
	closed bool
}

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close stops delivery and closes the channel.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.remove(s.id)
	close(s.ch)
}

func (s *Subscription) deliver(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// broker fans committed events out to subscribers.
type broker struct {
	next uint64
	subs cmap.ConcurrentMap[string, *Subscription]
}

func newBroker() *broker {
	return &broker{subs: cmap.New[*Subscription]()}
}

func (b *broker) subscribe(backlog []Event, buffer int) *Subscription {
	id := eventKey(atomic.AddUint64(&b.next, 1))
	sub := &Subscription{
		id:     string(id),
		ch:     make(chan Event, len(backlog)+buffer),
		remove: b.subs.Remove,
	}
	for _, ev := range backlog {
		sub.ch <- ev
	}
	b.subs.Set(sub.id, sub)
	return sub
}

// publish delivers events without blocking. A subscriber whose buffer is full
// is closed and has to resubscribe from its last seen sequence.
func (b *broker) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	for _, sub := range b.subs.Items() {
		for _, ev := range events {
			if !sub.deliver(ev) {
				sub.Close()
				break
			}
		}
	}
}

func (b *broker) closeAll() {
	for _, sub := range b.subs.Items() {
		sub.Close()
	}
}
