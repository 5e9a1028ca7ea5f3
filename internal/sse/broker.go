// Package sse streams vault change notifications to browser clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	EventVaultOpened    = "vault.opened"
	EventVaultRescanned = "vault.rescanned"
	EventFileCreated    = "file.created"
	EventFileWritten    = "file.written"
	EventFileDeleted    = "file.deleted"
	EventFilesChanged   = "files.changed"
)

// KeepAlive is how often an idle stream receives a comment line.
const KeepAlive = 25 * time.Second

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type fileEventReq struct {
	kind string
	path string
}

// subscriber is a client stream and the event types it asked for.
// A nil filter receives everything.
type subscriber struct {
	ch     chan []byte
	filter map[string]struct{}
}

func (s subscriber) wants(typ string) bool {
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[typ]
	return ok
}

// Broker fans vault events out to SSE clients.
//
// A single goroutine owns the subscriber set, the event sequence and the
// files.changed throttle; public methods talk to it over channels.
type Broker struct {
	changedMin time.Duration

	subscribeCh   chan subscriber
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	fileEventCh   chan fileEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one files.changed event per
// changedThrottle.
func NewBroker(changedThrottle time.Duration) *Broker {
	if changedThrottle <= 0 {
		changedThrottle = 2 * time.Second
	}

	b := &Broker{
		changedMin:    changedThrottle,
		subscribeCh:   make(chan subscriber),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		fileEventCh:   make(chan fileEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// frame renders one event in wire format.
func frame(seq uint64, ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("event: ")
	sb.WriteString(ev.Type)
	sb.WriteString("\nid: ")
	sb.WriteString(strconv.FormatUint(seq, 10))
	sb.WriteString("\ndata: ")
	sb.Write(payload)
	sb.WriteString("\n\n")
	return []byte(sb.String()), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	subs := make(map[chan []byte]subscriber)
	var seq uint64
	var lastChanged time.Time

	broadcast := func(ev Event) {
		seq++
		raw, err := frame(seq, ev)
		if err != nil {
			return
		}
		for _, s := range subs {
			if !s.wants(ev.Type) {
				continue
			}
			select {
			case s.ch <- raw:
			default:
				// slow client, drop
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range subs {
				close(ch)
			}
			return

		case s := <-b.subscribeCh:
			subs[s.ch] = s

		case ch := <-b.unsubscribeCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			broadcast(ev)

		case req := <-b.fileEventCh:
			data := map[string]string{"path": req.path}
			switch req.kind {
			case "created":
				broadcast(Event{Type: EventFileCreated, Data: data})
			case "deleted":
				broadcast(Event{Type: EventFileDeleted, Data: data})
			case "written":
				broadcast(Event{Type: EventFileWritten, Data: data})
				continue
			default:
				continue
			}

			// Only creates and deletes change the file list.
			if now := time.Now(); now.Sub(lastChanged) >= b.changedMin {
				lastChanged = now
				broadcast(Event{Type: EventFilesChanged, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(subs)
		}
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client for the given event types, or for all events
// when none are given. The returned channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe(types ...string) chan []byte {
	s := subscriber{ch: make(chan []byte, 64)}
	if len(types) > 0 {
		s.filter = make(map[string]struct{}, len(types))
		for _, t := range types {
			s.filter[t] = struct{}{}
		}
	}
	if b.closed.Load() {
		close(s.ch)
		return s.ch
	}

	select {
	case b.subscribeCh <- s:
	case <-b.stopped:
		close(s.ch)
	}
	return s.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all interested clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishFileEvent publishes a file change. kind is one of "created",
// "written" or "deleted"; creates and deletes are followed by a throttled
// files.changed event.
func (b *Broker) PublishFileEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.fileEventCh <- fileEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// parseTypes splits a comma-separated ?types= value.
func parseTypes(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). An optional
// ?types=file.created,file.deleted restricts the stream.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(parseTypes(r.URL.Query().Get("types"))...)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(KeepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
