package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errTransportClosed = errors.New("transport closed")

// fakeTransport implements Transport for tests: inbound frames are scripted
// through a channel, outbound data frames are captured for assertions.
type fakeTransport struct {
	mu         sync.Mutex
	frames     [][]byte
	failWrites bool
	closed     bool

	inbound chan []byte
	done    chan struct{}
	once    sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

// push scripts one inbound frame.
func (f *fakeTransport) push(raw string) {
	f.inbound <- []byte(raw)
}

func (f *fakeTransport) ReadMessage() (int, []byte, error) {
	select {
	case raw, ok := <-f.inbound:
		if !ok {
			return 0, nil, errTransportClosed
		}
		return websocket.TextMessage, raw, nil
	case <-f.done:
		return 0, nil, errTransportClosed
	}
}

func (f *fakeTransport) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed && messageType != websocket.CloseMessage {
		return errTransportClosed
	}
	if f.failWrites {
		return errTransportClosed
	}
	if messageType == websocket.TextMessage {
		cp := make([]byte, len(data))
		copy(cp, data)
		f.frames = append(f.frames, cp)
	}
	return nil
}

func (f *fakeTransport) SetReadLimit(int64)                {}
func (f *fakeTransport) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeTransport) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeTransport) SetPongHandler(func(string) error) {}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeTransport) writtenFrames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		out = append(out, string(fr))
	}
	return out
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fastConfig keeps test sweeps quick without triggering accidental timeouts.
func fastConfig() Config {
	return Config{
		HeartbeatInterval: 50 * time.Millisecond,
		MaxMissedBeats:    2,
	}
}

// recordingSink captures lifecycle events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []ConnectionEvent
}

func (r *recordingSink) ConnectionEvent(ev ConnectionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) all() []ConnectionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ConnectionEvent, len(r.events))
	copy(out, r.events)
	return out
}
