package hci

import (
	"context"
	"sync"
)

// fakeTransport is a minimal in-memory transport.Transport for
// exercising Host/Router without real hardware: SubmitCommand appends
// to a log the test can inspect, and the test pushes events directly
// via push.
type fakeTransport struct {
	mu     sync.Mutex
	sent   [][]byte
	events chan []byte
	closed chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan []byte, 16), closed: make(chan struct{})}
}

func (f *fakeTransport) SubmitCommand(ctx context.Context, cmd []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(cmd))
	copy(cp, cmd)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeTransport) RecvEvent(ctx context.Context) ([]byte, error) {
	select {
	case ev := <-f.events:
		return ev, nil
	case <-f.closed:
		return nil, errClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) SendACL(ctx context.Context, pkt []byte) error { return nil }
func (f *fakeTransport) RecvACL(ctx context.Context) ([]byte, error) {
	<-f.closed
	return nil, errClosed
}
func (f *fakeTransport) Reset(ctx context.Context) error { return nil }
func (f *fakeTransport) Close() error {
	close(f.closed)
	return nil
}

func (f *fakeTransport) push(pkt []byte) { f.events <- pkt }

func (f *fakeTransport) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

var errClosed = errClosedErr{}

type errClosedErr struct{}

func (errClosedErr) Error() string { return "hci: fake transport closed" }

// commandCompleteEvent builds a raw Command Complete event packet.
func commandCompleteEvent(quota uint8, op Opcode, status Status, rest ...byte) []byte {
	params := append([]byte{quota, byte(op), byte(op >> 8), byte(status)}, rest...)
	pkt := append([]byte{byte(EvtCommandComplete), byte(len(params))}, params...)
	return pkt
}

// commandStatusEvent builds a raw Command Status event packet.
func commandStatusEvent(status Status, quota uint8, op Opcode) []byte {
	params := []byte{byte(status), quota, byte(op), byte(op >> 8)}
	return append([]byte{byte(EvtCommandStatus), byte(len(params))}, params...)
}
