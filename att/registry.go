package att

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry owns one Bearer per live connection, keyed by ConnHandle.
// Generalizes the teacher's single global *l2cap (built for one
// simultaneous peripheral connection) to the full map[connHandle]*bearer
// registry spec.md §4.4 calls for.
type Registry struct {
	srv    Server
	sender Sender
	log    *logrus.Entry

	mu      sync.Mutex
	bearers map[ConnHandle]*Bearer
}

// NewRegistry creates an empty Registry dispatching to srv and sending
// framed PDUs through sender.
func NewRegistry(srv Server, sender Sender, log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{srv: srv, sender: sender, log: log, bearers: make(map[ConnHandle]*Bearer)}
}

// Open creates a Bearer for a newly established connection.
func (r *Registry) Open(connHandle ConnHandle) *Bearer {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := newBearer(connHandle, r.srv, r.sender, r.log.WithField("conn", connHandle))
	r.bearers[connHandle] = b
	return b
}

// Close removes the Bearer for a disconnected connection.
func (r *Registry) Close(connHandle ConnHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bearers, connHandle)
}

// Bearer returns the Bearer for connHandle, or nil if none is open.
func (r *Registry) Bearer(connHandle ConnHandle) *Bearer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bearers[connHandle]
}

// Deliver routes one inbound ATT PDU to its connection's bearer and
// sends the resulting response (if any) back out through sender.
func (r *Registry) Deliver(ctx context.Context, connHandle ConnHandle, pdu []byte) error {
	b := r.Bearer(connHandle)
	if b == nil {
		r.log.WithField("conn", connHandle).Warn("att: PDU for unknown connection, dropping")
		return nil
	}
	resp := b.HandleRequest(pdu)
	if resp == nil {
		return nil
	}
	return r.sender.Send(ctx, connHandle, resp)
}
