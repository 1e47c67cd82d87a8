package smp

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nimblebt/burble/crypto"
)

// AddrResolver supplies the local and peer toolbox addresses for a
// connection, so Manager doesn't need to depend on the hci package to
// build a Pairing. Callers typically implement this as a small closure
// over hci.Host's connection table, converting via hci.Addr6.ToToolbox.
type AddrResolver func(connHandle ConnHandle) (local, peer crypto.Addr)

// Manager owns one Pairing per live connection, keyed by ConnHandle.
// Generalizes att.Registry's per-connection map pattern to the SMP
// fixed channel.
type Manager struct {
	sender Sender
	local  PairingFeatures
	addrs  AddrResolver
	log    *logrus.Entry

	onNumericCompare NumericCompareFunc
	onComplete       func(ConnHandle, crypto.LTK, error)

	mu       sync.Mutex
	pairings map[ConnHandle]*Pairing
}

// NewManager creates an empty Manager. local is the feature set
// advertised in every Pairing Request/Response this side sends.
func NewManager(sender Sender, local PairingFeatures, addrs AddrResolver, log *logrus.Entry) *Manager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		sender:   sender,
		local:    local,
		addrs:    addrs,
		log:      log,
		pairings: make(map[ConnHandle]*Pairing),
	}
}

// OnNumericCompare registers the callback applied to every Pairing this
// Manager subsequently creates, presenting the comparison value for
// Numeric Comparison association. Must be called before the first
// StartInitiator/Deliver; it has no effect on Pairings already created.
func (m *Manager) OnNumericCompare(f NumericCompareFunc) { m.onNumericCompare = f }

// OnComplete registers the callback applied to every Pairing this
// Manager subsequently creates, invoked once with that connection's
// negotiated LTK or a pairing failure.
func (m *Manager) OnComplete(f func(ConnHandle, crypto.LTK, error)) { m.onComplete = f }

// StartInitiator begins pairing as the central on a newly established
// connection, sending the initial Pairing Request.
func (m *Manager) StartInitiator(ctx context.Context, connHandle ConnHandle) (*Pairing, error) {
	local, peer := m.addrs(connHandle)
	p := NewInitiator(connHandle, m.sender, m.local, local, peer, m.log)
	m.wireCallbacks(connHandle, p)
	m.mu.Lock()
	m.pairings[connHandle] = p
	m.mu.Unlock()
	if err := p.Start(ctx); err != nil {
		m.Close(connHandle)
		return nil, err
	}
	return p, nil
}

func (m *Manager) wireCallbacks(connHandle ConnHandle, p *Pairing) {
	if m.onNumericCompare != nil {
		p.OnNumericCompare(m.onNumericCompare)
	}
	if m.onComplete != nil {
		p.OnComplete(func(ltk crypto.LTK, err error) { m.onComplete(connHandle, ltk, err) })
	}
}

// Close discards the Pairing for a disconnected or completed
// connection.
func (m *Manager) Close(connHandle ConnHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairings, connHandle)
}

// Pairing returns the Pairing for connHandle, or nil if none is open.
func (m *Manager) Pairing(connHandle ConnHandle) *Pairing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairings[connHandle]
}

// Deliver routes one inbound SMP PDU to its connection's Pairing,
// creating a responder Pairing on an unsolicited Pairing Request.
func (m *Manager) Deliver(ctx context.Context, connHandle ConnHandle, pdu []byte) error {
	if len(pdu) == 0 {
		return nil
	}
	m.mu.Lock()
	p, ok := m.pairings[connHandle]
	if !ok {
		if Code(pdu[0]) != CodePairingRequest {
			m.mu.Unlock()
			m.log.WithField("conn", connHandle).Warn("smp: PDU for unknown pairing, dropping")
			return nil
		}
		local, peer := m.addrs(connHandle)
		p = NewResponder(connHandle, m.sender, m.local, local, peer, m.log)
		m.wireCallbacks(connHandle, p)
		m.pairings[connHandle] = p
	}
	m.mu.Unlock()
	return p.Deliver(ctx, pdu)
}
