package hci

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nimblebt/burble/transport"
	"github.com/nimblebt/burble/wire"
)

// Host owns one transport and the Router demultiplexing its event
// stream. It is the command-submission half of C3; Router is the
// event-routing half. Generalizes the teacher's linux/internal/cmd.Cmd
// (command send + correlated response channel) to the full filter
// vocabulary and command-quota back-pressure.
type Host struct {
	t      transport.Transport
	Router *Router
	log    *logrus.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHost wires t to a freshly created Router.
func NewHost(t transport.Transport, log *logrus.Entry) *Host {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Host{t: t, Router: NewRouter(log), log: log}
}

// Start launches the background event-receive loop. It returns once
// the loop goroutine is running; the loop itself keeps running until
// ctx is cancelled or Stop is called.
func (h *Host) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.wg.Add(1)
	go h.receiveLoop(ctx)
}

// Stop cancels the receive loop and closes the router, resolving every
// pending waiter with a terminal error.
func (h *Host) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

func (h *Host) receiveLoop(ctx context.Context) {
	defer h.wg.Done()
	for {
		pkt, err := h.t.RecvEvent(ctx)
		if err != nil {
			h.log.WithError(err).Warn("hci: transport closed, shutting down receive loop")
			h.Router.Close(err)
			return
		}
		ev, ok := DecodeEvent(pkt)
		if !ok {
			h.log.WithField("raw", pkt).Warn("hci: dropping malformed event packet")
			continue
		}
		h.log.WithFields(logrus.Fields{"event": ev.Code, "subevent": ev.SubEvent}).Trace("hci: event received")
		h.Router.Deliver(ev)
	}
}

// Exec submits a command with the given opcode and packed parameters,
// and blocks for its Command Complete/Status response. Returns the
// return-parameter bytes (for Command Complete) or nil (for a
// successful Command Status, which carries none).
func (h *Host) Exec(ctx context.Context, op Opcode, params []byte) ([]byte, error) {
	if err := h.Router.reserveCommand(op); err != nil {
		return nil, err
	}
	id, err := h.Router.Register(FilterCommand{Opcode: op})
	if err != nil {
		return nil, err
	}

	p := wire.NewPacker(3 + len(params))
	p.U16(uint16(op))
	p.U8(uint8(len(params)))
	p.Raw(params)

	if err := h.t.SubmitCommand(ctx, p.Bytes()); err != nil {
		h.Router.Unregister(id)
		return nil, errors.Wrapf(err, "hci: submit %s", op)
	}
	h.log.WithField("opcode", op).Trace("hci: command submitted")

	ev, err := h.Router.Await(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "hci: await %s response", op)
	}
	if ev.Code == EvtCommandStatus {
		cs, ok := DecodeCommandStatus(ev.Params)
		if !ok {
			return nil, errors.Errorf("hci: malformed command status for %s", op)
		}
		if !cs.Status.IsOK() {
			return nil, errors.Errorf("hci: %s: %s", op, cs.Status)
		}
		return nil, nil
	}
	cc, ok := DecodeCommandComplete(ev.Params)
	if !ok {
		return nil, errors.Errorf("hci: malformed command complete for %s", op)
	}
	if len(cc.ReturnParams) > 0 {
		if status := Status(cc.ReturnParams[0]); !status.IsOK() {
			return cc.ReturnParams, errors.Errorf("hci: %s: %s", op, status)
		}
	}
	return cc.ReturnParams, nil
}

// Reset issues the HCI Reset command, forcing the command quota to 0
// until the response arrives per spec.
func (h *Host) Reset(ctx context.Context) error {
	_, err := h.Exec(ctx, OpReset, nil)
	return err
}

// SetEventMask issues Set Event Mask, Set Event Mask Page 2, and LE Set
// Event Mask for the given EventMask triple.
func (h *Host) SetEventMask(ctx context.Context, m EventMask) error {
	p := wire.NewPacker(8)
	p.U64(m.Page1)
	if _, err := h.Exec(ctx, OpSetEventMask, p.Bytes()); err != nil {
		return err
	}

	p2 := wire.NewPacker(8)
	p2.U64(m.Page2)
	if _, err := h.Exec(ctx, OpSetEventMaskPage2, p2.Bytes()); err != nil {
		return err
	}

	le := wire.NewPacker(8)
	le.U64(m.LE)
	_, err := h.Exec(ctx, OpLESetEventMask, le.Bytes())
	return err
}

// ReadBDAddr issues Read BD_ADDR and decodes the controller's public
// address.
func (h *Host) ReadBDAddr(ctx context.Context) (Addr6, error) {
	rp, err := h.Exec(ctx, OpReadBDAddr, nil)
	if err != nil {
		return Addr6{}, err
	}
	u := wire.NewUnpacker(rp)
	_ = u.U8() // status, already checked by Exec
	var a Addr6
	copy(a[:], u.Raw(6))
	if !u.Valid {
		return Addr6{}, errors.New("hci: malformed Read BD_ADDR response")
	}
	return a, nil
}
