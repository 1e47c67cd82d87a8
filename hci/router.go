package hci

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrFilterConflict is returned by Register when an identical filter is
// already registered and the filter kind permits only one waiter at a
// time (Command filters: the controller correlates at most one
// outstanding request per opcode under this stack's quota discipline).
var ErrFilterConflict = errors.New("hci: filter conflict")

// ErrCommandQuotaExceeded is returned by Host.Exec when the controller's
// command quota is currently zero.
var ErrCommandQuotaExceeded = errors.New("hci: command quota exceeded")

// ErrRouterClosed is returned to every waiter, pending or new, once the
// router's receive loop has terminated.
var ErrRouterClosed = errors.New("hci: router closed")

// watchdogPeriod is the held-read-lock watchdog from spec: if the event
// buffer's write lock cannot be acquired within this long, a reader is
// assumed stuck and the receive cycle is abandoned with a logged
// warning rather than blocking forever.
const watchdogPeriod = 3 * time.Second

type waiter struct {
	id     uint64
	filter Filter
	ready  bool
	event  Event
	err    error
}

// Router demultiplexes the HCI event stream to command waiters and the
// three subsystem filters ([FilterAdvManager], [FilterChanManager],
// [FilterSecDb]),
// enforcing the controller's command quota. It generalizes the
// teacher's linear-scan `Cmd.sent []*cmdPkt` matching list from "one
// waiter per opcode" to the closed filter vocabulary.
type Router struct {
	log *logrus.Entry

	mu      sync.Mutex
	cond    *sync.Cond
	waiters []*waiter
	nextID  uint64
	quota   int
	closed  bool
	closeErr error

	evMu  sync.RWMutex
	event Event
}

// NewRouter creates a Router with an initial command quota of 1, per
// [Vol 4] Part E, Section 4.4: the controller grants quota via
// Command Complete/Status events thereafter.
func NewRouter(log *logrus.Entry) *Router {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &Router{log: log, quota: 1}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register adds a waiter for filter and returns its id. Two Command
// filters for the same opcode conflict; registering a duplicate is
// ErrFilterConflict.
func (r *Router) Register(filter Filter) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrRouterClosed
	}
	if _, ok := filter.(FilterCommand); ok {
		for _, w := range r.waiters {
			if filterEqual(w.filter, filter) {
				return 0, ErrFilterConflict
			}
		}
	}
	r.nextID++
	id := r.nextID
	r.waiters = append(r.waiters, &waiter{id: id, filter: filter})
	return id, nil
}

// Unregister removes a waiter, e.g. on context cancellation. It is a
// no-op if the waiter already fired or was already removed — waiters
// are cancel-safe.
func (r *Router) Unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.waiters {
		if w.id == id {
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			return
		}
	}
}

// Await blocks until the waiter identified by id is marked ready (or
// ctx is done, or the router is closed), then returns the event view
// delivered to it.
func (r *Router) Await(ctx context.Context, id uint64) (Event, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.cond.Broadcast()
			r.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			r.removeLocked(id)
			return Event{}, err
		}
		for _, w := range r.waiters {
			if w.id != id {
				continue
			}
			if !w.ready {
				break
			}
			r.removeLocked(id)
			return w.event, w.err
		}
		if !r.hasWaiterLocked(id) {
			if r.closed {
				return Event{}, r.closeErr
			}
			return Event{}, ErrRouterClosed
		}
		r.cond.Wait()
	}
}

func (r *Router) hasWaiterLocked(id uint64) bool {
	for _, w := range r.waiters {
		if w.id == id {
			return true
		}
	}
	return false
}

func (r *Router) removeLocked(id uint64) {
	for i, w := range r.waiters {
		if w.id == id {
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			return
		}
	}
}

// Quota reports the current command quota.
func (r *Router) Quota() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quota
}

// reserveCommand decrements quota for a newly-submitted command. Per
// spec, Command(Reset) forces quota to 0 until its response arrives,
// regardless of the controller-granted value.
func (r *Router) reserveCommand(op Opcode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quota <= 0 {
		return ErrCommandQuotaExceeded
	}
	if op == OpReset {
		r.quota = 0
		return nil
	}
	r.quota--
	return nil
}

// Deliver pushes one decoded event into the router: it takes the event
// buffer's write lock (guarded by the held-read-lock watchdog), updates
// quota from Command Complete/Status payloads, matches the event
// against every registered waiter per the dispatch table, and wakes
// any matches.
func (r *Router) Deliver(ev Event) {
	locked := make(chan struct{})
	go func() { r.evMu.Lock(); close(locked) }()
	select {
	case <-locked:
	case <-time.After(watchdogPeriod):
		r.log.Warn("hci: event buffer write lock held past watchdog period, abandoning receive cycle")
		go func() { <-locked; r.evMu.Unlock() }()
		return
	}
	r.event = ev
	r.evMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Code {
	case EvtCommandComplete:
		if cc, ok := DecodeCommandComplete(ev.Params); ok {
			r.quota = int(cc.NumHCICommandPackets)
			r.matchLocked(FilterCommand{Opcode: cc.Opcode}, ev, nil)
			return
		}
	case EvtCommandStatus:
		if cs, ok := DecodeCommandStatus(ev.Params); ok {
			r.quota = int(cs.NumHCICommandPackets)
			var err error
			if !cs.Status.IsOK() {
				err = errors.Errorf("hci: command %s failed: %s", cs.Opcode, cs.Status)
			}
			r.matchLocked(FilterCommand{Opcode: cs.Opcode}, ev, err)
			return
		}
	}

	kinds := r.dispatchKinds(ev)
	if len(kinds) == 0 {
		r.log.WithField("event", ev.Code).Trace("hci: event matched no waiter")
		return
	}
	for _, k := range kinds {
		r.matchKindLocked(k, ev)
	}
}

// dispatchKinds implements the routing table from spec.md §4.3.
func (r *Router) dispatchKinds(ev Event) []filterKind {
	switch ev.Code {
	case EvtDisconnectionComplete, EvtNumberOfCompletedPackets:
		return []filterKind{filterChanManager}
	case EvtLEMeta:
		switch ev.SubEvent {
		case SubEvtAdvertisingReport, SubEvtExtendedAdvertisingReport:
			return []filterKind{filterAdvManager}
		case SubEvtConnectionComplete, SubEvtEnhancedConnectionComplete:
			// Both subevents open with Status, Connection_Handle and
			// Role, so the plain decoder reads either one's role.
			// AdvManager receives only peripheral-role completions.
			kinds := []filterKind{filterChanManager, filterSecDb}
			if cc, ok := DecodeConnectionComplete(ev.Params); ok && cc.IsPeripheral() {
				kinds = append(kinds, filterAdvManager)
			}
			return kinds
		case SubEvtLongTermKeyRequest:
			return []filterKind{filterSecDb}
		case SubEvtAdvertisingSetTerminated:
			return []filterKind{filterAdvManager}
		}
	}
	return nil
}

func (r *Router) matchLocked(f Filter, ev Event, err error) {
	matched := false
	for _, w := range r.waiters {
		if filterEqual(w.filter, f) {
			w.ready, w.event, w.err = true, ev, err
			matched = true
		}
	}
	if matched {
		r.cond.Broadcast()
	} else {
		r.log.WithField("event", ev.Code).Trace("hci: command event matched no waiter")
	}
}

func (r *Router) matchKindLocked(k filterKind, ev Event) {
	matched := false
	for _, w := range r.waiters {
		if w.filter.filterTag() == k {
			w.ready, w.event = true, ev
			matched = true
		}
	}
	if matched {
		r.cond.Broadcast()
	}
}

// Close terminates the router: every pending and future waiter observes
// err (or ErrRouterClosed if err is nil).
func (r *Router) Close(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if err == nil {
		err = ErrRouterClosed
	}
	r.closeErr = err
	for _, w := range r.waiters {
		w.ready, w.err = true, err
	}
	r.cond.Broadcast()
}

// LatestEvent returns the most recently delivered event under the
// buffer's read lock, mirroring the scoped read-guard access pattern
// from spec.md §9: callers must not retain the returned value across a
// suspension point.
func (r *Router) LatestEvent() Event {
	r.evMu.RLock()
	defer r.evMu.RUnlock()
	return r.event
}
