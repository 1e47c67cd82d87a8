package hci

import (
	"context"
	"testing"
	"time"
)

func TestRouterFilterConflict(t *testing.T) {
	r := NewRouter(nil)
	if _, err := r.Register(FilterCommand{Opcode: OpReset}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := r.Register(FilterCommand{Opcode: OpReset}); err != ErrFilterConflict {
		t.Fatalf("duplicate Register err = %v, want ErrFilterConflict", err)
	}
}

func TestRouterDispatchDisconnection(t *testing.T) {
	r := NewRouter(nil)
	id, err := r.Register(FilterChanManager{})
	if err != nil {
		t.Fatal(err)
	}
	ev := Event{Code: EvtDisconnectionComplete, Params: []byte{0, 1, 0, 0x13}}
	go r.Deliver(ev)

	got, err := r.Await(context.Background(), id)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if got.Code != EvtDisconnectionComplete {
		t.Errorf("Code = %v, want EvtDisconnectionComplete", got.Code)
	}
}

func TestRouterDispatchConnectionCompleteAllThree(t *testing.T) {
	r := NewRouter(nil)
	chanID, _ := r.Register(FilterChanManager{})
	secID, _ := r.Register(FilterSecDb{})
	advID, _ := r.Register(FilterAdvManager{})

	params := make([]byte, 18)
	params[3] = 1 // Role: peripheral, so AdvManager is routed as well
	ev := Event{Code: EvtLEMeta, SubEvent: SubEvtConnectionComplete, Params: params}
	go r.Deliver(ev)

	for _, id := range []uint64{chanID, secID, advID} {
		if _, err := r.Await(context.Background(), id); err != nil {
			t.Errorf("waiter %d: %v", id, err)
		}
	}
}

func TestRouterEmptyAfterAllResolved(t *testing.T) {
	r := NewRouter(nil)
	ids := make([]uint64, 0, 4)
	for i := 0; i < 4; i++ {
		id, err := r.Register(FilterAdvManager{})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	go r.Deliver(Event{Code: EvtLEMeta, SubEvent: SubEvtAdvertisingSetTerminated})
	for _, id := range ids {
		if _, err := r.Await(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(r.waiters); n != 0 {
		t.Errorf("waiters remaining = %d, want 0", n)
	}
}

func TestRouterUnmatchedEventIsDropped(t *testing.T) {
	r := NewRouter(nil)
	// No waiters registered; Deliver must not block or panic.
	done := make(chan struct{})
	go func() {
		r.Deliver(Event{Code: EvtHardwareError, Params: []byte{0x01}})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked on an event with no matching waiter")
	}
}

func TestRouterCloseResolvesWaiters(t *testing.T) {
	r := NewRouter(nil)
	id, _ := r.Register(FilterSecDb{})
	done := make(chan error, 1)
	go func() {
		_, err := r.Await(context.Background(), id)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	r.Close(nil)

	select {
	case err := <-done:
		if err != ErrRouterClosed {
			t.Errorf("err = %v, want ErrRouterClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Await did not return after Close")
	}
}
