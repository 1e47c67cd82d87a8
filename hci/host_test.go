package hci

import (
	"context"
	"testing"
	"time"
)

func newTestHost() (*Host, *fakeTransport) {
	ft := newFakeTransport()
	return NewHost(ft, nil), ft
}

func TestExecResetWaitsForCommandComplete(t *testing.T) {
	h, ft := newTestHost()
	h.Start(context.Background())
	defer h.Stop()

	done := make(chan error, 1)
	go func() {
		_, err := h.Exec(context.Background(), OpReset, nil)
		done <- err
	}()

	// Give Exec time to submit and register its waiter before the
	// response arrives.
	time.Sleep(10 * time.Millisecond)
	ft.push(commandCompleteEvent(1, OpReset, StatusSuccess))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Exec(Reset) = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Exec(Reset) did not return")
	}
}

// TestCommandQuotaExceeded exercises S6: Reset forces quota to 0 until
// its response arrives; a concurrently submitted command observes
// ErrCommandQuotaExceeded; after the response, quota is restored from
// the event payload.
func TestCommandQuotaExceeded(t *testing.T) {
	h, ft := newTestHost()
	h.Start(context.Background())
	defer h.Stop()

	resetDone := make(chan error, 1)
	go func() {
		_, err := h.Exec(context.Background(), OpReset, nil)
		resetDone <- err
	}()
	time.Sleep(10 * time.Millisecond)

	if got := h.Router.Quota(); got != 0 {
		t.Fatalf("quota after Reset submitted = %d, want 0", got)
	}

	if _, err := h.Exec(context.Background(), OpReadBDAddr, nil); err != ErrCommandQuotaExceeded {
		t.Fatalf("second command err = %v, want ErrCommandQuotaExceeded", err)
	}

	ft.push(commandCompleteEvent(1, OpReset, StatusSuccess))
	if err := <-resetDone; err != nil {
		t.Fatalf("Exec(Reset) = %v, want nil", err)
	}
	if got := h.Router.Quota(); got != 1 {
		t.Fatalf("quota after Reset response = %d, want 1", got)
	}
}

func TestExecCommandStatusError(t *testing.T) {
	h, ft := newTestHost()
	h.Start(context.Background())
	defer h.Stop()

	done := make(chan error, 1)
	go func() {
		err := h.CreateConnection(context.Background(), ConnParams{})
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	ft.push(commandStatusEvent(StatusCommandDisallowed, 1, OpLECreateConn))

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error from a failing Command Status")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("CreateConnection did not return")
	}
}

func TestExecContextCancelUnregisters(t *testing.T) {
	h, _ := newTestHost()
	h.Start(context.Background())
	defer h.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.Exec(ctx, OpReadBDAddr, nil)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected a cancellation error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Exec did not return after context cancellation")
	}
	if n := len(h.Router.waiters); n != 0 {
		t.Errorf("waiters left registered after cancellation = %d, want 0", n)
	}
}

func TestHostStopResolvesPendingWaiters(t *testing.T) {
	h, _ := newTestHost()
	h.Start(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := h.Exec(context.Background(), OpReadBDAddr, nil)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	h.Stop()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected a terminal error once the host stops")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Exec did not return after Stop")
	}
}
