// Command bleperiph is a runnable demo peripheral wiring every layer of
// this module together end to end: a usbhci.Transport drives an
// hci.Host, an l2cap.Bridge demultiplexes its ACL traffic onto the ATT
// and SMP fixed channels, att.Registry serves a gatt.Schema over ATT,
// and smp.Manager runs LE Secure Connections pairing, persisting each
// bond's LTK to an in-memory peer.Store. It mirrors the shape of the
// teacher's examples/server.go: build the schema, install connect/
// disconnect handlers, start advertising, then block.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nimblebt/burble/att"
	"github.com/nimblebt/burble/crypto"
	"github.com/nimblebt/burble/gap"
	"github.com/nimblebt/burble/gatt"
	"github.com/nimblebt/burble/hci"
	"github.com/nimblebt/burble/l2cap"
	"github.com/nimblebt/burble/peer"
	"github.com/nimblebt/burble/smp"
	"github.com/nimblebt/burble/transport/usbhci"
)

func main() {
	bus := flag.Int("bus", 1, "USB bus number of the HCI dongle")
	device := flag.Int("device", 1, "USB device number of the HCI dongle")
	iface := flag.Int("interface", 0, "USB interface number claimed for HCI")
	eventEP := flag.Int("event-ep", 0x81, "interrupt IN endpoint address for HCI events")
	aclInEP := flag.Int("acl-in-ep", 0x82, "bulk IN endpoint address for ACL data")
	aclOutEP := flag.Int("acl-out-ep", 0x02, "bulk OUT endpoint address for ACL data")
	name := flag.String("name", "burble", "device name advertised in GAP")
	logLevel := flag.String("log-level", "info", "logrus level: trace, debug, info, warn, error")
	flag.Parse()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	}
	entry := logrus.NewEntry(log)

	if err := run(entry, runConfig{
		bus: *bus, device: *device, iface: *iface,
		eventEP: uint8(*eventEP), aclInEP: uint8(*aclInEP), aclOutEP: uint8(*aclOutEP),
		name: *name,
	}); err != nil {
		entry.WithError(err).Fatal("bleperiph: exiting")
	}
}

type runConfig struct {
	bus, device, iface       int
	eventEP, aclInEP, aclOutEP uint8
	name                     string
}

func run(log *logrus.Entry, cfg runConfig) error {
	t, err := usbhci.Open(usbhci.Config{
		Bus: cfg.bus, Device: cfg.device,
		Endpoints: usbhci.Endpoints{Interface: cfg.iface, EventIn: cfg.eventEP, ACLIn: cfg.aclInEP, ACLOut: cfg.aclOutEP},
	}, log)
	if err != nil {
		return fmt.Errorf("open transport: %w", err)
	}
	defer t.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	host := hci.NewHost(t, log.WithField("component", "hci"))
	host.Start(ctx)
	defer host.Stop()

	if err := t.Reset(ctx); err != nil {
		return fmt.Errorf("transport reset: %w", err)
	}
	if err := host.Reset(ctx); err != nil {
		return fmt.Errorf("hci reset: %w", err)
	}
	if err := host.SetEventMask(ctx, hci.DefaultEventMask()); err != nil {
		return fmt.Errorf("set event mask: %w", err)
	}
	localAddr, err := host.ReadBDAddr(ctx)
	if err != nil {
		return fmt.Errorf("read bd_addr: %w", err)
	}
	log.WithField("addr", localAddr).Info("bleperiph: controller address")

	schema, srv, handles := buildSchema(cfg.name)

	store := peer.NewMemStore()
	conns := newConnTable()

	bridge := l2cap.New(t, log.WithField("component", "l2cap"))
	registry := att.NewRegistry(srv, bridge.ATTSender(), log.WithField("component", "att"))

	srv.HandleWrite(handles["echoVal"], gatt.WriteHandlerFunc(func(req gatt.Request, value []byte) att.ErrorCode {
		srv.SetValue(handles["echoVal"], value)
		for _, h := range conns.handles() {
			if b := registry.Bearer(att.ConnHandle(h)); b != nil {
				if err := b.Notify(ctx, uint16(handles["echoVal"]), value); err != nil {
					log.WithError(err).WithField("conn", h).Warn("bleperiph: notify failed")
				}
			}
		}
		return 0
	}))

	localFeatures := smp.PairingFeatures{
		IOCap:         smp.IOCapNoInputNoOutput,
		AuthReq:       smp.AuthReqBondingFlag | smp.AuthReqSC,
		MaxEncKeySize: 16,
		InitKeyDist:   smp.KeyDistEncKey,
		RespKeyDist:   smp.KeyDistEncKey,
	}
	manager := smp.NewManager(bridge.SMPSender(), localFeatures, conns.resolveAddrs(localAddr), log.WithField("component", "smp"))
	manager.OnNumericCompare(func(nc crypto.NumCompare) bool {
		log.WithField("value", nc).Info("bleperiph: confirm this six-digit value matches the peer's display, then accept")
		return true
	})
	manager.OnComplete(func(connHandle smp.ConnHandle, ltk crypto.LTK, err error) {
		if err != nil {
			log.WithError(err).WithField("conn", connHandle).Warn("bleperiph: pairing failed")
			return
		}
		addr, ok := conns.peerAddr(hci.ConnHandle(connHandle))
		if !ok {
			log.WithField("conn", connHandle).Warn("bleperiph: pairing completed for an unknown connection")
			return
		}
		store.Save(addr, ltk[:])
		log.WithField("conn", connHandle).WithField("peer", addr.Addr).Info("bleperiph: bonded")
	})

	bridge.Wire(registry, manager)
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("bleperiph: l2cap bridge stopped")
		}
	}()

	go runChanManagerLoop(ctx, log, host, registry, manager, conns)
	go runSecDbLoop(ctx, log, host, store, conns)

	if err := startAdvertising(ctx, host, cfg.name); err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}
	log.WithField("hash", schema.Hash()).Info("bleperiph: advertising")

	<-ctx.Done()
	log.Info("bleperiph: shutting down")
	return nil
}

// buildSchema assembles the GAP and GATT profile services plus one
// custom echo service: a read/write/notify characteristic whose writes
// are echoed back as a notification, demonstrating the server-initiated
// path through att.Bearer.Notify.
func buildSchema(name string) (*gatt.Schema, *gatt.Server, map[string]gatt.Handle) {
	b := gatt.NewBuilder()
	hh := make(map[string]gatt.Handle)

	hh["gap"] = b.AddPrimaryService(gatt.ServiceGAP)
	_, nameVal := b.AddCharacteristic(gatt.CharDeviceName, gatt.PropRead, gatt.ReadOnly(att.SecurityNone))
	hh["deviceName"] = nameVal

	hh["gatt"] = b.AddPrimaryService(gatt.ServiceGATT)

	echoService := gap.Uuid16(0xFEED)
	echoChar := gap.Uuid16(0xFEE1)
	hh["echo"] = b.AddPrimaryService(echoService)
	charDecl, charVal := b.AddCharacteristic(echoChar,
		gatt.PropRead|gatt.PropWrite|gatt.PropWriteCmd|gatt.PropNotify,
		gatt.ReadWrite(att.SecurityNone, att.SecurityUnauthenticatedEncryption))
	hh["echoDecl"], hh["echoVal"] = charDecl, charVal
	hh["echoDesc"] = b.AddDescriptor(gap.Uuid16(0x2901), gatt.ReadOnly(att.SecurityNone), []byte("echo"))

	schema, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("bleperiph: building schema: %v", err))
	}

	srv := gatt.NewServer(schema)
	srv.SetValue(nameVal, []byte(name))
	return schema, srv, hh
}

// connTable tracks the peer address of every live connection, so the
// SMP AddrResolver and the bond store can translate an hci.ConnHandle
// to the Bluetooth address it was established with.
type connTable struct {
	mu    sync.Mutex
	peers map[hci.ConnHandle]peer.Addr
}

func newConnTable() *connTable { return &connTable{peers: make(map[hci.ConnHandle]peer.Addr)} }

func (c *connTable) open(handle hci.ConnHandle, addr peer.Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[handle] = addr
}

func (c *connTable) close(handle hci.ConnHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.peers, handle)
}

func (c *connTable) peerAddr(handle hci.ConnHandle) (peer.Addr, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.peers[handle]
	return a, ok
}

func (c *connTable) handles() []hci.ConnHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]hci.ConnHandle, 0, len(c.peers))
	for h := range c.peers {
		out = append(out, h)
	}
	return out
}

// resolveAddrs adapts connTable to smp.AddrResolver: the local side is
// always this controller's public address, the peer side comes from
// whatever LE Connection Complete most recently reported for handle.
func (c *connTable) resolveAddrs(localAddr hci.Addr6) smp.AddrResolver {
	return func(connHandle smp.ConnHandle) (local, peer crypto.Addr) {
		local = localAddr.ToToolbox(hci.AddrPublic)
		if a, ok := c.peerAddr(hci.ConnHandle(connHandle)); ok {
			peer = a.Addr.ToToolbox(a.Kind)
		}
		return local, peer
	}
}

// runChanManagerLoop consumes the FilterChanManager event stream:
// Disconnection Complete and every LE (Enhanced) Connection Complete.
// It keeps conns and registry/manager's per-connection state in sync
// with the controller's view of which connections are live.
func runChanManagerLoop(ctx context.Context, log *logrus.Entry, host *hci.Host, registry *att.Registry, manager *smp.Manager, conns *connTable) {
	for {
		id, err := host.Router.Register(hci.FilterChanManager{})
		if err != nil {
			return
		}
		ev, err := host.Router.Await(ctx, id)
		if err != nil {
			return
		}
		switch ev.Code {
		case hci.EvtDisconnectionComplete:
			d, ok := hci.DecodeDisconnectionComplete(ev.Params)
			if !ok {
				continue
			}
			registry.Close(att.ConnHandle(d.Handle))
			manager.Close(smp.ConnHandle(d.Handle))
			conns.close(d.Handle)
			log.WithField("conn", d.Handle).Info("bleperiph: disconnected")
		case hci.EvtLEMeta:
			var cc hci.ConnectionComplete
			var ok bool
			switch ev.SubEvent {
			case hci.SubEvtConnectionComplete:
				cc, ok = hci.DecodeConnectionComplete(ev.Params)
			case hci.SubEvtEnhancedConnectionComplete:
				cc, ok = hci.DecodeEnhancedConnectionComplete(ev.Params)
			default:
				continue
			}
			if !ok || !cc.Status.IsOK() || !cc.IsPeripheral() {
				continue
			}
			addr := peer.Addr{Kind: hci.AddrKind(cc.PeerAddrType), Addr: cc.PeerAddr}
			conns.open(cc.Handle, addr)
			registry.Open(att.ConnHandle(cc.Handle))
			log.WithField("conn", cc.Handle).WithField("peer", cc.PeerAddr).Info("bleperiph: connected")
		}
	}
}

// runSecDbLoop consumes the FilterSecDb event stream: only LE Long Term
// Key Request matters here, since Connection Complete bookkeeping is
// runChanManagerLoop's job. A stored bond replies with its LTK; an
// unknown peer is rejected so the link stays unencrypted rather than
// silently pairing again.
func runSecDbLoop(ctx context.Context, log *logrus.Entry, host *hci.Host, store peer.Store, conns *connTable) {
	for {
		id, err := host.Router.Register(hci.FilterSecDb{})
		if err != nil {
			return
		}
		ev, err := host.Router.Await(ctx, id)
		if err != nil {
			return
		}
		if ev.Code != hci.EvtLEMeta || ev.SubEvent != hci.SubEvtLongTermKeyRequest {
			continue
		}
		req, ok := hci.DecodeLongTermKeyRequest(ev.Params)
		if !ok {
			continue
		}
		addr, ok := conns.peerAddr(req.Handle)
		if !ok {
			_ = host.LongTermKeyRequestNegativeReply(ctx, req.Handle)
			continue
		}
		ltk, ok := store.Load(addr)
		if !ok {
			_ = host.LongTermKeyRequestNegativeReply(ctx, req.Handle)
			log.WithField("conn", req.Handle).Info("bleperiph: no bond on file, rejecting encryption resume")
			continue
		}
		var key [16]byte
		copy(key[:], ltk)
		if err := host.LongTermKeyRequestReply(ctx, req.Handle, key); err != nil {
			log.WithError(err).WithField("conn", req.Handle).Warn("bleperiph: long term key reply failed")
		}
	}
}

// startAdvertising configures and enables legacy LE advertising with a
// flags AD structure and the complete local name.
func startAdvertising(ctx context.Context, host *hci.Host, name string) error {
	if err := host.SetAdvertisingParameters(ctx, hci.AdvParams{
		IntervalMin: 0x00A0, // 100ms
		IntervalMax: 0x00A0,
		Type:        0, // ADV_IND
		ChannelMap:  0x07,
	}); err != nil {
		return err
	}

	const adFlags = 0x06 // LE General Discoverable Mode, BR/EDR Not Supported
	data := []byte{0x02, 0x01, adFlags}
	nameAD := append([]byte{byte(len(name) + 1), 0x09}, []byte(name)...)
	data = append(data, nameAD...)
	if err := host.SetAdvertisingData(ctx, data); err != nil {
		return err
	}
	return host.SetAdvertiseEnable(ctx, true)
}
