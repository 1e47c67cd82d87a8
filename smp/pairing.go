package smp

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nimblebt/burble/att"
	"github.com/nimblebt/burble/crypto"
)

// ConnHandle identifies the connection a Pairing runs over. It is the
// same handle att.Bearer keys its per-connection state on: SMP and ATT
// are two fixed channels multiplexed over one ACL connection.
type ConnHandle = att.ConnHandle

// Role distinguishes which side of the pairing a Pairing represents.
type Role uint8

const (
	RoleInitiator Role = iota // the central, which sends Pairing Request
	RoleResponder             // the peripheral, which sends Pairing Response
)

// Sender is what a Pairing needs to move framed SMP PDUs over the
// fixed Security Manager channel (CID 0x0006).
type Sender interface {
	Send(ctx context.Context, connHandle ConnHandle, pdu []byte) error
}

// ErrPairingFailed is the sentinel wrapped by every failure a Pairing
// reports through its completion callback.
var ErrPairingFailed = errors.New("smp: pairing failed")

// NumericCompareFunc presents the six-digit comparison value to the
// user and reports whether they confirmed a match. Called synchronously
// from within Pairing's PDU handling (while no PDU is in flight), so an
// implementation that blocks on user input simply delays the next send.
type NumericCompareFunc func(crypto.NumCompare) bool

type state uint8

const (
	stateIdle           state = iota
	stateWaitResponse         // initiator: sent Pairing Request
	stateWaitRequest          // responder: nothing received yet
	stateWaitPublicKey        // both: own public key sent, peer's not yet seen
	stateWaitConfirm          // initiator: waiting for responder's Pairing Confirm
	stateWaitInitRandom       // responder: waiting for initiator's Pairing Random
	stateWaitRespRandom       // initiator: waiting for responder's Pairing Random
	stateWaitDHKeyCheck       // either: own check sent, peer's not yet seen
	stateDone
	stateFailed
)

// Pairing drives one LE Secure Connections pairing session to
// completion, consuming exactly the crypto.F4/F5/F6/G2/ECDH primitives
// ([Vol 3] Part H, Section 2.3.5.6). State mutation happens under mu;
// the actual PDU writes and the completion callback both happen after
// releasing it, so a Sender that re-enters Deliver synchronously (as a
// loopback/test harness does) never deadlocks against itself.
type Pairing struct {
	connHandle ConnHandle
	role       Role
	sender     Sender
	log        *logrus.Entry

	initiatorAddr, responderAddr crypto.Addr

	onNumericCompare NumericCompareFunc
	onComplete       func(crypto.LTK, error)

	mu       sync.Mutex
	state    state
	notified bool
	model    associationModel
	local    PairingFeatures
	peer     PairingFeatures

	keys       *crypto.KeyPair
	peerPublic crypto.PublicXY
	dh         crypto.DHKey

	localNonce  crypto.Nonce
	peerNonce   crypto.Nonce
	peerConfirm crypto.Confirm

	macKey crypto.MacKey
	ltk    crypto.LTK

	completionErr error
}

// NewInitiator creates a Pairing acting as the central, which begins
// the exchange as soon as Start is called.
func NewInitiator(connHandle ConnHandle, sender Sender, local PairingFeatures, localAddr, peerAddr crypto.Addr, log *logrus.Entry) *Pairing {
	p := newPairing(connHandle, RoleInitiator, sender, local, log)
	p.initiatorAddr, p.responderAddr = localAddr, peerAddr
	p.state = stateIdle
	return p
}

// NewResponder creates a Pairing acting as the peripheral, which waits
// for the initiator's Pairing Request before doing anything.
func NewResponder(connHandle ConnHandle, sender Sender, local PairingFeatures, localAddr, peerAddr crypto.Addr, log *logrus.Entry) *Pairing {
	p := newPairing(connHandle, RoleResponder, sender, local, log)
	p.initiatorAddr, p.responderAddr = peerAddr, localAddr
	p.state = stateWaitRequest
	return p
}

func newPairing(connHandle ConnHandle, role Role, sender Sender, local PairingFeatures, log *logrus.Entry) *Pairing {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pairing{
		connHandle: connHandle,
		role:       role,
		sender:     sender,
		log:        log.WithField("conn", connHandle),
		local:      local,
	}
}

// OnNumericCompare registers the callback used when feature
// negotiation selects Numeric Comparison. Must be set before Start (or
// before the peer's Pairing Request arrives, for a responder) if the
// local IO capability can ever select that model.
func (p *Pairing) OnNumericCompare(f NumericCompareFunc) { p.onNumericCompare = f }

// OnComplete registers the callback invoked exactly once, with either
// the negotiated LTK or a non-nil error wrapping ErrPairingFailed.
func (p *Pairing) OnComplete(f func(crypto.LTK, error)) { p.onComplete = f }

// Start sends the initial Pairing Request. Valid only for a Pairing
// created with NewInitiator.
func (p *Pairing) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.role != RoleInitiator || p.state != stateIdle {
		p.mu.Unlock()
		return errors.Wrap(ErrPairingFailed, "smp: Start called out of sequence")
	}
	p.state = stateWaitResponse
	pdu := p.local.encode(CodePairingRequest)
	p.mu.Unlock()
	return p.send(ctx, pdu)
}

// Deliver feeds one inbound SMP PDU (sans the L2CAP header) to the
// pairing state machine, sending any reply PDUs it produces and
// invoking OnComplete's callback if this PDU concludes the pairing.
func (p *Pairing) Deliver(ctx context.Context, pdu []byte) error {
	if len(pdu) == 0 {
		return nil
	}
	code, body := Code(pdu[0]), pdu[1:]

	p.mu.Lock()
	if code == CodePairingFailed {
		p.failLocked(errors.Errorf("smp: peer aborted pairing: reason %#x", body))
		p.mu.Unlock()
		p.notify()
		return nil
	}
	var out [][]byte
	err := p.handle(code, body, &out)
	var failPDU []byte
	if err != nil {
		failPDU = encodePairingFailed(failureReason(err))
		p.failLocked(err)
	}
	p.mu.Unlock()

	for _, reply := range out {
		if sendErr := p.send(ctx, reply); sendErr != nil {
			return sendErr
		}
	}
	if failPDU != nil {
		_ = p.send(ctx, failPDU)
	}
	p.notify()
	return nil
}

func failureReason(err error) Reason {
	if errors.Is(err, ErrPairingFailed) {
		return ReasonConfirmValueFailed
	}
	return ReasonUnspecifiedReason
}

// notify invokes onComplete exactly once, if the pairing has reached a
// terminal state since the last call.
func (p *Pairing) notify() {
	p.mu.Lock()
	if p.notified || (p.state != stateDone && p.state != stateFailed) {
		p.mu.Unlock()
		return
	}
	p.notified = true
	ltk, err := p.ltk, p.completionErr
	p.mu.Unlock()
	if p.onComplete != nil {
		p.onComplete(ltk, err)
	}
}

func (p *Pairing) handle(code Code, body []byte, out *[][]byte) error {
	switch p.state {
	case stateWaitRequest:
		return p.onPairingRequest(code, body, out)
	case stateWaitResponse:
		return p.onPairingResponse(code, body, out)
	case stateWaitPublicKey:
		return p.onPublicKey(code, body, out)
	case stateWaitConfirm:
		return p.onConfirm(code, body, out)
	case stateWaitInitRandom:
		return p.onInitiatorRandom(code, body, out)
	case stateWaitRespRandom:
		return p.onResponderRandom(code, body, out)
	case stateWaitDHKeyCheck:
		return p.onDHKeyCheck(code, body)
	default:
		return errors.Errorf("smp: PDU %#x received in state %d", code, p.state)
	}
}

func (p *Pairing) onPairingRequest(code Code, body []byte, out *[][]byte) error {
	if code != CodePairingRequest {
		return errors.Errorf("smp: expected Pairing Request, got %#x", code)
	}
	req, ok := decodePairingFeatures(body)
	if !ok {
		return errors.New("smp: malformed Pairing Request")
	}
	p.peer = req
	p.model = selectAssociationModel(p.peer, p.local)
	if p.model == modelPasskeyEntry || p.model == modelOutOfBand {
		return errors.New("smp: negotiated association model is not supported")
	}
	*out = append(*out, p.local.encode(CodePairingResponse))

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return errors.Wrap(err, "smp: generate key pair")
	}
	p.keys = kp
	p.state = stateWaitPublicKey
	*out = append(*out, encodePublicKey(kp.Public))
	return nil
}

func (p *Pairing) onPairingResponse(code Code, body []byte, out *[][]byte) error {
	if code != CodePairingResponse {
		return errors.Errorf("smp: expected Pairing Response, got %#x", code)
	}
	resp, ok := decodePairingFeatures(body)
	if !ok {
		return errors.New("smp: malformed Pairing Response")
	}
	p.peer = resp
	p.model = selectAssociationModel(p.local, p.peer)
	if p.model == modelPasskeyEntry || p.model == modelOutOfBand {
		return errors.New("smp: negotiated association model is not supported")
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return errors.Wrap(err, "smp: generate key pair")
	}
	p.keys = kp
	p.state = stateWaitPublicKey
	*out = append(*out, encodePublicKey(kp.Public))
	return nil
}

func (p *Pairing) onPublicKey(code Code, body []byte, out *[][]byte) error {
	if code != CodePublicKey {
		return errors.Errorf("smp: expected Public Key, got %#x", code)
	}
	pk, ok := decodePublicKey(body)
	if !ok {
		return errors.New("smp: malformed Public Key")
	}
	p.peerPublic = pk
	dh, err := p.keys.ECDH(pk)
	if err != nil {
		return errors.Wrap(err, "smp: ECDH")
	}
	p.dh = crypto.DHKey(dh)

	if p.role == RoleResponder {
		p.localNonce = crypto.NewNonce()
		// Cb = f4(PKbx, PKax, Nb, 0): own key first, peer's second.
		cb := p.localNonce.F4(p.responderPubX(), p.initiatorPubX(), 0)
		p.state = stateWaitInitRandom
		*out = append(*out, encodeConfirm(cb))
		return nil
	}
	p.state = stateWaitConfirm
	return nil
}

func (p *Pairing) onConfirm(code Code, body []byte, out *[][]byte) error {
	if code != CodePairingConfirm {
		return errors.Errorf("smp: expected Pairing Confirm, got %#x", code)
	}
	c, ok := decodeConfirm(body)
	if !ok {
		return errors.New("smp: malformed Pairing Confirm")
	}
	p.peerConfirm = c
	p.localNonce = crypto.NewNonce()
	p.state = stateWaitRespRandom
	*out = append(*out, encodeRandom(p.localNonce))
	return nil
}

func (p *Pairing) onInitiatorRandom(code Code, body []byte, out *[][]byte) error {
	if code != CodePairingRandom {
		return errors.Errorf("smp: expected Pairing Random, got %#x", code)
	}
	na, ok := decodeRandom(body)
	if !ok {
		return errors.New("smp: malformed Pairing Random")
	}
	p.peerNonce = na // initiator's nonce, seen by the responder
	*out = append(*out, encodeRandom(p.localNonce))
	if err := p.checkNumericCompare(p.peerNonce, p.localNonce); err != nil {
		return err
	}
	return p.computeKeysAndSendCheck(out)
}

func (p *Pairing) onResponderRandom(code Code, body []byte, out *[][]byte) error {
	if code != CodePairingRandom {
		return errors.Errorf("smp: expected Pairing Random, got %#x", code)
	}
	nb, ok := decodeRandom(body)
	if !ok {
		return errors.New("smp: malformed Pairing Random")
	}
	expect := nb.F4(p.responderPubX(), p.initiatorPubX(), 0)
	if !expect.Equal(p.peerConfirm) {
		return errors.Wrap(ErrPairingFailed, "smp: Pairing Confirm check failed")
	}
	p.peerNonce = nb // responder's nonce, seen by the initiator
	if err := p.checkNumericCompare(p.localNonce, p.peerNonce); err != nil {
		return err
	}
	return p.computeKeysAndSendCheck(out)
}

// checkNumericCompare computes g2 from the initiator's view (na, nb in
// initiator/responder order) and runs the user-confirmation callback,
// if the negotiated model requires it.
func (p *Pairing) checkNumericCompare(na, nb crypto.Nonce) error {
	if p.model != modelNumericComparison {
		return nil
	}
	code := na.G2(nb, p.initiatorPubX(), p.responderPubX())
	if p.onNumericCompare == nil {
		return errors.New("smp: numeric comparison required but no callback registered")
	}
	if !p.onNumericCompare(code) {
		return errors.Wrap(ErrPairingFailed, "smp: user rejected numeric comparison")
	}
	return nil
}

func (p *Pairing) computeKeysAndSendCheck(out *[][]byte) error {
	var na, nb crypto.Nonce
	if p.role == RoleInitiator {
		na, nb = p.localNonce, p.peerNonce
	} else {
		na, nb = p.peerNonce, p.localNonce
	}
	mk, ltk := crypto.F5(p.dh, na, nb, p.initiatorAddr, p.responderAddr)
	p.macKey, p.ltk = mk, ltk

	ioA := p.ioCap(p.initiatorFeatures())
	ioB := p.ioCap(p.responderFeatures())
	var r [16]byte // ra = rb = 0 for Just Works / Numeric Comparison

	var ownCheck crypto.Check
	if p.role == RoleInitiator {
		ownCheck = crypto.F6(p.macKey, na, nb, r, ioA, p.initiatorAddr, p.responderAddr)
	} else {
		ownCheck = crypto.F6(p.macKey, nb, na, r, ioB, p.responderAddr, p.initiatorAddr)
	}
	p.state = stateWaitDHKeyCheck
	*out = append(*out, encodeDHKeyCheck(ownCheck))
	return nil
}

func (p *Pairing) onDHKeyCheck(code Code, body []byte) error {
	if code != CodeDHKeyCheck {
		return errors.Errorf("smp: expected DHKey Check, got %#x", code)
	}
	peerCheck, ok := decodeDHKeyCheck(body)
	if !ok {
		return errors.New("smp: malformed DHKey Check")
	}
	var na, nb crypto.Nonce
	if p.role == RoleInitiator {
		na, nb = p.localNonce, p.peerNonce
	} else {
		na, nb = p.peerNonce, p.localNonce
	}
	var r [16]byte
	ioA := p.ioCap(p.initiatorFeatures())
	ioB := p.ioCap(p.responderFeatures())

	var expect crypto.Check
	if p.role == RoleInitiator {
		expect = crypto.F6(p.macKey, nb, na, r, ioB, p.responderAddr, p.initiatorAddr)
	} else {
		expect = crypto.F6(p.macKey, na, nb, r, ioA, p.initiatorAddr, p.responderAddr)
	}
	if !expect.Equal(peerCheck) {
		return errors.Wrap(ErrPairingFailed, "smp: DHKey Check failed")
	}
	p.state = stateDone
	return nil
}

func (p *Pairing) ioCap(f PairingFeatures) crypto.IoCap {
	return crypto.NewIoCap(uint8(f.AuthReq), f.OOBDataPresent, uint8(f.IOCap))
}

func (p *Pairing) initiatorFeatures() PairingFeatures {
	if p.role == RoleInitiator {
		return p.local
	}
	return p.peer
}

func (p *Pairing) responderFeatures() PairingFeatures {
	if p.role == RoleResponder {
		return p.local
	}
	return p.peer
}

func (p *Pairing) initiatorPubX() crypto.PublicKeyX {
	if p.role == RoleInitiator {
		return publicX(p.keys.Public)
	}
	return publicX(p.peerPublic)
}

func (p *Pairing) responderPubX() crypto.PublicKeyX {
	if p.role == RoleResponder {
		return publicX(p.keys.Public)
	}
	return publicX(p.peerPublic)
}

func publicX(pk crypto.PublicXY) crypto.PublicKeyX {
	var x crypto.PublicKeyX
	copy(x[:], pk[:32])
	return x
}

func (p *Pairing) send(ctx context.Context, pdu []byte) error {
	if err := p.sender.Send(ctx, p.connHandle, pdu); err != nil {
		return errors.Wrap(err, "smp: send")
	}
	return nil
}

// failLocked records cause as the terminal outcome. Caller must hold mu.
func (p *Pairing) failLocked(cause error) {
	if p.state == stateDone || p.state == stateFailed {
		return
	}
	p.state = stateFailed
	p.completionErr = errors.Wrap(ErrPairingFailed, cause.Error())
}

// Done reports whether the pairing has reached a terminal state.
func (p *Pairing) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateDone || p.state == stateFailed
}
