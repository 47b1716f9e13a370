/* SPDX-License-Identifier: MIT */

package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	cryptoops "github.com/PixeLInc/tsclientlib/client/crypto"
	"github.com/PixeLInc/tsclientlib/client/packet"
)

// Engine is the single inbound-packet-driven transition function (C3): an
// explicit state-machine object in place of chained futures, so a thin
// I/O loop calls OnInbound once per inbound frame.
type Engine struct {
	cfg        Config
	log        Logger
	privateKey *cryptoops.PrivateKey
	queue      SendQueue
}

// NewEngine builds an Engine with its own ephemeral ECDH key pair.
func NewEngine(cfg Config, log Logger, queue SendQueue) (*Engine, error) {
	priv, err := cryptoops.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("client: new engine: %w", err)
	}
	return &Engine{cfg: cfg, log: log, privateKey: priv, queue: queue}, nil
}

// outcome is the result of processing one inbound packet against one
// Connection: the (possibly absent) response to emit, whether the inbound
// packet should be suppressed from downstream consumers, and whether the
// connection should be torn down after listeners are notified.
type outcome struct {
	response     *packet.Packet
	ignore       bool
	tearDown     bool
	rttSample    time.Duration
	haveRTT      bool
}

// OnInbound implements every transition in §4.1. It mutates conn's state
// under conn's own lock, fires pending listeners after the mutation (per
// §4.3, "observe the new state"), and returns the response packet (if any)
// for the caller to emit through the Arbiter, plus whether the inbound
// packet should still be forwarded to downstream consumers. The raw
// Init0-4/clientinitiv exchange and a matched initserver/notifyclientleftview
// are consumed here and never forwarded; once Connected, any packet other
// than our own notifyclientleftview is ordinary post-handshake traffic and
// passes through untouched (§5, "they see only post-handshake traffic").
func (e *Engine) OnInbound(ctx context.Context, conn *Connection, peer string, pkt packet.Packet) (response *packet.Packet, forward bool, err error) {
	conn.mutex.Lock()

	beforeTag := conn.state.Tag

	var out outcome
	switch conn.state.Tag {
	case StateInit0:
		out, err = e.handleInit0(conn, pkt)
	case StateInit2:
		out, err = e.handleInit2(ctx, conn, pkt)
	case StateClientInitIv:
		out, err = e.handleClientInitIv(conn, pkt)
	case StateConnecting:
		out, err = e.handleConnecting(conn, pkt)
	case StateConnected:
		out, err = e.handleConnected(conn, pkt)
	case StateDisconnected:
		conn.mutex.Unlock()
		e.log.Error("Got packet from server after disconnecting")
		return nil, false, nil
	}

	if err != nil {
		conn.mutex.Unlock()
		// Validation/Crypto errors are logged by the handle* methods
		// themselves and never propagated (§7); the offending packet is
		// dropped, not forwarded.
		return nil, false, nil
	}

	if out.haveRTT {
		conn.rtt.UpdateSRTT(out.rttSample)
	}
	// Listeners are only drained on an actual transition (§3, "after any
	// transition"), not on every non-error inbound: ordinary Connected-state
	// traffic and a foreign-clid notifyclientleftview mutate nothing, so
	// they must not force a spurious re-registration on pending waiters.
	var fired []listener
	if conn.state.Tag != beforeTag {
		fired = conn.fireListeners()
	}
	conn.mutex.Unlock()

	notifyListeners(fired)

	if out.response != nil && out.response.Header.Type == packet.TypeCommand {
		if first, ok := firstCommand(*out.response); ok && first.Name == "clientinit" && !e.cfg.AutoSendClientinit {
			return nil, !out.ignore, nil
		}
	}

	return out.response, !out.ignore, nil
}

func firstCommand(p packet.Packet) (packet.Command, bool) {
	cp, ok := p.Body.(packet.CommandPacket)
	if !ok {
		return packet.Command{}, false
	}
	return cp.First()
}

// handleInit0 processes the Init1 response to our Init0 (§4.1 Init0→Init2).
func (e *Engine) handleInit0(conn *Connection, pkt packet.Packet) (outcome, error) {
	init1, ok := pkt.Body.(packet.Init1)
	if !ok {
		return outcome{}, ErrValidation
	}

	reversed := reverseBytes(conn.state.Random0[:])
	if !bytes.Equal(reversed, init1.Random0R[:]) {
		e.log.Error("Init: Got wrong data in the Init1 response packet")
		return outcome{}, ErrValidation
	}

	body := packet.Init2{
		Version:  conn.state.Version,
		Random1:  init1.Random1,
		Random0R: init1.Random0R,
	}
	resp := packet.NewInitPacket(InitPacketID, body)

	conn.state = ConnectionState{Tag: StateInit2, Version: conn.state.Version}
	return outcome{response: &resp, ignore: true}, nil
}

// handleInit2 processes the Init3 puzzle challenge (§4.1 Init2→ClientInitIv).
func (e *Engine) handleInit2(ctx context.Context, conn *Connection, pkt packet.Packet) (outcome, error) {
	init3, ok := pkt.Body.(packet.Init3)
	if !ok {
		return outcome{}, ErrValidation
	}

	solveCtx, cancel := context.WithTimeout(ctx, e.cfg.PuzzleTimeout)
	defer cancel()

	start := time.Now()
	y, err := cryptoops.SolvePuzzle(solveCtx, init3.X, init3.N, init3.Level)
	if err != nil {
		e.log.Errorf("Solve RSA puzzle: %v", err)
		return outcome{}, ErrValidation
	}
	e.log.Infof("Solve RSA puzzle: level=%d took=%s", init3.Level, time.Since(start))

	yArr, err := cryptoops.BiguintToArray(y)
	if err != nil {
		e.log.Errorf("Handle udp init packet: %v", err)
		return outcome{}, ErrCrypto
	}

	omega, err := cryptoops.ExportECCPublicKey(e.privateKey.PublicKey())
	if err != nil {
		e.log.Errorf("Handle udp init packet: %v", err)
		return outcome{}, ErrCrypto
	}

	var alpha [AlphaSize]byte
	if err := randomBytes(alpha[:]); err != nil {
		return outcome{}, ErrCrypto
	}

	cmd := packet.NewCommand("clientinitiv")
	cmd.Push("alpha", base64.StdEncoding.EncodeToString(alpha[:]))
	cmd.Push("omega", base64.StdEncoding.EncodeToString(omega))
	cmd.Push("ot", "1")
	cmd.Push("ip", "")

	body := packet.Init4{
		Version: conn.state.Version,
		X:       init3.X,
		N:       init3.N,
		Level:   init3.Level,
		Random2: init3.Random2,
		Y:       yArr,
		Command: cmd,
	}
	resp := packet.NewInitPacket(InitPacketID, body)

	conn.state = ConnectionState{Tag: StateClientInitIv, Alpha: alpha}
	return outcome{response: &resp, ignore: true}, nil
}

// handleClientInitIv processes initivexpand (§4.1 ClientInitIv→Connecting).
func (e *Engine) handleClientInitIv(conn *Connection, pkt packet.Packet) (outcome, error) {
	cmdPkt, ok := pkt.Body.(packet.CommandPacket)
	if !ok {
		return outcome{}, ErrValidation
	}
	cmd, ok := cmdPkt.First()
	if !ok || cmd.Name != "initivexpand" {
		return outcome{}, ErrValidation
	}

	alphaArg, ok := cmd.Arg("alpha")
	if !ok {
		return outcome{}, ErrValidation
	}
	betaArg, ok := cmd.Arg("beta")
	if !ok {
		return outcome{}, ErrValidation
	}
	omegaArg, ok := cmd.Arg("omega")
	if !ok {
		return outcome{}, ErrValidation
	}

	decodedAlpha, err := base64.StdEncoding.DecodeString(alphaArg)
	if err != nil || !bytes.Equal(decodedAlpha, conn.state.Alpha[:]) {
		e.log.Error("Handle udp init packet: initivexpand command has wrong arguments")
		return outcome{}, ErrValidation
	}

	betaBytes, err := base64.StdEncoding.DecodeString(betaArg)
	if err != nil || len(betaBytes) != BetaSize {
		e.log.Error("Handle udp init packet: incorrect beta length")
		return outcome{}, ErrValidation
	}
	var beta [BetaSize]byte
	copy(beta[:], betaBytes)

	omegaBytes, err := base64.StdEncoding.DecodeString(omegaArg)
	if err != nil {
		e.log.Errorf("Handle udp init packet: %v", err)
		return outcome{}, ErrValidation
	}
	serverKey, err := cryptoops.ImportECCPublicKey(omegaBytes)
	if err != nil {
		e.log.Errorf("Handle udp init packet: %v", err)
		return outcome{}, ErrCrypto
	}

	shared, err := cryptoops.SharedSecret(e.privateKey, serverKey)
	if err != nil {
		e.log.Errorf("Handle udp init packet: %v", err)
		return outcome{}, ErrCrypto
	}

	iv, mac, err := cryptoops.ComputeIVMAC(shared, conn.state.Alpha[:], beta[:])
	if err != nil {
		e.log.Errorf("Handle udp init packet: %v", err)
		return outcome{}, ErrCrypto
	}

	conn.cryptoParams = &CryptoParams{
		ServerPublicKey: serverKey,
		IV:              iv,
		MAC:             mac,
		outgoingCommand: packetCounter{generation: 0, id: 1},
		incomingCommand: packetCounter{generation: 0, id: 1},
		incomingAck:     packetCounter{generation: 0, id: 1},
	}
	conn.state = ConnectionState{Tag: StateConnecting}
	return outcome{ignore: true}, nil
}

// handleConnecting processes initserver (§4.1 Connecting→Connected).
func (e *Engine) handleConnecting(conn *Connection, pkt packet.Packet) (outcome, error) {
	cmdPkt, ok := pkt.Body.(packet.CommandPacket)
	if !ok {
		return outcome{}, ErrValidation
	}
	cmd, ok := cmdPkt.First()
	if !ok || cmd.Name != "initserver" {
		return outcome{}, ErrValidation
	}
	aclidArg, ok := cmd.Arg("aclid")
	if !ok {
		return outcome{}, ErrValidation
	}

	cid, err := parseUint16(aclidArg)
	if err != nil {
		e.log.Errorf("initserver: malformed aclid %q", aclidArg)
		return outcome{}, ErrValidation
	}

	if conn.cryptoParams != nil {
		conn.cryptoParams.CID = cid
	}

	out := outcome{ignore: true}
	withdrawn := withdrawClientinit(e.queue)
	for _, rec := range withdrawn {
		if rec.Tries == 1 {
			out.rttSample = time.Since(rec.SentAt)
			out.haveRTT = true
			break
		}
	}

	conn.state = ConnectionState{Tag: StateConnected, CID: cid}
	return out, nil
}

// handleConnected processes notifyclientleftview (§4.1 Connected→Disconnected).
// Everything else — voice, acks, other commands — is ordinary post-handshake
// traffic and is passed through untouched rather than rejected: Connected is
// the terminal operating state, not another handshake stage, so there is no
// "wrong packet for this state" validation error here.
func (e *Engine) handleConnected(conn *Connection, pkt packet.Packet) (outcome, error) {
	cmdPkt, ok := pkt.Body.(packet.CommandPacket)
	if !ok {
		return outcome{}, nil
	}
	cmd, ok := cmdPkt.First()
	if !ok || cmd.Name != "notifyclientleftview" {
		return outcome{}, nil
	}
	clidArg, ok := cmd.Arg("clid")
	if !ok {
		return outcome{}, nil
	}
	clid, err := parseUint16(clidArg)
	if err != nil {
		e.log.Errorf("notifyclientleftview: malformed clid %q", clidArg)
		return outcome{}, nil
	}
	if conn.cryptoParams == nil || clid != conn.cryptoParams.CID {
		// Not our own client id: ignored, but still passed through.
		return outcome{}, nil
	}

	conn.state = ConnectionState{Tag: StateDisconnected}
	conn.cryptoParams = nil
	return outcome{ignore: true, tearDown: true}, nil
}
