/* SPDX-License-Identifier: MIT */

// Package client implements the client-side handshake and connection state
// machine of a UDP voice-protocol client: the four-packet init exchange,
// RSA proof-of-work, ECDH-derived session keys, single-writer sink
// arbitration, state-change notification, and reconciliation with a
// generic reliable-send queue.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/PixeLInc/tsclientlib/client/packet"
	"github.com/PixeLInc/tsclientlib/client/transport"
)

// Client is the public entry point (C7): it owns the connection registry,
// the handshake engine, and the sink arbiter, and exposes Connect,
// WaitForState and WaitUntilConnected.
type Client struct {
	cfg      Config
	log      Logger
	registry *ConnectionRegistry
	engine   *Engine
	arbiter  *Arbiter
	closed   AtomicBool
}

// NewClient wires a Client around the given Sink (the out-of-scope packet
// codec's outbound half) and SendQueue (the out-of-scope resend engine's
// queue). A nil Logger falls back to a BasicLogger at cfg.LogLevel.
func NewClient(cfg Config, log Logger, sink Sink, queue SendQueue) (*Client, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, "")
	}
	engine, err := NewEngine(cfg, log, queue)
	if err != nil {
		return nil, fmt.Errorf("client: new client: %w", err)
	}
	return &Client{
		cfg:      cfg,
		log:      log,
		registry: NewConnectionRegistry(),
		engine:   engine,
		arbiter:  NewArbiter(sink),
	}, nil
}

// Connect installs a Connection for peer in state Init0, sends the Init0
// packet, and resolves once the state reaches Connecting (§4.1). The
// caller is then responsible for sending clientinit and calling
// WaitUntilConnected; the engine never sends clientinit on its own.
func (c *Client) Connect(ctx context.Context, peer transport.Endpoint) error {
	if c.closed.Get() {
		return ErrClosed
	}
	key := peer.String()
	if c.cfg.Limiter != nil && !c.cfg.Limiter.Allow(key) {
		return fmt.Errorf("%w: rate limited", ErrValidation)
	}
	if _, exists := c.registry.Get(key); exists {
		return ErrAlreadyConnected
	}

	version := uint32(time.Now().Unix())
	var random0 [4]byte
	if err := randomBytes(random0[:]); err != nil {
		return err
	}

	conn := newConnection(version, random0)
	// Install before emitting so the response cannot race the registry
	// insert (§4.1).
	c.registry.Insert(key, conn)

	body := packet.Init0{Version: version, Timestamp: version, Random0: random0}
	initPkt := packet.NewInitPacket(InitPacketID, body)

	if err := c.arbiter.SendThrough(ctx, peer, initPkt); err != nil {
		c.registry.Remove(key)
		return fmt.Errorf("client: connect: send init0: %w", err)
	}

	return c.WaitForState(ctx, key, func(t StateTag) bool { return t >= StateConnecting })
}

// HandleInbound is the thin I/O loop's single call site: it looks up the
// Connection for peer, drives it through the Engine, emits any response
// packet through the Arbiter, and reports whether the caller's codec
// stream should still yield pkt to downstream consumers (false for every
// handshake packet, per §5 — "Downstream consumers therefore never see
// init-exchange packets").
func (c *Client) HandleInbound(ctx context.Context, peer transport.Endpoint, pkt packet.Packet) (forward bool, err error) {
	if c.closed.Get() {
		return false, ErrClosed
	}
	key := peer.String()
	conn, ok := c.registry.Get(key)
	if !ok {
		return true, nil
	}

	resp, forward, err := c.engine.OnInbound(ctx, conn, key, pkt)
	if err != nil {
		return false, err
	}

	if conn.State() == StateDisconnected {
		defer c.registry.Remove(key)
	}

	if resp != nil {
		if err := c.arbiter.SendThrough(ctx, peer, *resp); err != nil {
			return false, fmt.Errorf("client: handle inbound: send response: %w", err)
		}
	}

	return forward, nil
}

// State reports the current handshake state of peer's connection, or
// ErrNoConnection if no connection (live or torn down) exists for it.
func (c *Client) State(peer transport.Endpoint) (StateTag, error) {
	conn, ok := c.registry.Get(peer.String())
	if !ok {
		return 0, ErrNoConnection
	}
	return conn.State(), nil
}

// SRTT reports peer's connection's current smoothed round-trip estimate, or
// ErrNoConnection if no connection exists for it. The estimate is zero until
// C6 feeds the first clientinit/initserver sample.
func (c *Client) SRTT(peer transport.Endpoint) (time.Duration, error) {
	conn, ok := c.registry.Get(peer.String())
	if !ok {
		return 0, ErrNoConnection
	}
	return conn.RTT().SRTT(), nil
}

// Close marks the Client closed — further Connect/HandleInbound calls fail
// with ErrClosed — and releases resources it owns (currently just the rate
// limiter's background goroutine, if configured). Close is idempotent.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.cfg.Limiter != nil {
		c.cfg.Limiter.Close()
	}
	return nil
}
