/* SPDX-License-Identifier: MIT */

package client

import (
	"context"
	"fmt"

	"github.com/PixeLInc/tsclientlib/client/packet"
	"github.com/PixeLInc/tsclientlib/client/transport"
)

// Sink is the downstream the engine and the user both write through: one
// outbound UDP frame at a time.
type Sink interface {
	Send(peer transport.Endpoint, pkt packet.Packet) error
}

// Arbiter serialises access to a single Sink between the handshake engine
// and user-originated sends (§4.2). A Go goroutine can block synchronously
// waiting for the sink, so a buffered-size-1 channel holding the Sink
// itself stands in for a poll-based park/wake dance: acquiring the channel
// value is the channel-as-token idiom, not a sync.Cond.
type Arbiter struct {
	slot chan Sink
}

// NewArbiter wraps sink in an Arbiter, starting AVAILABLE.
func NewArbiter(sink Sink) *Arbiter {
	a := &Arbiter{slot: make(chan Sink, 1)}
	a.slot <- sink
	return a
}

// Acquire blocks until the sink is available (or ctx is done), taking it.
// Every Acquire must be paired with a Release on all paths, success or
// error, per §4.2's invariant.
func (a *Arbiter) Acquire(ctx context.Context) (Sink, error) {
	select {
	case sink := <-a.slot:
		return sink, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("arbiter: acquire sink: %w", ctx.Err())
	}
}

// Release returns the sink to the arbiter, making it AVAILABLE again.
func (a *Arbiter) Release(sink Sink) {
	a.slot <- sink
}

// SendThrough acquires the sink, sends pkt to peer, and releases the sink
// on every path: the engine borrows the sink for exactly one send.
func (a *Arbiter) SendThrough(ctx context.Context, peer transport.Endpoint, pkt packet.Packet) error {
	sink, err := a.Acquire(ctx)
	if err != nil {
		return err
	}
	defer a.Release(sink)
	return sink.Send(peer, pkt)
}
