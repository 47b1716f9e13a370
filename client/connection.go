/* SPDX-License-Identifier: MIT */

package client

import "sync"

// Connection owns everything C2 specifies for one peer: the state machine
// variant, pending one-shot listeners, negotiated crypto parameters (once
// negotiated) and the RTT estimator, all under one mutex — a flat
// "struct { sync.Mutex; ... }" shape rather than separate locks per field,
// since every field here changes together on a transition.
type Connection struct {
	mutex sync.Mutex

	state        ConnectionState
	listeners    []listener
	cryptoParams *CryptoParams
	rtt          RTTEstimator
}

// newConnection builds a Connection already in StateInit0, the state
// Client.Connect installs synchronously before the Init0 packet is sent
// (§4.1, "install the Connection with state Init0 before emitting").
func newConnection(version uint32, random0 [4]byte) *Connection {
	return &Connection{
		state: ConnectionState{
			Tag:     StateInit0,
			Version: version,
			Random0: random0,
		},
		listeners: make([]listener, 0, listenerQueueHint),
	}
}

// State returns a snapshot of the current state tag.
func (c *Connection) State() StateTag {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.Tag
}

// CryptoParams returns a snapshot of the current crypto parameters, if any
// have been negotiated yet (invariant: present iff Tag ∈ {Connecting,
// Connected}).
func (c *Connection) CryptoParams() (CryptoParams, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.cryptoParams == nil {
		return CryptoParams{}, false
	}
	return *c.cryptoParams, true
}

// RTT returns the connection's RTT estimator.
func (c *Connection) RTT() *RTTEstimator {
	return &c.rtt
}
