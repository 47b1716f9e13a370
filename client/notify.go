/* SPDX-License-Identifier: MIT */

package client

import (
	"context"
	"fmt"
)

// listener is a one-shot channel fired after a transition has already
// mutated the state, a Go channel standing in for a one-shot future.
type listener chan struct{}

// addListener appends a one-shot listener to c's pending list. Callers must
// hold c's mutex.
func (c *Connection) addListener() listener {
	ch := make(listener, 1)
	c.listeners = append(c.listeners, ch)
	return ch
}

// fireListeners drains and replaces c's listener list, returning the old
// list for notifyListeners to close in insertion order, per §4.3 ("drained
// once, in insertion order; the previous list is replaced by an empty list
// before the callbacks run"). Callers must hold c's mutex only long enough
// to swap the slice; the close() calls themselves happen outside the lock so
// a blocked listener never holds up the state machine.
func (c *Connection) fireListeners() []listener {
	fired := c.listeners
	c.listeners = make([]listener, 0, listenerQueueHint)
	return fired
}

// notifyListeners closes every listener channel in fired, in order, waking
// every WaitForState caller blocked on one. Closing rather than sending
// means a listener whose receiver has already gone away is still fired
// without blocking (§5, "fired regardless; the send-half failing is not
// propagated as a fatal error").
func notifyListeners(fired []listener) {
	for _, ch := range fired {
		close(ch)
	}
}

// WaitForState blocks until peer's connection satisfies pred or peer has no
// connection at all (treated as trivially satisfied per §4.3), returning
// nil, or until ctx is done, returning ctx's error.
func (c *Client) WaitForState(ctx context.Context, peer string, pred func(StateTag) bool) error {
	for {
		conn, ok := c.registry.Get(peer)
		if !ok {
			return nil
		}

		conn.mutex.Lock()
		if pred(conn.state.Tag) {
			conn.mutex.Unlock()
			return nil
		}
		ch := conn.addListener()
		conn.mutex.Unlock()

		select {
		case <-ch:
			// loop: re-evaluate against the now-current state.
		case <-ctx.Done():
			return fmt.Errorf("client: wait for state: %w", ctx.Err())
		}
	}
}

// WaitUntilConnected waits for peer's connection to reach StateConnected.
func (c *Client) WaitUntilConnected(ctx context.Context, peer string) error {
	return c.WaitForState(ctx, peer, func(t StateTag) bool { return t == StateConnected })
}
