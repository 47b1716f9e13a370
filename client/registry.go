/* SPDX-License-Identifier: MIT */

package client

import "sync"

// ConnectionRegistry maps peer address to its live Connection (C1): a map
// guarded by its own sync.RWMutex, sized for read-heavy lookup traffic with
// occasional insert/delete at connect/disconnect boundaries.
type ConnectionRegistry struct {
	mutex sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionRegistry returns an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]*Connection)}
}

// Get returns the Connection for peer, if one exists.
func (r *ConnectionRegistry) Get(peer string) (*Connection, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	c, ok := r.conns[peer]
	return c, ok
}

// Insert adds conn for peer. Callers must ensure peer has no existing
// connection first (Client.Connect does, via Get).
func (r *ConnectionRegistry) Insert(peer string, conn *Connection) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.conns[peer] = conn
}

// Remove deletes peer's connection, if any.
func (r *ConnectionRegistry) Remove(peer string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.conns, peer)
}

// Len reports the number of live connections, for diagnostics/tests.
func (r *ConnectionRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.conns)
}
