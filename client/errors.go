/* SPDX-License-Identifier: MIT */

package client

import "errors"

// Sentinel errors for the handshake engine's Validation and Crypto failures
// and for the Client's entry points. Validation and Crypto errors raised
// while handling an inbound packet are logged and swallowed inside the
// engine (§7). Connect returns ErrValidation when its rate limiter refuses
// an attempt, plus ErrAlreadyConnected and ErrClosed; I/O failures from the
// sink or a done context are returned wrapped, with no sentinel of their own.
var (
	// ErrValidation covers malformed or unexpected packet content for the
	// current state: reversed-nonce mismatch, missing/invalid command
	// arguments, wrong alpha echo, wrong beta length.
	ErrValidation = errors.New("ts3init: validation error")

	// ErrCrypto covers key import and IV/MAC derivation failures.
	ErrCrypto = errors.New("ts3init: crypto error")

	// ErrNoConnection is returned by operations that require an existing
	// Connection for a peer that has none (outside of WaitForState, which
	// treats an absent connection as trivially satisfied per §4.3).
	ErrNoConnection = errors.New("ts3init: no connection for peer")

	// ErrAlreadyConnected is returned by Connect when a connection already
	// exists for the peer.
	ErrAlreadyConnected = errors.New("ts3init: connection already exists")

	// ErrClosed is returned by Client methods invoked after Close.
	ErrClosed = errors.New("ts3init: client closed")
)
