/* SPDX-License-Identifier: MIT */

package client

import "time"

// Protocol constants, fixed by the wire format.
const (
	// InitHeaderMAC is the literal MAC placed in the header of every Init0-4
	// packet, before any session key exists.
	InitHeaderMAC = "TS3INIT1"

	// InitPacketID is the fixed p_id used for the whole init exchange.
	InitPacketID uint16 = 0x65

	// AlphaSize/BetaSize are the lengths, in bytes, of the client and server
	// handshake nonces exchanged in clientinitiv/initivexpand.
	AlphaSize = 10
	BetaSize  = 10
)

// Implementation-specific defaults; not part of the wire format.
const (
	// DefaultPuzzleTimeout bounds how long the RSA puzzle solve may run
	// before it is treated as a Validation failure (§9 open question).
	DefaultPuzzleTimeout = 5 * time.Second

	// DefaultAutoSendClientinit is the default for Config.AutoSendClientinit:
	// engine-produced clientinit responses are not dropped.
	DefaultAutoSendClientinit = true

	// listenerQueueHint sizes the initial backing array for a connection's
	// pending-listener slice; listeners are drained and replaced every
	// transition so this is only a micro-optimization.
	listenerQueueHint = 4
)
