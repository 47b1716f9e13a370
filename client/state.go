/* SPDX-License-Identifier: MIT */

package client

import (
	cryptoops "github.com/PixeLInc/tsclientlib/client/crypto"
	"github.com/PixeLInc/tsclientlib/client/packet"
)

// StateTag names the variants of the per-connection state machine. The
// ordering below is the only legal direction of travel: a connection only
// ever moves forward along it, ending in StateDisconnected.
type StateTag int

const (
	StateInit0 StateTag = iota
	StateInit2
	StateClientInitIv
	StateConnecting
	StateConnected
	StateDisconnected
)

func (t StateTag) String() string {
	switch t {
	case StateInit0:
		return "Init0"
	case StateInit2:
		return "Init2"
	case StateClientInitIv:
		return "ClientInitIv"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// ConnectionState holds the active variant's payload as plain fields, all
// guarded by the tag: only the fields belonging to the current tag are
// meaningful, a flat struct in place of a tagged-union enum (see
// DESIGN.md).
type ConnectionState struct {
	Tag StateTag

	// Init0 payload.
	Version uint32
	Random0 [packet.Random0Size]byte

	// ClientInitIv payload.
	Alpha [AlphaSize]byte

	// Connected payload.
	CID uint16
}

// packetCounter is the (generation, id) pair the codec tracks per packet
// type, both for packets we send and packets we receive.
type packetCounter struct {
	generation uint32
	id         uint16
}

// CryptoParams is materialised once the ClientInitIv→Connecting transition
// succeeds; nil before that point, non-nil in Connecting and Connected, and
// cleared again on the transition to Disconnected.
type CryptoParams struct {
	ServerPublicKey *cryptoops.PublicKey
	IV              cryptoops.SharedIV
	MAC             cryptoops.SharedMAC
	CID             uint16

	outgoingCommand packetCounter
	incomingCommand packetCounter
	incomingAck     packetCounter
}
