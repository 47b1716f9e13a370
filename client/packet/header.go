/* SPDX-License-Identifier: MIT */

// Package packet shapes the handshake-relevant wire types: the Init
// exchange (Init0-4), the Command packet, and the fixed 13-byte header that
// precedes them. Framing and symmetric encryption of the payload are the
// out-of-scope packet codec's job (§1); this package only carries the
// fields the handshake engine reads and writes.
package packet

// Type identifies the nine packet types carried by a TS3-compatible UDP
// connection. Only Init and Command are produced/consumed by the handshake
// engine; the others round out the type so Header.Type is total.
type Type uint8

const (
	TypeVoice Type = iota
	TypeVoiceWhisper
	TypeCommand
	TypeCommandLow
	TypePing
	TypePong
	TypeAck
	TypeAckLow
	TypeInit
)

// MACSize is the length of the header's MAC/checksum field. Before a session
// key exists it holds the literal ASCII bytes "TS3INIT1"; afterwards it
// holds a truncated MAC computed by the (out-of-scope) symmetric codec.
const MACSize = 8

// Header is the fixed leading portion of every packet on the wire.
type Header struct {
	MAC           [MACSize]byte
	PacketID      uint16
	ClientID      uint16
	Type          Type
	Unencrypted   bool
	PacketTypeRaw uint8 // Type | (fragment/newprotocol/unencrypted flag bits), kept for codec round-tripping
}

// NewInitHeader builds the fixed header every C2SInit packet carries: the
// literal "TS3INIT1" MAC, p_id 0x65, client id 0, unencrypted.
func NewInitHeader(packetID uint16) Header {
	var h Header
	copy(h.MAC[:], "TS3INIT1")
	h.PacketID = packetID
	h.ClientID = 0
	h.Type = TypeInit
	h.Unencrypted = true
	return h
}
