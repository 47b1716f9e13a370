/* SPDX-License-Identifier: MIT */

package packet

// Body is implemented by every payload type the handshake engine reads or
// writes: the C2SInit/S2CInit variants and CommandPacket. Its only method is
// the unexported marker isBody, which makes Packet.Body a closed sum type,
// the way the reference client's `packets::Data` enum does.
type Body interface {
	isBody()
}

func (Init0) isBody()         {}
func (Init1) isBody()         {}
func (Init2) isBody()         {}
func (Init3) isBody()         {}
func (Init4) isBody()         {}
func (CommandPacket) isBody() {}

// Packet pairs a Header with one of the Body variants above.
type Packet struct {
	Header Header
	Body   Body
}

// NewInitPacket builds a Packet with the fixed init header for the given
// C2SInit body.
func NewInitPacket(packetID uint16, body Body) Packet {
	return Packet{Header: NewInitHeader(packetID), Body: body}
}
