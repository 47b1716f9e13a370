/* SPDX-License-Identifier: MIT */

package packet

import "math/big"

// Init0 is the first client-to-server init packet: a timestamp doubling as
// a protocol version, and a random challenge the server must echo reversed.
type Init0 struct {
	Version   uint32
	Timestamp uint32
	Random0   [Random0Size]byte
}

// Random0Size is the length of the Init0 challenge nonce, mirrored here so
// callers need only import this package for wire-shape constants.
const Random0Size = 4

// Init1 is the server's response to Init0: a fresh random value for the
// client to fold into Init2, and the client's Random0 reversed byte-for-byte.
type Init1 struct {
	Random1  [16]byte
	Random0R [Random0Size]byte
}

// Init2 is the client's acknowledgement of Init1, echoing Random1 and the
// reversed Random0 back to the server.
type Init2 struct {
	Version  uint32
	Random1  [16]byte
	Random0R [Random0Size]byte
}

// Init3 carries the RSA proof-of-work puzzle: solve y = x^(2^Level) mod N.
type Init3 struct {
	X       *big.Int
	N       *big.Int
	Level   uint32
	Random2 [100]byte
}

// Init4 answers Init3 with the solved puzzle and piggy-backs the
// clientinitiv command that starts the ECDH key exchange.
type Init4 struct {
	Version uint32
	X       *big.Int
	N       *big.Int
	Level   uint32
	Random2 [100]byte
	Y       [PuzzleWidth]byte
	Command Command
}

// PuzzleWidth is the fixed width biguint_to_array encodes x, n and y into.
const PuzzleWidth = 64
