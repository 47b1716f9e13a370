/* SPDX-License-Identifier: MIT */

package cryptoops

import (
	"context"
	"fmt"
	"math/big"
)

// ArrayWidth is the fixed byte width x, n and y are encoded into on the
// wire (packet.PuzzleWidth mirrors this for callers that only need the
// packet package).
const ArrayWidth = 64

// SolvePuzzle computes y = x^(2^level) mod n by repeated squaring, the
// proof-of-work the server's Init3 packet demands, answered by the client's
// Init4. level commonly runs into the low millions, so the loop is the
// only primitive that can take meaningfully long in the handshake and is
// the one place a context deadline matters.
func SolvePuzzle(ctx context.Context, x, n *big.Int, level uint32) (*big.Int, error) {
	y := new(big.Int).Set(x)
	y.Mod(y, n)

	for i := uint32(0); i < level; i++ {
		if i%(1<<14) == 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: puzzle solve: %v", ErrCrypto, ctx.Err())
			default:
			}
		}
		y.Mul(y, y)
		y.Mod(y, n)
	}
	return y, nil
}

// BiguintToArray encodes v as a fixed-width big-endian byte array, zero
// padded on the left, the way the wire format fixes x/n/y at ArrayWidth
// bytes regardless of their significant length.
func BiguintToArray(v *big.Int) ([ArrayWidth]byte, error) {
	var out [ArrayWidth]byte
	b := v.Bytes()
	if len(b) > ArrayWidth {
		return out, fmt.Errorf("%w: value does not fit in %d bytes", ErrCrypto, ArrayWidth)
	}
	copy(out[ArrayWidth-len(b):], b)
	return out, nil
}

// ArrayToBiguint reverses BiguintToArray.
func ArrayToBiguint(arr [ArrayWidth]byte) *big.Int {
	return new(big.Int).SetBytes(arr[:])
}
