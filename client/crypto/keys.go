/* SPDX-License-Identifier: MIT */

// Package cryptoops implements the narrow set of cryptographic primitives
// §6 lists as externally provided: ECC public-key import/export, IV/MAC
// derivation, fixed-width big-integer encoding, and the RSA proof-of-work
// solver. None of these are symmetric packet encryption — that stays with
// the out-of-scope packet codec.
package cryptoops

import "golang.org/x/crypto/chacha20poly1305"

// IVSize/MACSize size the derived session key material. The codec's AEAD is
// out of scope, but sizing these after a real cipher's key size (the way
// the reference device package sizes NoiseSymmetricKey off
// chacha20poly1305.KeySize) keeps the constants grounded rather than magic.
const (
	IVSize  = chacha20poly1305.KeySize
	MACSize = chacha20poly1305.KeySize
)

// SharedIV and SharedMAC are the two pieces of session key material
// produced by ComputeIVMAC and installed into CryptoParams.
type (
	SharedIV  [IVSize]byte
	SharedMAC [MACSize]byte
)
