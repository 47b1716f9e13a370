/* SPDX-License-Identifier: MIT */

package cryptoops

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"fmt"
)

// Curve is the NIST curve the protocol's ECDH exchange is fixed to. The
// example pack has no ASN.1-DER NIST-curve ECDH to ground against (its ECC
// code is all Curve25519 or raw secp256k1 scalars), so this file leans on
// the standard library's crypto/ecdh and crypto/x509 directly rather than
// bend an unrelated curve's library onto the wire format.
var Curve = ecdh.P256()

// PublicKey and PrivateKey wrap the stdlib ECDH types so the rest of the
// client package never imports crypto/ecdh directly.
type (
	PublicKey  = ecdh.PublicKey
	PrivateKey = ecdh.PrivateKey
)

// GenerateKeyPair produces a fresh ephemeral ECDH key pair for one
// handshake attempt. Nothing is persisted across connections.
func GenerateKeyPair() (*PrivateKey, error) {
	priv, err := Curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ecdh key: %w", err)
	}
	return priv, nil
}

// ImportECCPublicKey parses the DER-encoded SubjectPublicKeyInfo the server
// sends in initivexpand's omega argument.
func ImportECCPublicKey(der []byte) (*PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: parse pkix public key: %v", ErrCrypto, err)
	}
	ecdhPub, ok := pub.(interface{ ECDH() (*ecdh.PublicKey, error) })
	if !ok {
		return nil, fmt.Errorf("%w: public key is not an ECDSA key", ErrCrypto)
	}
	key, err := ecdhPub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("%w: convert to ecdh: %v", ErrCrypto, err)
	}
	return key, nil
}

// ExportECCPublicKey encodes a public key as DER SubjectPublicKeyInfo, the
// form the omega argument of clientinitiv carries.
func ExportECCPublicKey(pub *PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(wrapECDHPublicKey(pub))
	if err != nil {
		return nil, fmt.Errorf("%w: marshal pkix public key: %v", ErrCrypto, err)
	}
	return der, nil
}

// wrapECDHPublicKey reconstructs the ecdsa.PublicKey form x509 expects from
// an ecdh.PublicKey's uncompressed point encoding. Go's crypto/ecdh has no
// direct path back to crypto/x509, only crypto/ecdsa does.
func wrapECDHPublicKey(pub *PublicKey) *ecdsa.PublicKey {
	x, y := elliptic.Unmarshal(elliptic.P256(), pub.Bytes())
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
}

// SharedSecret runs the ECDH exchange between the client's ephemeral private
// key and the server's public key, yielding the raw shared point that feeds
// ComputeIVMAC.
func SharedSecret(priv *PrivateKey, peer *PublicKey) ([]byte, error) {
	secret, err := priv.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("%w: ecdh exchange: %v", ErrCrypto, err)
	}
	return secret, nil
}
