/* SPDX-License-Identifier: MIT */

package cryptoops

import (
	"fmt"

	"golang.org/x/crypto/blake2s"
)

// kdf1 is a single keyed-BLAKE2s extraction step, mirroring the T0/T1/T2
// chain construction a Noise-style KDF uses, with blake2s.New256 as the
// hash primitive throughout.
func kdf1(key, input []byte) ([]byte, error) {
	mac, err := blake2s.New256(key)
	if err != nil {
		return nil, fmt.Errorf("%w: new blake2s mac: %v", ErrCrypto, err)
	}
	if _, err := mac.Write(input); err != nil {
		return nil, fmt.Errorf("%w: write kdf input: %v", ErrCrypto, err)
	}
	return mac.Sum(nil), nil
}

// ComputeIVMAC derives the session IV and MAC from the ECDH shared secret
// and the client/server handshake nonces (alpha, beta): BLAKE2s keyed with
// alpha||beta over the shared secret gives T0, then the IV is T0-keyed over
// "iv" and the MAC is T0-keyed over IV||"mac".
func ComputeIVMAC(sharedSecret, alpha, beta []byte) (SharedIV, SharedMAC, error) {
	var iv SharedIV
	var mac SharedMAC

	salt := make([]byte, 0, len(alpha)+len(beta))
	salt = append(salt, alpha...)
	salt = append(salt, beta...)

	t0, err := kdf1(salt, sharedSecret)
	if err != nil {
		return iv, mac, err
	}
	t1, err := kdf1(t0, []byte("iv"))
	if err != nil {
		return iv, mac, err
	}
	t2, err := kdf1(t0, append(append([]byte{}, t1...), []byte("mac")...))
	if err != nil {
		return iv, mac, err
	}

	copy(iv[:], t1)
	copy(mac[:], t2)
	return iv, mac, nil
}
