/* SPDX-License-Identifier: MIT */

package client

import (
	"crypto/rand"
	"fmt"
	"strconv"
)

// reverseBytes returns a new slice containing b's bytes in reverse order,
// used to check the Init1 random0_r echo against our own random0 (§4.1).
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// randomBytes fills b with cryptographically random data.
func randomBytes(b []byte) error {
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("%w: read random bytes: %v", ErrCrypto, err)
	}
	return nil
}

// parseUint16 parses a base-10 command argument into a uint16, the way
// aclid/clid values are carried as decimal strings on the wire.
func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
