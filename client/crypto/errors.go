/* SPDX-License-Identifier: MIT */

package cryptoops

import "errors"

// ErrCrypto wraps any failure inside key import/export, derivation or
// puzzle solving. The client package logs these at the call site and
// reports its own ErrCrypto (errors.go) in their place.
var ErrCrypto = errors.New("cryptoops: operation failed")
