/* SPDX-License-Identifier: MIT */

package client

import "sync/atomic"

// AtomicBool is a small boolean guarded by atomic load/store, used for the
// handful of flags (isRunning, isClosed, ...) that are read far more often
// than they are written and don't warrant a full mutex.
type AtomicBool struct {
	flag int32
}

func (a *AtomicBool) Get() bool {
	return atomic.LoadInt32(&a.flag) == 1
}

func (a *AtomicBool) Set(val bool) {
	var v int32
	if val {
		v = 1
	}
	atomic.StoreInt32(&a.flag, v)
}

func (a *AtomicBool) Swap(val bool) bool {
	var v int32
	if val {
		v = 1
	}
	return atomic.SwapInt32(&a.flag, v) == 1
}
