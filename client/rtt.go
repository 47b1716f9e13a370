/* SPDX-License-Identifier: MIT */

package client

import (
	"sync"
	"time"
)

// RFC 6298-style smoothing constants: a resend timer needs an actual
// smoothed estimate rather than a last-handshake timestamp, so the
// standard RFC 6298 alpha/beta are used here (see DESIGN.md).
const (
	rttAlpha = 0.125
	rttBeta  = 0.25
)

// RTTEstimator tracks a smoothed round-trip time and its mean deviation,
// fed only by first-try command samples (§6, "SRTT").
type RTTEstimator struct {
	mutex sync.Mutex
	srtt  time.Duration
	rttv  time.Duration
	set   bool
}

// UpdateSRTT feeds one round-trip sample into the estimator.
func (r *RTTEstimator) UpdateSRTT(sample time.Duration) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.set {
		r.srtt = sample
		r.rttv = sample / 2
		r.set = true
		return
	}

	diff := r.srtt - sample
	if diff < 0 {
		diff = -diff
	}
	r.rttv = time.Duration((1-rttBeta)*float64(r.rttv) + rttBeta*float64(diff))
	r.srtt = time.Duration((1-rttAlpha)*float64(r.srtt) + rttAlpha*float64(sample))
}

// SRTT returns the current smoothed estimate, or zero if no sample has
// landed yet.
func (r *RTTEstimator) SRTT() time.Duration {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.srtt
}
