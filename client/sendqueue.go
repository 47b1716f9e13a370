/* SPDX-License-Identifier: MIT */

package client

import (
	"time"

	"github.com/PixeLInc/tsclientlib/client/packet"
)

// SendRecord is one entry of the external reliable-send queue, narrowed to
// the fields the handshake engine reads at the initserver boundary (§6).
type SendRecord struct {
	Type    packet.Type
	ID      uint16
	Tries   int
	SentAt  time.Time
}

// SendQueue is the narrow surface the engine needs from the generic
// resend/retransmission layer: drain everything, and restore what wasn't
// withdrawn. The real retransmission engine (timers, backoff) is out of
// scope (§1); this interface only exists so C6's withdrawal can be tested
// without a full resend implementation.
type SendQueue interface {
	Drain() []SendRecord
	Restore([]SendRecord)
}

// MemorySendQueue is a trivial in-memory SendQueue, used by tests; a real
// deployment passes the resend engine's own queue to NewClient instead.
type MemorySendQueue struct {
	records []SendRecord
}

func NewMemorySendQueue() *MemorySendQueue {
	return &MemorySendQueue{}
}

// Push appends a record, mirroring how the resend engine enqueues one
// record per outbound reliable packet.
func (q *MemorySendQueue) Push(r SendRecord) {
	q.records = append(q.records, r)
}

func (q *MemorySendQueue) Drain() []SendRecord {
	out := q.records
	q.records = nil
	return out
}

func (q *MemorySendQueue) Restore(records []SendRecord) {
	q.records = records
}

// withdrawClientinit removes every record matching (Command, id=1) from the
// queue, preserving the relative order of the remainder, and returns the
// withdrawn records. Multiple matches are all withdrawn (§4.4 tie-break).
func withdrawClientinit(q SendQueue) []SendRecord {
	all := q.Drain()
	var kept, withdrawn []SendRecord
	for _, r := range all {
		if r.Type == packet.TypeCommand && r.ID == 1 {
			withdrawn = append(withdrawn, r)
			continue
		}
		kept = append(kept, r)
	}
	q.Restore(kept)
	return withdrawn
}
