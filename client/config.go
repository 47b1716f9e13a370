/* SPDX-License-Identifier: MIT */

package client

import (
	"time"

	"github.com/PixeLInc/tsclientlib/client/ratelimit"
)

// Config carries the small set of knobs the engine and client consult, a
// plain struct with a defaults constructor rather than functional options.
type Config struct {
	// AutoSendClientinit gates engine-produced clientinit responses: when
	// false, OnInbound drops a response whose first command is clientinit.
	// No transition of the engine builds a clientinit command, so the caller
	// sends clientinit itself whatever this flag says.
	AutoSendClientinit bool

	// PuzzleTimeout bounds how long the RSA puzzle solve may run before it
	// is treated as a Validation failure (§9 open question, resolved).
	PuzzleTimeout time.Duration

	// LogLevel gates the BasicLogger constructed for a Client that doesn't
	// supply its own Logger.
	LogLevel int

	// Limiter paces repeated Connect calls per peer. A nil Limiter disables
	// pacing entirely.
	Limiter *ratelimit.Limiter
}

// DefaultConfig returns a sensible default Config: AutoSendClientinit set,
// a 5 second puzzle budget, info-level logging, and an active rate limiter.
func DefaultConfig() Config {
	return Config{
		AutoSendClientinit: DefaultAutoSendClientinit,
		PuzzleTimeout:      DefaultPuzzleTimeout,
		LogLevel:           LogLevelInfo,
		Limiter:            ratelimit.New(),
	}
}
