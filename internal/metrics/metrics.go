// Package metrics provides lightweight, lock-free counters for the
// minesweeper server: the live player count plus gameplay and error
// totals.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one server process.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	playersActive atomic.Int64
	playersTotal  atomic.Int64
	commands      atomic.Int64
	digs          atomic.Int64
	explosions    atomic.Int64
	flags         atomic.Int64
	deflags       atomic.Int64
	errorsTotal   atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Players ──────────────────────────────────────────────────────────

// PlayerJoined counts a new connection and returns the number of
// players now connected, the new player included.
func (c *Collector) PlayerJoined() int64 {
	if c == nil {
		return 0
	}
	c.playersTotal.Add(1)
	return c.playersActive.Add(1)
}

// PlayerLeft decrements the live player count.
func (c *Collector) PlayerLeft() {
	if c == nil {
		return
	}
	c.playersActive.Add(-1)
}

// Players returns the number of players currently connected.
func (c *Collector) Players() int64 {
	if c == nil {
		return 0
	}
	return c.playersActive.Load()
}

// TotalPlayers returns the lifetime connection count.
func (c *Collector) TotalPlayers() int64 {
	if c == nil {
		return 0
	}
	return c.playersTotal.Load()
}

// ── Gameplay ─────────────────────────────────────────────────────────

// Command records one line received from a client.
func (c *Collector) Command() {
	if c == nil {
		return
	}
	c.commands.Add(1)
}

// Dig records a dig and whether it detonated a bomb.
func (c *Collector) Dig(exploded bool) {
	if c == nil {
		return
	}
	c.digs.Add(1)
	if exploded {
		c.explosions.Add(1)
	}
}

// Flag records a flag command.
func (c *Collector) Flag() {
	if c == nil {
		return
	}
	c.flags.Add(1)
}

// Deflag records a deflag command.
func (c *Collector) Deflag() {
	if c == nil {
		return
	}
	c.deflags.Add(1)
}

// Explosions returns the number of bombs detonated so far.
func (c *Collector) Explosions() int64 {
	if c == nil {
		return 0
	}
	return c.explosions.Load()
}

// ── Errors ───────────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	PlayersActive    int64  `json:"players_active"`
	PlayersTotal     int64  `json:"players_total"`
	Commands         int64  `json:"commands"`
	Digs             int64  `json:"digs"`
	Explosions       int64  `json:"explosions"`
	Flags            int64  `json:"flags"`
	Deflags          int64  `json:"deflags"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:        time.Since(c.startTime).Truncate(time.Second).String(),
		PlayersActive: c.playersActive.Load(),
		PlayersTotal:  c.playersTotal.Load(),
		Commands:      c.commands.Load(),
		Digs:          c.digs.Load(),
		Explosions:    c.explosions.Load(),
		Flags:         c.flags.Load(),
		Deflags:       c.deflags.Load(),
		ErrorsTotal:   c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
