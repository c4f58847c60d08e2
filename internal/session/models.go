package session

import (
	"scte-signal/internal/events"
	"scte-signal/internal/manifest"
)

// ID uniquely identifies a media session.
type ID string

// Fired is the "signal entered window" notification. Remaining is the time
// left in the window at the tick that fired it.
type Fired struct {
	events.SignalEvent[events.Raw]
	Remaining float64 `json:"remaining"`
}

// Declaration is the raw "event stream declaration observed" feed, emitted
// once per manifest update for every qualifying declaration regardless of
// playback position. A snapshot declaring an id twice yields two.
type Declaration struct {
	EventID   string         `json:"id"`
	Duration  float64        `json:"duration"`
	Timescale uint64         `json:"timescale"`
	Event     manifest.Event `json:"event"`
}

// ManifestResult summarizes one manifest update.
type ManifestResult struct {
	Declared int  `json:"declared"`
	Pruned   int  `json:"pruned"`
	Live     bool `json:"live"`
}

// State is a point-in-time view of a session for inspection.
type State struct {
	ID           ID      `json:"session_id"`
	Scheme       string  `json:"scheme"`
	PlaybackTime float64 `json:"playback_time"`
	Live         bool    `json:"live"`
	// Duration is the presentation duration in seconds, null when unbounded.
	Duration *float64 `json:"duration"`
	Failed   string   `json:"failed,omitempty"`
	Pending  []string `json:"pending"`
	Fired    []string `json:"fired"`
}
