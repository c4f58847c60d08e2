package events

import "scte-signal/internal/manifest"

// DefaultScheme is the SCTE-35 XML event stream scheme recognized when none is
// configured.
const DefaultScheme = "urn:scte:scte35:2014:xml"

// SignalEvent is one time-scoped in-band signaling marker, normalized to the
// playback time domain (seconds). Payload is passed through uninterpreted.
type SignalEvent[P any] struct {
	ID          string  `json:"id"`
	WindowStart float64 `json:"window_start"`
	WindowEnd   float64 `json:"window_end"`
	Duration    float64 `json:"duration"`
	Payload     P       `json:"payload"`
}

// Raw is the payload the extractor attaches to every SignalEvent: the raw
// declaration together with the stream context it was declared in.
type Raw struct {
	PeriodID    string         `json:"period_id,omitempty"`
	SchemeIDURI string         `json:"scheme_id_uri"`
	Timescale   uint64         `json:"timescale"`
	Event       manifest.Event `json:"event"`
}
