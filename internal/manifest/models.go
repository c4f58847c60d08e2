package manifest

// Snapshot is one refresh of a streaming manifest, reduced to the parts the
// signal engine reads: periods, their event streams, and the top-level error
// marker the streaming engine sets when it could not load the manifest.
type Snapshot struct {
	// Dynamic is true for live manifests (MPD@type="dynamic").
	Dynamic bool `json:"dynamic"`
	// Duration is MPD@mediaPresentationDuration in seconds, zero when absent.
	Duration float64  `json:"duration,omitempty"`
	Error    string   `json:"error,omitempty"`
	Periods  []Period `json:"periods"`
}

// Period is a time-scoped section of the presentation.
type Period struct {
	ID           string        `json:"id,omitempty"`
	EventStreams []EventStream `json:"event_streams,omitempty"`
}

// EventStream groups in-band signaling declarations sharing a scheme.
type EventStream struct {
	SchemeIDURI string `json:"scheme_id_uri"`
	Value       string `json:"value,omitempty"`
	// Timescale is ticks per second. Zero means absent and is read as 1.
	Timescale uint64  `json:"timescale,omitempty"`
	Events    []Event `json:"events,omitempty"`
}

// Event is a raw declaration. PresentationTime and Duration are in the
// owning stream's timescale units; a zero Duration means absent.
type Event struct {
	ID               string `json:"id"`
	PresentationTime uint64 `json:"presentation_time"`
	Duration         uint64 `json:"duration,omitempty"`
	MessageData      string `json:"message_data,omitempty"`
	// Body is the element's character data (e.g. a base64 splice_info_section).
	Body string `json:"body,omitempty"`
}

// EffectiveTimescale returns the stream timescale, defaulting to 1.
func (s EventStream) EffectiveTimescale() uint64 {
	if s.Timescale == 0 {
		return 1
	}
	return s.Timescale
}
