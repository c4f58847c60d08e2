package events

import (
	"scte-signal/internal/manifest"
)

// ManifestError reports a manifest carrying the top-level error marker. It is
// fatal for the media session: callers must stop the playback engine rather
// than retry.
type ManifestError struct {
	Message string
}

func (e *ManifestError) Error() string {
	return "manifest error: " + e.Message
}

// Extract returns the SignalEvents declared by snap in event streams whose
// scheme identifier equals scheme exactly, one per id. When an id is declared
// more than once the last declaration wins, keeping the position of the
// first. Extract has no side effects.
func Extract(snap *manifest.Snapshot, scheme string) ([]SignalEvent[Raw], error) {
	evs, err := Declared(snap, scheme)
	if err != nil {
		return nil, err
	}
	return Dedupe(evs), nil
}

// Declared returns every qualifying declaration of snap in document order,
// duplicates included. Declarations with a zero duration are skipped, as are
// those whose window collapses to nothing once converted to seconds (a huge
// presentation time swallowing a short duration).
func Declared(snap *manifest.Snapshot, scheme string) ([]SignalEvent[Raw], error) {
	if snap == nil {
		return nil, nil
	}
	if snap.Error != "" {
		return nil, &ManifestError{Message: snap.Error}
	}

	var out []SignalEvent[Raw]
	for _, period := range snap.Periods {
		for _, stream := range period.EventStreams {
			if stream.SchemeIDURI != scheme || len(stream.Events) == 0 {
				continue
			}
			timescale := float64(stream.EffectiveTimescale())
			for _, ev := range stream.Events {
				if ev.Duration == 0 {
					continue
				}
				start := float64(ev.PresentationTime) / timescale
				duration := float64(ev.Duration) / timescale
				end := start + duration
				if end <= start {
					continue
				}
				out = append(out, SignalEvent[Raw]{
					ID:          ev.ID,
					WindowStart: start,
					WindowEnd:   end,
					Duration:    duration,
					Payload: Raw{
						PeriodID:    period.ID,
						SchemeIDURI: stream.SchemeIDURI,
						Timescale:   stream.EffectiveTimescale(),
						Event:       ev,
					},
				})
			}
		}
	}
	return out, nil
}

// Dedupe collapses repeated ids: the last declaration wins at the position of
// the first.
func Dedupe[P any](evs []SignalEvent[P]) []SignalEvent[P] {
	if len(evs) < 2 {
		return evs
	}
	out := make([]SignalEvent[P], 0, len(evs))
	index := make(map[string]int, len(evs))
	for _, ev := range evs {
		if i, ok := index[ev.ID]; ok {
			out[i] = ev
			continue
		}
		index[ev.ID] = len(out)
		out = append(out, ev)
	}
	return out
}
