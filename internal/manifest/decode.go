package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"

	m "github.com/Eyevinn/dash-mpd/mpd"
)

// ErrUnsupportedContentType is returned by Decode for bodies that are neither
// MPD XML nor a JSON snapshot.
var ErrUnsupportedContentType = errors.New("unsupported manifest content type")

// mpdDynamic is the MPD@type value of live presentations.
const mpdDynamic = "dynamic"

// Decode turns a manifest body into a Snapshot. XML bodies are read as MPD
// documents (see DecodeMPD); JSON bodies as a Snapshot envelope. An empty
// content type is sniffed from the first non-space byte.
func Decode(contentType string, body []byte) (*Snapshot, error) {
	if contentType == "" {
		if t := bytes.TrimSpace(body); len(t) > 0 && t[0] == '<' {
			return DecodeMPD(body), nil
		}
		return DecodeJSON(body)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	switch {
	case mt == "application/json":
		return DecodeJSON(body)
	case strings.HasSuffix(mt, "xml"):
		return DecodeMPD(body), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, mt)
	}
}

// DecodeJSON decodes a JSON Snapshot envelope.
func DecodeJSON(body []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decode manifest snapshot: %w", err)
	}
	return &snap, nil
}

// DecodeMPD parses an MPD document. It never fails: a document that cannot be
// parsed yields a Snapshot carrying the error marker, the same way a player's
// streaming engine reports a broken manifest refresh.
func DecodeMPD(body []byte) *Snapshot {
	doc, err := m.ReadFromString(string(body))
	if err != nil {
		return &Snapshot{Error: "manifest parse failed: " + err.Error()}
	}

	snap := &Snapshot{
		Dynamic: doc.Type != nil && *doc.Type == mpdDynamic,
		Periods: make([]Period, 0, len(doc.Periods)),
	}
	if doc.MediaPresentationDuration != nil {
		snap.Duration = time.Duration(*doc.MediaPresentationDuration).Seconds()
	}
	for _, p := range doc.Periods {
		if p == nil {
			continue
		}
		period := Period{ID: p.Id}
		for _, es := range p.EventStreams {
			if es == nil {
				continue
			}
			stream := EventStream{
				SchemeIDURI: string(es.SchemeIdUri),
				Value:       es.Value,
				Events:      make([]Event, 0, len(es.Events)),
			}
			if es.Timescale != nil {
				stream.Timescale = uint64(*es.Timescale)
			}
			for _, ev := range es.Events {
				if ev == nil {
					continue
				}
				stream.Events = append(stream.Events, Event{
					ID:               strconv.FormatUint(uint64(ev.Id), 10),
					PresentationTime: ev.PresentationTime,
					Duration:         ev.Duration,
					MessageData:      ev.MessageData,
					Body:             strings.TrimSpace(ev.Value),
				})
			}
			period.EventStreams = append(period.EventStreams, stream)
		}
		snap.Periods = append(snap.Periods, period)
	}
	return snap
}
