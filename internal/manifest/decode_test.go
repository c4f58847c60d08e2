package manifest

import (
	"errors"
	"strings"
	"testing"
)

const liveMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="dynamic" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <Period id="p0" start="PT0S">
    <EventStream schemeIdUri="urn:scte:scte35:2014:xml" timescale="90000">
      <Event presentationTime="450000" duration="2700000" id="11">
        /DAlAAAAAAAAAP/wFAUAAAABf+/+AAAAAH4AKTLgAAEAAAAAXjWdfQ==
      </Event>
      <Event presentationTime="900000" id="12"/>
    </EventStream>
    <EventStream schemeIdUri="urn:example:other">
      <Event presentationTime="1" duration="1" id="7" messageData="hello"/>
    </EventStream>
  </Period>
</MPD>`

const vodMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT1M30.5S">
  <Period id="p0"/>
</MPD>`

func TestDecodeMPD(t *testing.T) {
	snap := DecodeMPD([]byte(liveMPD))
	if snap.Error != "" {
		t.Fatalf("unexpected error marker: %s", snap.Error)
	}
	if !snap.Dynamic {
		t.Error("expected dynamic manifest")
	}
	if snap.Duration != 0 {
		t.Errorf("live manifest without mediaPresentationDuration: duration = %v", snap.Duration)
	}
	if len(snap.Periods) != 1 || snap.Periods[0].ID != "p0" || len(snap.Periods[0].EventStreams) != 2 {
		t.Fatalf("unexpected structure: %+v", snap)
	}

	es := snap.Periods[0].EventStreams[0]
	if es.SchemeIDURI != "urn:scte:scte35:2014:xml" || es.EffectiveTimescale() != 90000 {
		t.Errorf("event stream = %+v", es)
	}
	if len(es.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(es.Events))
	}
	ev := es.Events[0]
	if ev.ID != "11" || ev.PresentationTime != 450000 || ev.Duration != 2700000 {
		t.Errorf("event = %+v", ev)
	}
	if !strings.HasPrefix(ev.Body, "/DAlAAAA") || strings.ContainsAny(ev.Body, " \n") {
		t.Errorf("body should carry the trimmed splice section: %q", ev.Body)
	}
	if es.Events[1].Duration != 0 {
		t.Errorf("missing duration should decode as zero, got %d", es.Events[1].Duration)
	}

	other := snap.Periods[0].EventStreams[1]
	if got := other.EffectiveTimescale(); got != 1 {
		t.Errorf("absent timescale should default to 1, got %d", got)
	}
	if other.Events[0].ID != "7" || other.Events[0].MessageData != "hello" {
		t.Errorf("other event = %+v", other.Events[0])
	}
}

func TestDecodeMPD_static(t *testing.T) {
	snap := DecodeMPD([]byte(vodMPD))
	if snap.Error != "" {
		t.Fatalf("unexpected error marker: %s", snap.Error)
	}
	if snap.Dynamic {
		t.Error("static manifest reported as dynamic")
	}
	if snap.Duration != 90.5 {
		t.Errorf("duration = %v, want 90.5", snap.Duration)
	}
}

func TestDecodeMPD_malformed_sets_error_marker(t *testing.T) {
	snap := DecodeMPD([]byte(`<MPD><Period>`))
	if snap.Error == "" {
		t.Fatal("expected error marker for truncated document")
	}
	if !strings.HasPrefix(snap.Error, "manifest parse failed: ") {
		t.Errorf("error marker = %q", snap.Error)
	}

	snap = DecodeMPD([]byte(`<MPD xmlns="urn:mpeg:dash:schema:mpd:2011"><Period>
  <EventStream schemeIdUri="urn:scte:scte35:2014:xml"><Event id="not-a-number"/></EventStream>
</Period></MPD>`))
	if snap.Error == "" {
		t.Fatal("expected error marker for non-numeric event id")
	}
	if len(snap.Periods) != 0 {
		t.Errorf("failed parse should carry no periods, got %d", len(snap.Periods))
	}
}

func TestDecode_content_types(t *testing.T) {
	jsonBody := []byte(`{"dynamic":true,"periods":[{"event_streams":[{"scheme_id_uri":"s","timescale":1000,"events":[{"id":"a","presentation_time":5000,"duration":2000}]}]}]}`)

	snap, err := Decode("application/json; charset=utf-8", jsonBody)
	if err != nil {
		t.Fatalf("Decode json: %v", err)
	}
	if !snap.Dynamic || snap.Periods[0].EventStreams[0].Events[0].Duration != 2000 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	snap, err = Decode("application/dash+xml", []byte(liveMPD))
	if err != nil || len(snap.Periods) != 1 {
		t.Fatalf("Decode mpd: snap=%+v err=%v", snap, err)
	}

	snap, err = Decode("", []byte("  "+liveMPD))
	if err != nil || !snap.Dynamic {
		t.Fatalf("sniffed mpd: snap=%+v err=%v", snap, err)
	}

	snap, err = Decode("", jsonBody)
	if err != nil || !snap.Dynamic {
		t.Fatalf("sniffed json: snap=%+v err=%v", snap, err)
	}

	if _, err := Decode("text/plain", jsonBody); !errors.Is(err, ErrUnsupportedContentType) {
		t.Errorf("expected ErrUnsupportedContentType, got %v", err)
	}

	if _, err := Decode("application/json", []byte("not json")); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestDecodeJSON_error_marker(t *testing.T) {
	snap, err := DecodeJSON([]byte(`{"error":"manifest load failed"}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if snap.Error != "manifest load failed" {
		t.Errorf("error marker = %q", snap.Error)
	}
}
