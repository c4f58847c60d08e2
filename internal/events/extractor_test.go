package events

import (
	"errors"
	"testing"

	"scte-signal/internal/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotWith(streams ...manifest.EventStream) *manifest.Snapshot {
	return &manifest.Snapshot{Periods: []manifest.Period{{ID: "p0", EventStreams: streams}}}
}

func TestExtract_timescale_normalization(t *testing.T) {
	snap := snapshotWith(manifest.EventStream{
		SchemeIDURI: DefaultScheme,
		Timescale:   1000,
		Events:      []manifest.Event{{ID: "a", PresentationTime: 5000, Duration: 2000}},
	})

	got, err := Extract(snap, DefaultScheme)
	require.NoError(t, err)
	require.Len(t, got, 1)

	ev := got[0]
	assert.Equal(t, "a", ev.ID)
	assert.InDelta(t, 5.0, ev.WindowStart, 1e-9)
	assert.InDelta(t, 7.0, ev.WindowEnd, 1e-9)
	assert.InDelta(t, 2.0, ev.Duration, 1e-9)
	assert.Equal(t, uint64(1000), ev.Payload.Timescale)
	assert.Equal(t, "p0", ev.Payload.PeriodID)
	assert.Equal(t, uint64(5000), ev.Payload.Event.PresentationTime)
}

func TestExtract_default_timescale(t *testing.T) {
	snap := snapshotWith(manifest.EventStream{
		SchemeIDURI: DefaultScheme,
		Events:      []manifest.Event{{ID: "a", PresentationTime: 12, Duration: 3}},
	})

	got, err := Extract(snap, DefaultScheme)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12.0, got[0].WindowStart)
	assert.Equal(t, 15.0, got[0].WindowEnd)
	assert.Equal(t, uint64(1), got[0].Payload.Timescale)
}

func TestExtract_skips_missing_or_zero_duration(t *testing.T) {
	snap := snapshotWith(manifest.EventStream{
		SchemeIDURI: DefaultScheme,
		Events: []manifest.Event{
			{ID: "missing", PresentationTime: 10},
			{ID: "zero", PresentationTime: 10, Duration: 0},
			{ID: "ok", PresentationTime: 10, Duration: 1},
		},
	})

	got, err := Extract(snap, DefaultScheme)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
}

func TestExtract_scheme_isolation(t *testing.T) {
	valid := []manifest.Event{{ID: "a", PresentationTime: 1, Duration: 1}}
	snap := snapshotWith(
		manifest.EventStream{SchemeIDURI: "urn:scte:scte35:2014:xml+bin", Events: valid},
		manifest.EventStream{SchemeIDURI: "URN:SCTE:SCTE35:2014:XML", Events: valid},
		manifest.EventStream{SchemeIDURI: "urn:scte:scte35:2014", Events: valid},
	)

	got, err := Extract(snap, DefaultScheme)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtract_walks_all_periods(t *testing.T) {
	snap := &manifest.Snapshot{Periods: []manifest.Period{
		{ID: "p0"},
		{ID: "p1", EventStreams: []manifest.EventStream{{
			SchemeIDURI: DefaultScheme,
			Events:      []manifest.Event{{ID: "b", PresentationTime: 20, Duration: 5}},
		}}},
		{ID: "p2", EventStreams: []manifest.EventStream{{
			SchemeIDURI: DefaultScheme,
			Events:      []manifest.Event{{ID: "c", PresentationTime: 40, Duration: 5}},
		}}},
	}}

	got, err := Extract(snap, DefaultScheme)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "p1", got[0].Payload.PeriodID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "p2", got[1].Payload.PeriodID)
}

func TestExtract_duplicate_id_last_wins(t *testing.T) {
	snap := snapshotWith(manifest.EventStream{
		SchemeIDURI: DefaultScheme,
		Events: []manifest.Event{
			{ID: "a", PresentationTime: 10, Duration: 1},
			{ID: "b", PresentationTime: 20, Duration: 1},
			{ID: "a", PresentationTime: 30, Duration: 2},
		},
	})

	got, err := Extract(snap, DefaultScheme)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 30.0, got[0].WindowStart)
	assert.Equal(t, 32.0, got[0].WindowEnd)
}

func TestDeclared_keeps_duplicates(t *testing.T) {
	snap := snapshotWith(manifest.EventStream{
		SchemeIDURI: DefaultScheme,
		Events: []manifest.Event{
			{ID: "a", PresentationTime: 10, Duration: 1},
			{ID: "b", PresentationTime: 20, Duration: 1},
			{ID: "a", PresentationTime: 30, Duration: 2},
		},
	})

	got, err := Declared(snap, DefaultScheme)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 10.0, got[0].WindowStart)
	assert.Equal(t, 30.0, got[2].WindowStart)

	deduped := Dedupe(got)
	require.Len(t, deduped, 2)
	assert.Equal(t, 30.0, deduped[0].WindowStart)
	assert.Equal(t, "b", deduped[1].ID)
}

func TestExtract_skips_collapsed_window(t *testing.T) {
	snap := snapshotWith(manifest.EventStream{
		SchemeIDURI: DefaultScheme,
		Events: []manifest.Event{
			// 2^62 seconds: adding one second does not change the float64.
			{ID: "huge", PresentationTime: 1 << 62, Duration: 1},
			{ID: "ok", PresentationTime: 10, Duration: 1},
		},
	})

	got, err := Extract(snap, DefaultScheme)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
	for _, ev := range got {
		assert.Greater(t, ev.WindowEnd, ev.WindowStart)
	}

	declared, err := Declared(snap, DefaultScheme)
	require.NoError(t, err)
	assert.Len(t, declared, 1)
}

func TestExtract_error_marker(t *testing.T) {
	snap := snapshotWith(manifest.EventStream{
		SchemeIDURI: DefaultScheme,
		Events:      []manifest.Event{{ID: "a", PresentationTime: 1, Duration: 1}},
	})
	snap.Error = "segment template missing"

	got, err := Extract(snap, DefaultScheme)
	assert.Nil(t, got)

	var me *ManifestError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "segment template missing", me.Message)
}

func TestExtract_nil_snapshot(t *testing.T) {
	got, err := Extract(nil, DefaultScheme)
	require.NoError(t, err)
	assert.Empty(t, got)
}
