package session

import (
	"log/slog"

	"scte-signal/internal/platform/metrics"
)

// Listener receives the notifications a session produces. Calls are made
// synchronously, in order, while the session is locked; implementations must
// not call back into the session.
type Listener interface {
	SignalEntered(id ID, f Fired)
	DeclarationObserved(id ID, d Declaration)
	ManifestFailed(id ID, err error)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnSignal      func(id ID, f Fired)
	OnDeclaration func(id ID, d Declaration)
	OnFailure     func(id ID, err error)
}

func (l ListenerFuncs) SignalEntered(id ID, f Fired) {
	if l.OnSignal != nil {
		l.OnSignal(id, f)
	}
}

func (l ListenerFuncs) DeclarationObserved(id ID, d Declaration) {
	if l.OnDeclaration != nil {
		l.OnDeclaration(id, d)
	}
}

func (l ListenerFuncs) ManifestFailed(id ID, err error) {
	if l.OnFailure != nil {
		l.OnFailure(id, err)
	}
}

// LogListener logs fired signals at info, declarations at debug and manifest
// failures at error.
func LogListener(log *slog.Logger) Listener {
	return ListenerFuncs{
		OnSignal: func(id ID, f Fired) {
			log.Info("signal entered window",
				slog.String("session_id", string(id)),
				slog.String("event_id", f.ID),
				slog.Float64("window_start", f.WindowStart),
				slog.Float64("window_end", f.WindowEnd),
				slog.Float64("remaining", f.Remaining))
		},
		OnDeclaration: func(id ID, d Declaration) {
			log.Debug("declaration observed",
				slog.String("session_id", string(id)),
				slog.String("event_id", d.EventID),
				slog.Float64("duration", d.Duration))
		},
		OnFailure: func(id ID, err error) {
			log.Error("manifest error, session reset",
				slog.String("session_id", string(id)),
				slog.String("error", err.Error()))
		},
	}
}

// MetricsListener counts notifications in m.
func MetricsListener(m *metrics.Metrics) Listener {
	return ListenerFuncs{
		OnSignal:      func(ID, Fired) { m.IncSignalsFired() },
		OnDeclaration: func(ID, Declaration) { m.IncDeclarations() },
		OnFailure:     func(ID, error) { m.IncManifestErrors() },
	}
}
