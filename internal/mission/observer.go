package mission

import (
	"log/slog"

	"github.com/san-kum/aerosim/internal/segment"
)

// Observer is notified around every segment evaluation.
type Observer interface {
	OnSegmentStart(mission string, s *segment.Segment)
	OnSegmentEnd(mission string, r SegmentResult)
}

type NoopObserver struct{}

func (NoopObserver) OnSegmentStart(string, *segment.Segment) {}
func (NoopObserver) OnSegmentEnd(string, SegmentResult)      {}

// CompositeObserver fans notifications out in order.
type CompositeObserver []Observer

func (c CompositeObserver) OnSegmentStart(mission string, s *segment.Segment) {
	for _, o := range c {
		o.OnSegmentStart(mission, s)
	}
}

func (c CompositeObserver) OnSegmentEnd(mission string, r SegmentResult) {
	for _, o := range c {
		o.OnSegmentEnd(mission, r)
	}
}

type LoggingObserver struct {
	Logger *slog.Logger
}

func NewLoggingObserver(l *slog.Logger) *LoggingObserver {
	if l == nil {
		l = slog.Default()
	}
	return &LoggingObserver{Logger: l}
}

func (o *LoggingObserver) OnSegmentStart(mission string, s *segment.Segment) {
	o.Logger.Debug("segment started", "mission", mission, "segment", s.Name, "kind", s.Kind)
}

func (o *LoggingObserver) OnSegmentEnd(mission string, r SegmentResult) {
	attrs := []any{
		"mission", mission,
		"segment", r.Name,
		"status", r.Status(),
		"evaluations", r.Evaluations,
		"duration", r.Duration,
	}
	switch {
	case r.Err != nil:
		o.Logger.Error("segment failed", append(attrs, "error", r.Err)...)
	case r.Skipped:
		o.Logger.Warn("segment skipped", attrs...)
	case !r.Converged:
		o.Logger.Warn("segment not converged", append(attrs, "message", r.Message)...)
	default:
		o.Logger.Info("segment converged", attrs...)
	}
}
