package pipeline

import (
	"log/slog"
	"time"

	"mindroute/pkg/conversation"
	"mindroute/pkg/persona"
)

type EventType string

const (
	EventStageReached  EventType = "stage_reached"
	EventTurnCompleted EventType = "turn_completed"
	EventTurnFailed    EventType = "turn_failed"
)

// Event describes one transition of a turn.
type Event struct {
	Type     EventType
	Stage    Stage
	Category conversation.Category
	Persona  persona.Name
	Elapsed  time.Duration
	Err      error
	At       time.Time
}

// Observer receives every event of every turn, synchronously and in order.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(event Event) {
	f(event)
}

// LogObserver writes events to log. Failures log at error level, completed
// turns at info, and stage transitions at debug.
func LogObserver(log *slog.Logger) Observer {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "pipeline")

	return ObserverFunc(func(event Event) {
		logEvent(log, event)
	})
}

func logEvent(log *slog.Logger, event Event) {
	attrs := []any{
		"event_type", string(event.Type),
		"stage", event.Stage.String(),
		"elapsed_ms", event.Elapsed.Milliseconds(),
	}
	if event.Category != "" {
		attrs = append(attrs, "category", string(event.Category))
	}
	if event.Persona != "" {
		attrs = append(attrs, "persona", string(event.Persona))
	}

	switch event.Type {
	case EventTurnFailed:
		log.Error("Turn event", append(attrs, "error_kind", KindFromError(event.Err), "error", event.Err)...)
	case EventTurnCompleted:
		log.Info("Turn event", attrs...)
	default:
		log.Debug("Turn event", attrs...)
	}
}
