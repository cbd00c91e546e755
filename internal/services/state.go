package services

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stwalsh4118/deedchain/internal/logger"
	"github.com/stwalsh4118/deedchain/internal/metrics"
)

// State is a step in the lifecycle of a registration or transfer.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateSettling   State = "settling"
	StatePersisting State = "persisting"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

var errIllegalTransition = errors.New("illegal state transition")

var allowedTransitions = map[State][]State{
	StateIdle:       {StateValidating, StateRejected},
	StateValidating: {StateRejected, StateSettling, StateFailed},
	StateSettling:   {StatePersisting, StateFailed},
	StatePersisting: {StateComplete, StateFailed},
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateComplete || s == StateFailed
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// operation tracks one run through the state machine.
type operation struct {
	name    string
	state   State
	log     *logger.Logger
	metrics *metrics.RegistryMetrics
	span    trace.Span
}

func newOperation(name string, log *logger.Logger, m *metrics.RegistryMetrics, span trace.Span) *operation {
	return &operation{name: name, state: StateIdle, log: log, metrics: m, span: span}
}

// to moves the operation to next. An illegal move is logged and ignored.
func (o *operation) to(next State) bool {
	if !CanTransition(o.state, next) {
		o.log.Error("illegal state transition", errIllegalTransition, map[string]interface{}{
			"operation": o.name,
			"from":      string(o.state),
			"to":        string(next),
		})
		return false
	}

	o.log.Debug("state transition", map[string]interface{}{
		"operation": o.name,
		"from":      string(o.state),
		"to":        string(next),
	})
	o.state = next
	o.metrics.IncTransition(o.name, string(next))
	if o.span != nil {
		o.span.AddEvent("state", trace.WithAttributes(attribute.String("state", string(next))))
	}

	if next.Terminal() {
		o.metrics.IncOperation(o.name, terminalOutcome(next))
		if o.span != nil {
			o.span.SetAttributes(attribute.String("outcome", string(next)))
		}
	}
	return true
}

func terminalOutcome(s State) string {
	switch s {
	case StateComplete:
		return metrics.OutcomeComplete
	case StateRejected:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
