// audit/audit.go

// Package audit records hub events as structured log entries. A Recorder
// subscribes to the event bus and writes one entry per event; it never
// feeds back into the stores.
package audit

import (
	"github.com/dalemusser/statehub/bus"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recorded lists the event names a Recorder subscribes to.
var recorded = []string{
	bus.EventContextChanged,
	bus.EventContextReset,
	bus.EventAccountSuspended,
	bus.EventWorkspaceArchived,
	bus.EventWorkspaceTouched,
}

// Recorder writes one audit entry per bus event.
type Recorder struct {
	logger  *zap.Logger
	cancels []func()
}

// Attach subscribes a new Recorder to the bus. Detach unsubscribes.
func Attach(b *bus.Bus, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{logger: logger}
	for _, name := range recorded {
		r.cancels = append(r.cancels, b.Subscribe(name, r.record))
	}
	return r
}

// Detach unsubscribes the recorder from the bus.
func (r *Recorder) Detach() {
	for _, cancel := range r.cancels {
		cancel()
	}
	r.cancels = nil
}

func (r *Recorder) record(ev bus.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("entry_id", uuid.NewString()),
		zap.String("event", ev.Name),
		zap.Time("at", ev.Time),
	}
	if !ev.Subject.IsZero() {
		fields = append(fields, zap.String("subject_id", ev.Subject.Hex()))
	}
	for k, v := range ev.Fields {
		fields = append(fields, zap.Any("detail_"+k, v))
	}
	r.logger.Info("audit event", fields...)
}
