package routing

import (
	"message-dispatcher/internal/common/logging"
)

// Diagnostics receives structured routing diagnostics. Routing misses are
// expected traffic, not failures: implementations log or count them and must
// never panic or block dispatch.
type Diagnostics interface {
	// RoutingMiss records a message or event with no resolvable
	// destination.
	RoutingMiss(reason string, fields ...logging.Field)
	// CorrelationMiss records an event whose originating outbound message
	// is unknown or whose correlation entry has expired.
	CorrelationMiss(userMessageID, reason string)
	// Discarded records traffic a router throws away on purpose.
	Discarded(what string, fields ...logging.Field)
}

type logDiagnostics struct {
	log logging.Logger
}

// NewLogDiagnostics returns a Diagnostics sink that writes structured log
// lines through the given logger.
func NewLogDiagnostics(log logging.Logger) Diagnostics {
	return &logDiagnostics{log: log}
}

func (d *logDiagnostics) RoutingMiss(reason string, fields ...logging.Field) {
	d.log.Warn("routing miss: "+reason, fields...)
}

func (d *logDiagnostics) CorrelationMiss(userMessageID, reason string) {
	d.log.Warn("correlation miss: "+reason,
		logging.String("user_message_id", userMessageID))
}

func (d *logDiagnostics) Discarded(what string, fields ...logging.Field) {
	d.log.Debug("discarded "+what, fields...)
}

type nopDiagnostics struct{}

// NopDiagnostics returns a Diagnostics sink that drops everything.
func NopDiagnostics() Diagnostics { return nopDiagnostics{} }

func (nopDiagnostics) RoutingMiss(string, ...logging.Field) {}
func (nopDiagnostics) CorrelationMiss(string, string)       {}
func (nopDiagnostics) Discarded(string, ...logging.Field)   {}
