package goCheckin

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goCheckin/session"
	"go.uber.org/zap"
)

// Engine holds the session and scan state machines together with the metrics, audit
// dispatcher and logger they share.
//
// Engine instances are created by [Builder.Build] and are safe for concurrent use.
type Engine struct {
	config   Config
	store    *session.Store
	sessions *SessionManager
	scanner  *ScanVerifier
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *zap.Logger
	observer Observer
}

// Sessions returns the session state machine.
func (e *Engine) Sessions() *SessionManager {
	if e == nil {
		return nil
	}
	return e.sessions
}

// Scanner returns the scan state machine.
func (e *Engine) Scanner() *ScanVerifier {
	if e == nil {
		return nil
	}
	return e.scanner
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return defaultConfig()
	}
	return cloneConfig(e.config)
}

// Close describes the close operation and its observable behavior.
//
// Close flushes queued audit events into the sink and syncs the logger. It does not
// touch the persisted session.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot returns empty maps when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) notifySession(s Session) {
	if e == nil || e.observer == nil {
		return
	}
	e.observer.SessionChanged(s)
}

// resetScanner invalidates any in-flight scan so its completion is discarded.
func (e *Engine) resetScanner(cause string) {
	if e == nil || e.scanner == nil {
		return
	}
	e.scanner.reset(cause)
}

func (e *Engine) notifyScan(a ScanAttempt) {
	if e == nil || e.observer == nil {
		return
	}
	e.observer.ScanChanged(a)
}

/*
====================================
AUDIT
====================================
*/

// AuditErrorCode is the stable error classification written to [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrMissingCredentials    AuditErrorCode = "missing_credentials"
	auditErrInvalidEmail          AuditErrorCode = "invalid_email"
	auditErrInvalidResponse       AuditErrorCode = "invalid_response"
	auditErrTransport             AuditErrorCode = "transport_failure"
	auditErrSuperseded            AuditErrorCode = "superseded"
	auditErrNotAuthenticated      AuditErrorCode = "not_authenticated"
	auditErrPermissionUnavailable AuditErrorCode = "permission_unavailable"
	auditErrRecordCorrupt         AuditErrorCode = "record_corrupt"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType AuditEventType,
	success bool,
	subject string,
	attemptID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Subject:   subject,
		AttemptID: attemptID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrMissingCredentials):
		return auditErrMissingCredentials
	case errors.Is(err, ErrInvalidEmail):
		return auditErrInvalidEmail
	case errors.Is(err, ErrInvalidAuthResponse):
		return auditErrInvalidResponse
	case errors.Is(err, ErrAuthTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return auditErrTransport
	case errors.Is(err, ErrSessionSuperseded):
		return auditErrSuperseded
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrPermissionUnavailable):
		return auditErrPermissionUnavailable
	case errors.Is(err, session.ErrRecordCorrupt):
		return auditErrRecordCorrupt
	case errors.Is(err, session.ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
