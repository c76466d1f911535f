package goCheckin

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScanVerifier gates scans to one at a time, validates decoded payloads and dispatches
// remote verification.
//
// Every attempt captures an epoch. Acknowledge, Deactivate, SignOut and
// [SessionManager.Logout] advance it, so a verification that completes after any of
// them is discarded instead of overwriting the newer state.
type ScanVerifier struct {
	engine      *Engine
	sessions    sessionControl
	verifier    VerifyClient
	permissions PermissionSource
	matcher     *payloadMatcher
	cfg         ScanConfig
	log         *zap.Logger

	mu         sync.Mutex
	permission CameraPermission
	permErr    error
	requesting chan struct{}
	attempt    ScanAttempt
	epoch      uint64
}

func newScanVerifier(
	e *Engine,
	sessions sessionControl,
	verifier VerifyClient,
	permissions PermissionSource,
	matcher *payloadMatcher,
) *ScanVerifier {
	return &ScanVerifier{
		engine:      e,
		sessions:    sessions,
		verifier:    verifier,
		permissions: permissions,
		matcher:     matcher,
		cfg:         e.config.Scan,
		log:         e.logger.Named("scan"),
	}
}

// Attempt returns a snapshot of the current attempt. When idle, only Gate is set.
func (s *ScanVerifier) Attempt() ScanAttempt {
	if s == nil {
		return ScanAttempt{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Gate returns the current gate state.
func (s *ScanVerifier) Gate() Gate {
	if s == nil {
		return Gate{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt.Gate
}

// Permission returns the recorded camera decision.
func (s *ScanVerifier) Permission() CameraPermission {
	if s == nil {
		return PermissionUnrequested
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// Activate describes the activate operation and its observable behavior.
//
// Activate requests camera permission once per activation. Later and concurrent calls
// return the recorded decision without asking again. A failing permission source
// records [PermissionDenied] and the failure is returned wrapped in
// [ErrPermissionUnavailable].
func (s *ScanVerifier) Activate(ctx context.Context) (CameraPermission, error) {
	if s == nil {
		return PermissionUnrequested, ErrEngineNotReady
	}
	s.mu.Lock()
	if s.permission != PermissionUnrequested {
		p, err := s.permission, s.permErr
		s.mu.Unlock()
		return p, err
	}
	if wait := s.requesting; wait != nil {
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return PermissionUnrequested, ctx.Err()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.permission, s.permErr
	}
	done := make(chan struct{})
	s.requesting = done
	epoch := s.epoch
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.PermissionTimeout)
	granted, err := s.permissions.RequestPermission(callCtx)
	cancel()

	perm := PermissionDenied
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrPermissionUnavailable, err)
	} else if granted {
		perm = PermissionGranted
	}

	s.mu.Lock()
	s.requesting = nil
	close(done)
	if s.epoch != epoch {
		s.mu.Unlock()
		s.log.Debug("discarding camera decision after reset", zap.Stringer("permission", perm))
		return perm, err
	}
	s.permission = perm
	s.permErr = err
	snap := s.attempt
	s.mu.Unlock()

	if perm == PermissionGranted {
		s.engine.metricInc(MetricPermissionGranted)
	} else {
		s.engine.metricInc(MetricPermissionDenied)
	}
	s.log.Info("camera permission resolved", zap.Stringer("permission", perm), zap.Error(err))
	s.engine.emitAudit(ctx, AuditCameraPermission, perm == PermissionGranted, "", "", err, func() map[string]string {
		return map[string]string{"permission": perm.String()}
	})
	s.engine.notifyScan(snap)
	return perm, err
}

// Submit describes the submit operation and its observable behavior.
//
// Submit is ignored and returns false unless camera permission is granted and the gate
// is idle. Otherwise it runs the attempt to a terminal result before returning true:
// payloads that are not check-in codes resolve to [OutcomeExpired] without a remote
// call; recognized codes are verified with the credential current at call time.
// Submissions arriving while an attempt is active are dropped.
func (s *ScanVerifier) Submit(ctx context.Context, raw string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	if s.permission != PermissionGranted || s.attempt.Gate.kind != GateIdle {
		gate, perm := s.attempt.Gate, s.permission
		s.mu.Unlock()
		s.engine.metricInc(MetricScanDropped)
		s.log.Debug("scan dropped", zap.Stringer("gate", gate), zap.Stringer("permission", perm))
		return false
	}
	attempt := ScanAttempt{
		ID:         uuid.New(),
		RawPayload: raw,
		StartedAt:  time.Now(),
		Gate:       gateOf(GateValidating),
	}
	s.attempt = attempt
	epoch := s.epoch
	s.mu.Unlock()

	s.engine.metricInc(MetricScanAccepted)
	s.engine.notifyScan(attempt)

	ticketID, ok := s.matcher.Match(raw)
	if !ok {
		s.finish(ctx, epoch, attempt.ID, outcomeOf(OutcomeExpired), nil)
		return true
	}

	s.mu.Lock()
	if s.epoch != epoch || s.attempt.ID != attempt.ID {
		s.mu.Unlock()
		s.engine.metricInc(MetricScanStaleDiscarded)
		return true
	}
	s.attempt.TicketID = ticketID
	s.attempt.Gate = gateOf(GateVerifying)
	snap := s.attempt
	s.mu.Unlock()
	s.engine.notifyScan(snap)

	cred, ok := s.sessions.CurrentCredential()
	if !ok {
		s.finish(ctx, epoch, attempt.ID, outcomeNetworkError(ErrNotAuthenticated.Error()), ErrNotAuthenticated)
		return true
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	start := time.Now()
	resp, err := s.verifier.Verify(callCtx, ticketID, cred)
	cancel()
	s.engine.metricObserve(MetricVerifyLatency, time.Since(start))

	var outcome Outcome
	switch {
	case err != nil:
		outcome = outcomeNetworkError(transportReason(err))
	case resp.Success:
		outcome = outcomeOf(OutcomeGranted)
	default:
		outcome = outcomeOf(OutcomeDeclined)
	}
	s.finish(ctx, epoch, attempt.ID, outcome, err)
	return true
}

func (s *ScanVerifier) finish(ctx context.Context, epoch uint64, id uuid.UUID, outcome Outcome, cause error) {
	s.mu.Lock()
	if s.epoch != epoch || s.attempt.ID != id {
		s.mu.Unlock()
		s.engine.metricInc(MetricScanStaleDiscarded)
		s.log.Info("discarding stale scan result",
			zap.Stringer("attempt_id", id), zap.Stringer("outcome", outcome))
		return
	}
	s.attempt.Gate = gateResult(outcome)
	snap := s.attempt
	s.mu.Unlock()

	switch outcome.kind {
	case OutcomeGranted:
		s.engine.metricInc(MetricScanGranted)
	case OutcomeDeclined:
		s.engine.metricInc(MetricScanDeclined)
	case OutcomeExpired:
		s.engine.metricInc(MetricScanExpired)
	case OutcomeNetworkError:
		s.engine.metricInc(MetricScanNetworkError)
	}

	fields := []zap.Field{
		zap.Stringer("attempt_id", id),
		zap.Stringer("outcome", outcome),
	}
	if snap.TicketID != 0 {
		fields = append(fields, zap.Uint64("ticket_id", snap.TicketID))
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	s.log.Info("scan resolved", fields...)

	s.engine.emitAudit(ctx, AuditScanResult, outcome.kind == OutcomeGranted, "", id.String(), cause, func() map[string]string {
		md := map[string]string{"outcome": outcome.kind.String()}
		if snap.TicketID != 0 {
			md["ticket_id"] = strconv.FormatUint(snap.TicketID, 10)
		}
		return md
	})
	s.engine.notifyScan(snap)
}

// Acknowledge returns a result gate to idle so the next scan is accepted. In any other
// gate state it does nothing.
func (s *ScanVerifier) Acknowledge() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.attempt.Gate.kind != GateResult {
		s.mu.Unlock()
		return
	}
	id := s.attempt.ID
	s.epoch++
	s.attempt = ScanAttempt{}
	snap := s.attempt
	s.mu.Unlock()

	s.engine.metricInc(MetricScanAcknowledged)
	s.log.Debug("scan acknowledged", zap.Stringer("attempt_id", id))
	s.engine.notifyScan(snap)
}

// SignOut describes the signout operation and its observable behavior.
//
// SignOut discards any in-flight attempt, returns the gate to idle, forgets the camera
// decision and then logs the session out. The returned error is the one of
// [SessionManager.Logout].
func (s *ScanVerifier) SignOut(ctx context.Context) error {
	if s == nil {
		return ErrEngineNotReady
	}
	return s.sessions.endSession(ctx, "sign-out")
}

// Deactivate ends the current activation: any in-flight attempt is discarded, the gate
// returns to idle and the next [ScanVerifier.Activate] asks for permission again.
func (s *ScanVerifier) Deactivate() {
	if s == nil {
		return
	}
	s.reset("deactivate")
}

func (s *ScanVerifier) reset(cause string) {
	s.mu.Lock()
	prev := s.attempt
	s.epoch++
	s.attempt = ScanAttempt{}
	s.permission = PermissionUnrequested
	s.permErr = nil
	snap := s.attempt
	s.mu.Unlock()

	if prev.Gate.kind == GateValidating || prev.Gate.kind == GateVerifying {
		s.log.Info("in-flight scan abandoned", zap.String("cause", cause), zap.Stringer("attempt_id", prev.ID))
	}
	s.engine.notifyScan(snap)
}
