package goCheckin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goCheckin/jwt"
	"github.com/MrEthical07/goCheckin/session"
	"go.uber.org/zap"
)

// SessionManager owns the signed-in identity, its credential and the persisted copy of
// both.
//
// Remote calls run without holding the state lock. Writes to the persisted record are
// serialized by writeMu so that a Logout racing a Login always leaves storage empty.
type SessionManager struct {
	engine *Engine
	store  *session.Store
	auth   AuthClient
	cfg    AuthConfig
	log    *zap.Logger

	mu         sync.Mutex
	status     Status
	identity   *Identity
	credential Credential
	epoch      uint64

	writeMu sync.Mutex
}

func newSessionManager(e *Engine, auth AuthClient) *SessionManager {
	return &SessionManager{
		engine: e,
		store:  e.store,
		auth:   auth,
		cfg:    e.config.Auth,
		log:    e.logger.Named("session"),
		status: statusOf(StatusUnknown),
	}
}

// Session returns a snapshot of the current state. It never blocks on remote calls.
func (m *SessionManager) Session() Session {
	if m == nil {
		return Session{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Status returns the current status.
func (m *SessionManager) Status() Status {
	if m == nil {
		return statusOf(StatusUnknown)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// CurrentCredential returns the credential of the signed-in identity. ok is false
// unless the status is [StatusAuthenticated].
func (m *SessionManager) CurrentCredential() (Credential, bool) {
	if m == nil {
		return Credential{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.kind != StatusAuthenticated || m.credential.IsZero() {
		return Credential{}, false
	}
	return m.credential, true
}

// Restore describes the restore operation and its observable behavior.
//
// Restore loads the persisted record, if any, and resolves the status to
// [StatusAuthenticated] or [StatusAnonymous] without contacting the remote service.
// Unreadable or corrupt data resolves to Anonymous and is logged, never returned.
// Restore neither writes nor deletes storage, and while a session is authenticated or a
// login is in flight it returns the current snapshot without reading storage.
func (m *SessionManager) Restore(ctx context.Context) Session {
	if m == nil {
		return Session{}
	}
	m.mu.Lock()
	if m.status.kind == StatusAuthenticated || m.status.kind == StatusAuthenticating {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	epoch := m.epoch
	m.mu.Unlock()

	rec, err := m.store.Load(ctx)

	var (
		identity *Identity
		cred     Credential
	)
	if err == nil {
		identity, cred, err = identityFromRecord(rec)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		// A login or logout ran while storage was being read; its result stands.
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	if identity != nil {
		m.status = statusOf(StatusAuthenticated)
		m.identity = identity
		m.credential = cred
	} else {
		m.status = statusOf(StatusAnonymous)
		m.identity = nil
		m.credential = Credential{}
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	switch {
	case identity != nil:
		m.engine.metricInc(MetricRestoreHit)
		m.log.Info("session restored", zap.String("subject", identity.subject()))
		if claims, cerr := jwt.Inspect(cred.Token()); cerr == nil && claims.Expired(time.Now()) {
			m.log.Warn("restored credential is past its expiry", zap.Time("expires_at", claims.ExpiresAt))
		}
		m.engine.emitAudit(ctx, AuditSessionRestored, true, identity.subject(), "", nil, nil)
	case err != nil && !errors.Is(err, session.ErrNotFound):
		m.engine.metricInc(MetricRestoreCorrupt)
		m.log.Warn("persisted session unreadable, starting anonymous",
			zap.String("key", m.store.Key()), zap.Error(err))
		m.engine.emitAudit(ctx, AuditSessionRestored, false, "", "", err, nil)
	default:
		m.engine.metricInc(MetricRestoreMiss)
		m.log.Debug("no persisted session")
	}

	m.engine.notifySession(snap)
	return snap
}

// Login describes the login operation and its observable behavior.
//
// Login lowercases the email and sends the password verbatim. The email is not trimmed:
// surrounding whitespace fails the address check with [ErrInvalidEmail]. The status is
// [StatusAuthenticating] for the duration of the remote call and always leaves it:
// success stores and persists the identity and credential, an explicit rejection or a
// transport failure resolves to [StatusAuthError]. The returned error mirrors the
// resolved status.
//
// A Login while another is in flight returns [ErrLoginInProgress] without touching
// state. A Login whose result arrives after [SessionManager.Logout] is discarded and
// returns [ErrSessionSuperseded].
func (m *SessionManager) Login(ctx context.Context, emailRaw, password string) error {
	if m == nil {
		return ErrEngineNotReady
	}
	email := strings.ToLower(emailRaw)

	m.mu.Lock()
	if m.status.kind == StatusAuthenticating {
		m.mu.Unlock()
		m.engine.metricInc(MetricLoginInProgressRejected)
		return ErrLoginInProgress
	}

	if reason, err := m.checkInput(email, password); err != nil {
		m.epoch++
		m.setLocked(statusAuthError(reason), nil, Credential{})
		snap := m.snapshotLocked()
		m.mu.Unlock()

		m.engine.metricInc(MetricLoginInvalidInput)
		m.log.Info("login rejected locally", zap.String("reason", reason))
		m.engine.emitAudit(ctx, AuditLoginFailure, false, "", "", err, nil)
		m.engine.notifySession(snap)
		return err
	}

	m.epoch++
	epoch := m.epoch
	m.setLocked(statusOf(StatusAuthenticating), nil, Credential{})
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.engine.notifySession(snap)

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.LoginTimeout)
	start := time.Now()
	resp, err := m.auth.Login(callCtx, email, password)
	cancel()
	m.engine.metricObserve(MetricLoginLatency, time.Since(start))

	if err == nil && resp.Success && resp.Token != "" {
		return m.commitLogin(ctx, epoch, email, resp)
	}

	var (
		next   Status
		result error
		metric MetricID
	)
	switch {
	case err != nil:
		next = statusAuthError(transportReason(err))
		result = fmt.Errorf("%w: %v", ErrAuthTransport, err)
		metric = MetricLoginTransportFailure
	case !resp.Success:
		next = statusAuthError(ReasonInvalidCredentials)
		result = ErrInvalidCredentials
		metric = MetricLoginRejected
	default:
		next = statusAuthError(ReasonInvalidResponse)
		result = ErrInvalidAuthResponse
		metric = MetricLoginRejected
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.engine.metricInc(MetricLoginSuperseded)
		m.log.Debug("discarding login failure after logout", zap.Error(result))
		return ErrSessionSuperseded
	}
	m.setLocked(next, nil, Credential{})
	snap = m.snapshotLocked()
	m.mu.Unlock()

	m.engine.metricInc(metric)
	m.log.Info("login failed", zap.String("reason", next.Reason()), zap.Error(result))
	m.engine.emitAudit(ctx, AuditLoginFailure, false, "", "", result, func() map[string]string {
		if resp.Message == "" {
			return nil
		}
		return map[string]string{"message": resp.Message}
	})
	m.engine.notifySession(snap)
	return result
}

func (m *SessionManager) commitLogin(ctx context.Context, epoch uint64, email string, resp AuthResponse) error {
	identity := &Identity{Email: email}
	if len(resp.User) > 0 {
		identity.Record = append(json.RawMessage(nil), resp.User...)
	}
	if claims, err := jwt.Inspect(resp.Token); err == nil {
		identity.Subject = claims.Subject
	}
	cred := NewCredential(resp.Token)

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.engine.metricInc(MetricLoginSuperseded)
		m.log.Info("discarding login completed after logout")
		m.engine.emitAudit(ctx, AuditLoginFailure, false, identity.subject(), "", ErrSessionSuperseded, nil)
		return ErrSessionSuperseded
	}
	m.setLocked(statusOf(StatusAuthenticated), identity, cred)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.engine.metricInc(MetricLoginSuccess)
	m.log.Info("login succeeded", zap.String("subject", identity.subject()))
	m.engine.emitAudit(ctx, AuditLoginSuccess, true, identity.subject(), "", nil, nil)
	m.engine.notifySession(snap)

	rec := &session.Record{
		Email:      identity.Email,
		Identity:   identity.Record,
		Credential: cred.Token(),
		SavedAt:    time.Now().Unix(),
	}
	if err := m.store.Save(ctx, rec); err != nil {
		// The session stays usable in memory; it just will not survive a restart.
		m.engine.metricInc(MetricSessionPersistFailure)
		m.log.Error("persist session failed", zap.String("key", m.store.Key()), zap.Error(err))
	}
	return nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout resolves the status to [StatusAnonymous], clears the in-memory identity and
// credential and erases the persisted record. It is idempotent. The in-memory reset
// always happens; a storage error is returned for observability only.
//
// Logout also resets the engine's [ScanVerifier] the way [ScanVerifier.SignOut] does,
// so a verification dispatched with the old credential is discarded when it completes.
func (m *SessionManager) Logout(ctx context.Context) error {
	if m == nil {
		return ErrEngineNotReady
	}
	return m.endSession(ctx, "logout")
}

func (m *SessionManager) endSession(ctx context.Context, cause string) error {
	m.engine.resetScanner(cause)

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	subject := m.identity.subject()
	m.epoch++
	m.setLocked(statusOf(StatusAnonymous), nil, Credential{})
	snap := m.snapshotLocked()
	m.mu.Unlock()

	err := m.store.Erase(ctx)
	if err != nil {
		m.engine.metricInc(MetricSessionPersistFailure)
		m.log.Error("erase persisted session failed", zap.String("key", m.store.Key()), zap.Error(err))
	}

	m.engine.metricInc(MetricLogout)
	m.log.Info("logged out", zap.String("subject", subject))
	m.engine.emitAudit(ctx, AuditLogout, err == nil, subject, "", err, nil)
	m.engine.notifySession(snap)
	return err
}

func (m *SessionManager) checkInput(email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return ReasonMissingCredentials, ErrMissingCredentials
	}
	if !m.cfg.ValidateEmail {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ReasonInvalidEmail, ErrInvalidEmail
	}
	return "", nil
}

func (m *SessionManager) setLocked(status Status, identity *Identity, cred Credential) {
	m.status = status
	m.identity = identity
	m.credential = cred
}

func (m *SessionManager) snapshotLocked() Session {
	return Session{
		Status:   m.status,
		Identity: m.identity.clone(),
	}
}

func identityFromRecord(rec *session.Record) (*Identity, Credential, error) {
	if rec == nil || rec.Credential == "" {
		return nil, Credential{}, fmt.Errorf("%w: record has no credential", session.ErrRecordCorrupt)
	}
	identity := &Identity{Email: rec.Email}
	if len(rec.Identity) > 0 {
		if !json.Valid(rec.Identity) {
			return nil, Credential{}, fmt.Errorf("%w: identity is not json", session.ErrRecordCorrupt)
		}
		identity.Record = append(json.RawMessage(nil), rec.Identity...)
	}
	if claims, err := jwt.Inspect(rec.Credential); err == nil {
		identity.Subject = claims.Subject
	}
	return identity, NewCredential(rec.Credential), nil
}

// subject is the audit and log subject of i: the credential subject when known,
// otherwise the email.
func (i *Identity) subject() string {
	if i == nil {
		return ""
	}
	if i.Subject != "" {
		return i.Subject
	}
	return i.Email
}

func transportReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "network error"
}
