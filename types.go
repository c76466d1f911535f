package goCheckin

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StatusKind enumerates the session states.
type StatusKind uint8

const (
	// StatusUnknown is the state before Restore has resolved.
	StatusUnknown StatusKind = iota
	// StatusAnonymous means no one is signed in.
	StatusAnonymous
	// StatusAuthenticating means a login call is in flight.
	StatusAuthenticating
	// StatusAuthenticated means an identity and credential are held.
	StatusAuthenticated
	// StatusAuthError means the last login failed; see Status.Reason.
	StatusAuthError
)

func (k StatusKind) String() string {
	switch k {
	case StatusUnknown:
		return "unknown"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAuthError:
		return "auth_error"
	default:
		return "invalid"
	}
}

// Status is the session state. Only StatusAuthError carries a reason.
type Status struct {
	kind   StatusKind
	reason string
}

func statusOf(kind StatusKind) Status {
	return Status{kind: kind}
}

func statusAuthError(reason string) Status {
	return Status{kind: StatusAuthError, reason: reason}
}

func (s Status) Kind() StatusKind { return s.kind }

// Reason is the failure reason of an AuthError status and empty otherwise.
func (s Status) Reason() string { return s.reason }

func (s Status) String() string {
	if s.kind == StatusAuthError {
		return s.kind.String() + "(" + s.reason + ")"
	}
	return s.kind.String()
}

// Identity is the signed-in user as returned by the auth endpoint.
//
// Record is the server's user object, kept verbatim. Subject is filled from the
// credential when it is a JWT.
type Identity struct {
	Email   string
	Subject string
	Record  json.RawMessage
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.Record != nil {
		out.Record = append(json.RawMessage(nil), i.Record...)
	}
	return &out
}

// Session is a read-only snapshot of the SessionManager state.
// Identity is non-nil exactly when Status is StatusAuthenticated.
type Session struct {
	Status   Status
	Identity *Identity
}

// Authenticated reports whether the snapshot holds a signed-in identity.
func (s Session) Authenticated() bool {
	return s.Status.kind == StatusAuthenticated
}

// Credential is the opaque authorization material sent with verification calls.
// Its String form is redacted so it never leaks through logs or fmt.
type Credential struct {
	token string
}

// NewCredential wraps a token issued by the auth endpoint.
func NewCredential(token string) Credential {
	return Credential{token: token}
}

// Token returns the raw token for transport implementations.
func (c Credential) Token() string { return c.token }

// IsZero reports whether c holds no token.
func (c Credential) IsZero() bool { return c.token == "" }

func (c Credential) String() string {
	if c.token == "" {
		return "credential(none)"
	}
	return "credential(redacted)"
}

// CameraPermission is the tri-state camera grant.
type CameraPermission uint8

const (
	PermissionUnrequested CameraPermission = iota
	PermissionGranted
	PermissionDenied
)

func (p CameraPermission) String() string {
	switch p {
	case PermissionUnrequested:
		return "unrequested"
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "invalid"
	}
}

// OutcomeKind classifies a completed scan.
type OutcomeKind uint8

const (
	OutcomeGranted OutcomeKind = iota + 1
	OutcomeDeclined
	OutcomeExpired
	OutcomeNetworkError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeGranted:
		return "granted"
	case OutcomeDeclined:
		return "declined"
	case OutcomeExpired:
		return "expired"
	case OutcomeNetworkError:
		return "network_error"
	default:
		return "invalid"
	}
}

// Outcome is the terminal classification of a scan attempt. Only
// OutcomeNetworkError carries a message.
type Outcome struct {
	kind    OutcomeKind
	message string
}

func outcomeOf(kind OutcomeKind) Outcome {
	return Outcome{kind: kind}
}

func outcomeNetworkError(message string) Outcome {
	return Outcome{kind: OutcomeNetworkError, message: message}
}

func (o Outcome) Kind() OutcomeKind { return o.kind }

// Message is the transport failure text of a network-error outcome.
func (o Outcome) Message() string { return o.message }

func (o Outcome) String() string {
	if o.kind == OutcomeNetworkError {
		return o.kind.String() + "(" + o.message + ")"
	}
	return o.kind.String()
}

// FeedbackClass is the success/error classification shown to the operator.
type FeedbackClass uint8

const (
	FeedbackSuccess FeedbackClass = iota
	FeedbackError
)

func (c FeedbackClass) String() string {
	if c == FeedbackSuccess {
		return "success"
	}
	return "error"
}

// SoundMode advises how the audio cue for an outcome should be played.
type SoundMode uint8

const (
	// SoundOnce plays the cue a single time.
	SoundOnce SoundMode = iota
	// SoundLoop repeats the cue until the result is acknowledged.
	SoundLoop
)

// Feedback is the declarative presentation signal of an outcome.
type Feedback struct {
	Class   FeedbackClass
	Title   string
	Message string
	Sound   SoundMode
}

// Feedback maps o to the alert the operator sees.
func (o Outcome) Feedback() Feedback {
	switch o.kind {
	case OutcomeGranted:
		return Feedback{Class: FeedbackSuccess, Title: "Success", Message: "Access granted", Sound: SoundOnce}
	case OutcomeDeclined:
		return Feedback{Class: FeedbackError, Title: "Error", Message: "Access declined", Sound: SoundLoop}
	case OutcomeExpired:
		return Feedback{Class: FeedbackError, Title: "Error", Message: "Access expired", Sound: SoundLoop}
	default:
		return Feedback{Class: FeedbackError, Title: "Error", Message: "Error fetching data", Sound: SoundLoop}
	}
}

// GateKind enumerates the scan gate states.
type GateKind uint8

const (
	// GateIdle accepts the next submission.
	GateIdle GateKind = iota
	// GateValidating is checking the payload shape.
	GateValidating
	// GateVerifying has a remote verification in flight.
	GateVerifying
	// GateResult holds an outcome until acknowledged.
	GateResult
)

func (k GateKind) String() string {
	switch k {
	case GateIdle:
		return "idle"
	case GateValidating:
		return "validating"
	case GateVerifying:
		return "verifying"
	case GateResult:
		return "result"
	default:
		return "invalid"
	}
}

// Gate is the single-flight scan state. Only GateResult carries an outcome.
type Gate struct {
	kind    GateKind
	outcome Outcome
}

func gateOf(kind GateKind) Gate {
	return Gate{kind: kind}
}

func gateResult(o Outcome) Gate {
	return Gate{kind: GateResult, outcome: o}
}

func (g Gate) Kind() GateKind { return g.kind }

// Outcome returns the result outcome; ok is false unless the gate is GateResult.
func (g Gate) Outcome() (Outcome, bool) {
	if g.kind != GateResult {
		return Outcome{}, false
	}
	return g.outcome, true
}

func (g Gate) String() string {
	if g.kind == GateResult {
		return g.kind.String() + "(" + g.outcome.String() + ")"
	}
	return g.kind.String()
}

// ScanAttempt is a snapshot of the current scan. The zero value is an idle gate.
type ScanAttempt struct {
	ID         uuid.UUID
	RawPayload string
	TicketID   uint64
	StartedAt  time.Time
	Gate       Gate
}

// AuthResponse is the auth endpoint's answer to a login request.
type AuthResponse struct {
	Success bool
	User    json.RawMessage
	Token   string
	Message string
}

// AuthClient is the remote auth endpoint.
// A non-nil error means a transport failure; an explicit rejection is Success=false.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (AuthResponse, error)
}

// VerifyResponse is the verification endpoint's answer for one ticket.
type VerifyResponse struct {
	Success bool
	Message string
}

// VerifyClient is the remote verification endpoint.
// A non-nil error means a transport failure; an explicit rejection is Success=false.
type VerifyClient interface {
	Verify(ctx context.Context, ticketID uint64, cred Credential) (VerifyResponse, error)
}

// PermissionSource asks the platform for camera access.
type PermissionSource interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// PermissionFunc adapts a function to [PermissionSource].
type PermissionFunc func(ctx context.Context) (bool, error)

func (f PermissionFunc) RequestPermission(ctx context.Context) (bool, error) {
	return f(ctx)
}

// CredentialProvider is the narrow capability ScanVerifier needs from the session side.
type CredentialProvider interface {
	CurrentCredential() (Credential, bool)
}

// sessionControl adds the sign-out trigger to CredentialProvider.
type sessionControl interface {
	CredentialProvider
	endSession(ctx context.Context, cause string) error
}

// Observer receives state snapshots after every transition. Callbacks run on the
// goroutine that caused the transition, outside of internal locks, and must not block.
type Observer interface {
	SessionChanged(Session)
	ScanChanged(ScanAttempt)
}

// NoOpObserver discards all notifications.
type NoOpObserver struct{}

func (NoOpObserver) SessionChanged(Session)  {}
func (NoOpObserver) ScanChanged(ScanAttempt) {}
