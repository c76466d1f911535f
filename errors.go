package goCheckin

import "errors"

var (
	// ErrInvalidCredentials is returned when the auth endpoint explicitly rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidEmail is returned when the email is not a parsable address.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrAuthTransport wraps transport failures of the auth endpoint.
	ErrAuthTransport = errors.New("auth transport failure")
	// ErrInvalidAuthResponse is returned when a successful login carries no credential.
	ErrInvalidAuthResponse = errors.New("invalid auth response")
	// ErrLoginInProgress is returned when Login is called while another login is in flight.
	ErrLoginInProgress = errors.New("login in progress")
	// ErrSessionSuperseded is returned when a login completes after a logout invalidated it.
	ErrSessionSuperseded = errors.New("session superseded")
	// ErrNotAuthenticated is reported when a verification finds no signed-in credential.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPermissionUnavailable wraps failures of the camera-permission source.
	ErrPermissionUnavailable = errors.New("camera permission unavailable")
	// ErrEngineNotReady is returned by a nil or partially built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Reasons carried by Status values of kind StatusAuthError. Transport failures carry
// the transport message instead.
const (
	ReasonInvalidCredentials = "invalid-credentials"
	ReasonMissingCredentials = "missing-credentials"
	ReasonInvalidEmail       = "invalid-email"
	ReasonInvalidResponse    = "invalid-response"
)
