// Package goCheckin is the core of an event check-in client: a session state machine
// that signs the operator in and restores the session across restarts, and a scan
// state machine that validates decoded QR payloads against the remote check-in service.
//
// A presentation layer builds an [Engine] through [Builder], calls
// [SessionManager.Restore] on launch, [ScanVerifier.Activate] once authenticated, then
// feeds every decoded payload to [ScanVerifier.Submit] and clears each result with
// [ScanVerifier.Acknowledge]. State is read through snapshot accessors or pushed to an
// [Observer].
//
// # Architecture boundaries
//
// goCheckin owns state and transitions only. Remote calls, camera permission and key-value
// persistence are injected capabilities ([AuthClient], [VerifyClient],
// [PermissionSource], session.KV). The HTTP implementation of the remote endpoints lives
// in transport/httpapi; exporters for metrics live in metrics/export.
//
// # What this package must NOT do
//
//   - Render, animate or play audio; [Feedback] is a declarative signal.
//   - Expose the credential through [Session] snapshots.
//   - Retry, queue or batch scans.
//
// # Concurrency
//
// All Engine, SessionManager and ScanVerifier methods are safe for concurrent use.
// Remote calls run without holding state locks, so snapshots stay readable mid-flight.
package goCheckin
