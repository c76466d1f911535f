package goCheckin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goCheckin/session"
	"go.uber.org/zap"
)

const testPayload = "https://eventregs.example.org/scan/482"

type fakeAuth struct {
	mu        sync.Mutex
	calls     int
	emails    []string
	passwords []string
	fn        func(ctx context.Context, email, password string) (AuthResponse, error)
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	f.mu.Lock()
	f.calls++
	f.emails = append(f.emails, email)
	f.passwords = append(f.passwords, password)
	fn := f.fn
	f.mu.Unlock()

	if fn == nil {
		return AuthResponse{Success: true, User: []byte(`{"email":"` + email + `"}`), Token: "tok-" + email}, nil
	}
	return fn(ctx, email, password)
}

func (f *fakeAuth) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type verifyCall struct {
	ticketID uint64
	token    string
}

type fakeVerifier struct {
	mu    sync.Mutex
	calls []verifyCall
	fn    func(ctx context.Context, ticketID uint64) (VerifyResponse, error)
}

func (f *fakeVerifier) Verify(ctx context.Context, ticketID uint64, cred Credential) (VerifyResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, verifyCall{ticketID: ticketID, token: cred.Token()})
	fn := f.fn
	f.mu.Unlock()

	if fn == nil {
		return VerifyResponse{Success: true}, nil
	}
	return fn(ctx, ticketID)
}

func (f *fakeVerifier) Calls() []verifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]verifyCall(nil), f.calls...)
}

// blocker parks a fake remote call until release is closed and reports when the call
// has been entered.
type blocker struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlocker() *blocker {
	return &blocker{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blocker) wait(ctx context.Context) error {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blocker) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-b.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("remote call was not entered")
	}
}

type permissionCounter struct {
	mu      sync.Mutex
	calls   int
	granted bool
	err     error
}

func (p *permissionCounter) RequestPermission(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.granted, p.err
}

func (p *permissionCounter) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type testDeps struct {
	kv         session.KV
	auth       *fakeAuth
	verifier   *fakeVerifier
	permission *permissionCounter
	logger     *zap.Logger
	observer   Observer
	sink       AuditSink
}

func newTestDeps() *testDeps {
	return &testDeps{
		kv:         session.NewMemoryKV(),
		auth:       &fakeAuth{},
		verifier:   &fakeVerifier{},
		permission: &permissionCounter{granted: true},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	cfg.Auth.LoginTimeout = 2 * time.Second
	cfg.Scan.VerifyTimeout = 2 * time.Second
	return cfg
}

func buildTestEngine(t *testing.T, cfg Config, deps *testDeps) *Engine {
	t.Helper()

	b := New().
		WithConfig(cfg).
		WithKV(deps.kv).
		WithAuthClient(deps.auth).
		WithVerifyClient(deps.verifier).
		WithPermissionSource(deps.permission).
		WithLogger(deps.logger).
		WithObserver(deps.observer).
		WithAuditSink(deps.sink)

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// signedInScanner returns an engine that is logged in and has camera permission.
func signedInScanner(t *testing.T, deps *testDeps) *Engine {
	t.Helper()

	engine := buildTestEngine(t, testConfig(), deps)
	ctx := context.Background()
	engine.Sessions().Restore(ctx)
	if err := engine.Sessions().Login(ctx, "a@b.com", "x"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if perm, err := engine.Scanner().Activate(ctx); err != nil || perm != PermissionGranted {
		t.Fatalf("Activate = %v, %v", perm, err)
	}
	return engine
}
