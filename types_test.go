package goCheckin

import (
	"fmt"
	"testing"
)

func TestOutcomeFeedback(t *testing.T) {
	tests := []struct {
		outcome Outcome
		class   FeedbackClass
		message string
		sound   SoundMode
	}{
		{outcomeOf(OutcomeGranted), FeedbackSuccess, "Access granted", SoundOnce},
		{outcomeOf(OutcomeDeclined), FeedbackError, "Access declined", SoundLoop},
		{outcomeOf(OutcomeExpired), FeedbackError, "Access expired", SoundLoop},
		{outcomeNetworkError("boom"), FeedbackError, "Error fetching data", SoundLoop},
	}

	for _, tt := range tests {
		fb := tt.outcome.Feedback()
		if fb.Class != tt.class || fb.Message != tt.message || fb.Sound != tt.sound {
			t.Fatalf("%v: unexpected feedback %+v", tt.outcome, fb)
		}
	}
}

func TestGateOutcomeOnlyInResult(t *testing.T) {
	for _, g := range []Gate{gateOf(GateIdle), gateOf(GateValidating), gateOf(GateVerifying)} {
		if _, ok := g.Outcome(); ok {
			t.Fatalf("%v must not carry an outcome", g)
		}
	}
	o, ok := gateResult(outcomeNetworkError("timeout")).Outcome()
	if !ok || o.Kind() != OutcomeNetworkError || o.Message() != "timeout" {
		t.Fatalf("unexpected outcome %v %v", o, ok)
	}
}

func TestStateStrings(t *testing.T) {
	if got := statusAuthError(ReasonInvalidCredentials).String(); got != "auth_error(invalid-credentials)" {
		t.Fatalf("unexpected status string %q", got)
	}
	if got := gateResult(outcomeOf(OutcomeExpired)).String(); got != "result(expired)" {
		t.Fatalf("unexpected gate string %q", got)
	}
}

func TestCredentialFormattingIsRedacted(t *testing.T) {
	c := NewCredential("secret-token")
	for _, s := range []string{c.String(), fmt.Sprintf("%v", c), fmt.Sprintf("%s", c)} {
		if s != "credential(redacted)" {
			t.Fatalf("credential leaked: %q", s)
		}
	}
	if !(Credential{}).IsZero() || c.IsZero() {
		t.Fatal("IsZero mismatch")
	}
}
