package provisioning

import (
	"strings"
	"testing"
)

func TestValidationOutcomeString(t *testing.T) {
	tests := []struct {
		outcome ValidationOutcome
		want    string
	}{
		{OutcomeOk, "OK"},
		{OutcomeAuthFailed, "AUTH_FAILED"},
		{OutcomeNetworkNotFound, "NETWORK_NOT_FOUND"},
		{OutcomeTimeout, "TIMEOUT"},
		{OutcomeGeneralError, "GENERAL_ERROR"},
		{ValidationOutcome(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("ValidationOutcome(%d).String() = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}

func TestValidationOutcomeMessages(t *testing.T) {
	// Every outcome has a user-visible message.
	outcomes := []ValidationOutcome{
		OutcomeOk, OutcomeAuthFailed, OutcomeNetworkNotFound,
		OutcomeTimeout, OutcomeGeneralError,
	}
	for _, o := range outcomes {
		if o.Message() == "" {
			t.Errorf("%v has no message", o)
		}
	}

	// The wrong-password message names the password explicitly.
	if !strings.Contains(OutcomeAuthFailed.Message(), "incorrecta") {
		t.Errorf("AuthFailed message = %q, want it to contain %q",
			OutcomeAuthFailed.Message(), "incorrecta")
	}
}
