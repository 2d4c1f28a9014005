package netlink

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindConnected, "CONNECTED"},
		{KindGotIP, "GOT_IP"},
		{KindDisconnected, "DISCONNECTED"},
		{KindAuthFailed, "AUTH_FAILED"},
		{KindNetworkNotFound, "NETWORK_NOT_FOUND"},
		{KindRetryExhausted, "RETRY_EXHAUSTED"},
		{Kind(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindIsFailure(t *testing.T) {
	failures := []Kind{KindAuthFailed, KindNetworkNotFound, KindRetryExhausted}
	for _, k := range failures {
		if !k.IsFailure() {
			t.Errorf("%v.IsFailure() = false, want true", k)
		}
	}

	nonFailures := []Kind{KindConnected, KindGotIP, KindDisconnected}
	for _, k := range nonFailures {
		if k.IsFailure() {
			t.Errorf("%v.IsFailure() = true, want false", k)
		}
	}
}
