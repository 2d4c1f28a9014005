package connectivity

import (
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acequialabs/acequia-go/internal/testharness"
	"github.com/acequialabs/acequia-go/pkg/bootguard"
	"github.com/acequialabs/acequia-go/pkg/netlink"
	"github.com/acequialabs/acequia-go/pkg/persistence"
	"github.com/acequialabs/acequia-go/pkg/provisioning"
)

// eventRecorder collects adapter events in order.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *eventRecorder) has(t EventType) bool {
	for _, got := range r.types() {
		if got == t {
			return true
		}
	}
	return false
}

// fixture wires a full connectivity stack against fakes.
type fixture struct {
	bus      *netlink.Bus
	delegate *testharness.FakeDelegate
	store    *persistence.CredentialsStore
	detector *bootguard.Detector
	manager  *provisioning.Manager
	adapter  *Adapter
	events   *eventRecorder
}

func newFixture(t *testing.T, aps ...testharness.AccessPoint) *fixture {
	t.Helper()

	dir := t.TempDir()
	bus := netlink.NewBus()
	delegate := testharness.NewFakeDelegate(bus, aps...)
	store := persistence.NewCredentialsStore(filepath.Join(dir, "credentials.json"))

	detector := bootguard.NewDetector(
		persistence.NewBootRecordStore(filepath.Join(dir, "bootrecord.json")),
		bootguard.DefaultConfig(),
	)
	require.NoError(t, detector.Init())

	mcfg := provisioning.DefaultConfig()
	mcfg.ListenAddr = "127.0.0.1:0"
	mcfg.ValidationTimeout = 2 * time.Second
	manager := provisioning.NewManager(mcfg, delegate, bus, store)

	acfg := DefaultConfig()
	acfg.Model = "AQ-100"
	acfg.Serial = "AQ100-000341"
	adapter := NewAdapter(acfg, delegate, bus, manager, detector)

	events := &eventRecorder{}
	adapter.OnEvent(events.record)

	t.Cleanup(func() {
		_ = adapter.Stop()
		bus.Close()
	})

	return &fixture{
		bus:      bus,
		delegate: delegate,
		store:    store,
		detector: detector,
		manager:  manager,
		adapter:  adapter,
		events:   events,
	}
}

// provision stores working credentials directly.
func (f *fixture) provision(t *testing.T, ssid, password string) {
	t.Helper()
	require.NoError(t, f.store.Save(&persistence.DeviceCredentials{
		SSID: ssid, Password: password,
	}))
}

func TestStartsProvisioningWhenUnprovisioned(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", RSSI: -52, Secured: true},
		testharness.AccessPoint{SSID: "Vecino", RSSI: -70, Secured: true},
		testharness.AccessPoint{SSID: "Abierta", RSSI: -61, Secured: false},
	)

	require.NoError(t, f.adapter.Start())

	assert.Eventually(t, func() bool {
		return f.adapter.State() == StateProvisioning
	}, 2*time.Second, 10*time.Millisecond)

	// No join was attempted; the portal is the only path.
	assert.Equal(t, 0, f.delegate.ConnectCalls())
	assert.True(t, f.events.has(EventInitComplete))
	assert.True(t, f.events.has(EventProvisioningStarted))

	// The portal is live and scanning works end to end.
	resp, err := http.Get("http://" + f.manager.Addr() + "/scan")
	require.NoError(t, err)
	defer resp.Body.Close()

	var entries []struct {
		SSID string `json:"ssid"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Len(t, entries, 3)
}

func TestConnectsWithStoredCredentials(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
	)
	f.provision(t, "FarmNet", "regar123")

	require.NoError(t, f.adapter.Start())

	assert.Eventually(t, func() bool {
		return f.adapter.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	ip, err := f.adapter.IP()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50", ip)

	ssid, err := f.adapter.SSID()
	require.NoError(t, err)
	assert.Equal(t, "FarmNet", ssid)

	assert.True(t, f.events.has(EventConnected))
	assert.True(t, f.events.has(EventIPObtained))

	// A healthy boot clears the boot-loop window.
	assert.Eventually(t, func() bool {
		return f.detector.BootCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestResetPatternForcesProvisioning(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
	)
	f.provision(t, "FarmNet", "regar123")

	// Five rapid boots within the window.
	for i := 0; i < bootguard.DefaultThreshold; i++ {
		require.NoError(t, f.detector.Increment())
	}
	require.True(t, f.detector.CheckResetPattern())

	require.NoError(t, f.adapter.Start())

	assert.Eventually(t, func() bool {
		return f.adapter.State() == StateProvisioning
	}, 2*time.Second, 10*time.Millisecond)

	// Stored credentials were bypassed, not used.
	assert.Equal(t, 0, f.delegate.ConnectCalls())
	assert.True(t, f.events.has(EventResetRequested))

	// The pattern was consumed; a later boot starts fresh.
	assert.Equal(t, 0, f.detector.BootCount())
}

func TestFullProvisioningFlow(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
	)

	require.NoError(t, f.adapter.Start())

	require.Eventually(t, func() bool {
		return f.adapter.State() == StateProvisioning
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post("http://"+f.manager.Addr()+"/connect",
		"application/x-www-form-urlencoded",
		strings.NewReader("ssid=FarmNet&password=regar123"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var sr struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	assert.True(t, sr.Success)

	// Portal torn down, credentials committed, link established.
	assert.Eventually(t, func() bool {
		return f.adapter.State() == StateConnected
	}, 3*time.Second, 10*time.Millisecond)

	assert.True(t, f.store.IsProvisioned())
	assert.True(t, f.events.has(EventProvisioningCompleted))
	assert.Equal(t, provisioning.StateIdle, f.manager.State())
}

func TestWrongPasswordKeepsProvisioning(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
	)

	require.NoError(t, f.adapter.Start())
	require.Eventually(t, func() bool {
		return f.adapter.State() == StateProvisioning
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post("http://"+f.manager.Addr()+"/connect",
		"application/x-www-form-urlencoded",
		strings.NewReader("ssid=FarmNet&password=equivocada"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var sr struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	assert.False(t, sr.Success)
	assert.Contains(t, sr.Message, "incorrecta")

	// Nothing durable changed; another attempt is possible.
	assert.False(t, f.store.IsProvisioned())
	assert.Equal(t, StateProvisioning, f.adapter.State())
	assert.NotEqual(t, provisioning.StateIdle, f.manager.State())
}

func TestReconnectsAfterLinkLoss(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
	)
	f.provision(t, "FarmNet", "regar123")

	require.NoError(t, f.adapter.Start())
	require.Eventually(t, func() bool {
		return f.adapter.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	f.bus.Publish(netlink.Signal{Kind: netlink.KindDisconnected, SSID: "FarmNet", Timestamp: time.Now()})

	require.Eventually(t, func() bool {
		return f.adapter.State() == StateDisconnected
	}, time.Second, 10*time.Millisecond)

	_, err := f.adapter.IP()
	assert.ErrorIs(t, err, ErrNotAvailable)

	// The backoff timer fires and the join succeeds again.
	assert.Eventually(t, func() bool {
		return f.adapter.State() == StateConnected
	}, 5*time.Second, 20*time.Millisecond)

	assert.True(t, f.events.has(EventDisconnected))
	assert.GreaterOrEqual(t, f.delegate.ConnectCalls(), 2)
}

func TestExhaustedRetriesFallBackToProvisioning(t *testing.T) {
	// Credentials reference a network that no longer exists.
	f := newFixture(t,
		testharness.AccessPoint{SSID: "OtraRed", Password: "x", RSSI: -52, Secured: true},
	)
	f.provision(t, "FarmNet", "regar123")
	f.adapter.config.MaxConnectAttempts = 2

	require.NoError(t, f.adapter.Start())

	assert.Eventually(t, func() bool {
		return f.adapter.State() == StateProvisioning
	}, 10*time.Second, 20*time.Millisecond)

	assert.True(t, f.events.has(EventConnectionFailed))
	assert.GreaterOrEqual(t, f.delegate.ConnectCalls(), 2)
}

func TestForceProvisioningFromConnected(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
	)
	f.provision(t, "FarmNet", "regar123")

	require.NoError(t, f.adapter.Start())
	require.Eventually(t, func() bool {
		return f.adapter.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	f.adapter.ForceProvisioning()

	assert.Eventually(t, func() bool {
		return f.adapter.State() == StateProvisioning
	}, 2*time.Second, 10*time.Millisecond)

	assert.GreaterOrEqual(t, f.delegate.DisconnectCalls(), 1)
}

func TestAssociationAloneIsNotConnected(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
	)
	f.provision(t, "FarmNet", "regar123")
	f.delegate.Silent = true

	require.NoError(t, f.adapter.Start())
	require.Eventually(t, func() bool {
		return f.adapter.State() == StateConnecting
	}, 2*time.Second, 10*time.Millisecond)

	// The link associates but DHCP has not finished yet.
	f.bus.Publish(netlink.Signal{Kind: netlink.KindConnected, SSID: "FarmNet", Timestamp: time.Now()})

	require.Eventually(t, func() bool {
		return f.adapter.State() == StateConnected
	}, time.Second, 10*time.Millisecond)

	status := f.adapter.Status()
	assert.True(t, status.Connected)
	assert.False(t, status.HasIP)
	assert.False(t, f.adapter.IsConnected())

	// The address arrives; now the controller is reachable.
	f.bus.Publish(netlink.Signal{Kind: netlink.KindGotIP, SSID: "FarmNet", IP: "192.168.1.50", Timestamp: time.Now()})

	assert.Eventually(t, f.adapter.IsConnected, time.Second, 10*time.Millisecond)
	assert.True(t, f.adapter.Status().HasIP)
}

func TestProvisionedFlagTracksStore(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.adapter.IsProvisioned())
	assert.False(t, f.adapter.Status().Provisioned)

	f.provision(t, "FarmNet", "regar123")

	assert.True(t, f.adapter.IsProvisioned())
	assert.True(t, f.adapter.Status().Provisioned)
}

func TestLinkLossClearsConnectedFlags(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
	)
	f.provision(t, "FarmNet", "regar123")

	require.NoError(t, f.adapter.Start())
	require.Eventually(t, f.adapter.IsConnected, 2*time.Second, 10*time.Millisecond)

	f.bus.Publish(netlink.Signal{Kind: netlink.KindDisconnected, SSID: "FarmNet", Timestamp: time.Now()})

	require.Eventually(t, func() bool {
		return f.adapter.State() == StateDisconnected
	}, time.Second, 10*time.Millisecond)

	status := f.adapter.Status()
	assert.False(t, status.Connected)
	assert.False(t, status.HasIP)
	assert.False(t, f.adapter.IsConnected())
}

func TestRestartAfterStop(t *testing.T) {
	f := newFixture(t,
		testharness.AccessPoint{SSID: "FarmNet", RSSI: -52, Secured: true},
	)

	require.NoError(t, f.adapter.Start())
	require.Eventually(t, func() bool {
		return f.adapter.State() == StateProvisioning
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.adapter.Stop())
	require.Equal(t, provisioning.StateIdle, f.manager.State())

	// The second start must produce a live dispatch loop: the portal
	// comes back up and the subscription is re-established.
	require.NoError(t, f.adapter.Start())
	assert.Eventually(t, func() bool {
		return f.adapter.State() == StateProvisioning &&
			f.manager.State() == provisioning.StateActive
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, f.bus.Count())
}

func TestSetupAdvertCarriesPortalPort(t *testing.T) {
	f := newFixture(t)
	adv := testharness.NewFakeAdvertiser()
	f.adapter.SetAdvertiser(adv)

	require.NoError(t, f.adapter.Start())
	require.Eventually(t, func() bool {
		return adv.Setup() != nil
	}, 2*time.Second, 10*time.Millisecond)

	_, portStr, err := net.SplitHostPort(f.manager.Addr())
	require.NoError(t, err)
	wantPort, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	require.NotZero(t, wantPort)

	// The advert must point at the live listener, not a default port.
	info := adv.Setup()
	assert.Equal(t, uint16(wantPort), info.Port)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", info.MAC)
	assert.Equal(t, "AQ-100", info.Model)
}

func TestStatusSnapshotIsACopy(t *testing.T) {
	f := newFixture(t)

	status := f.adapter.Status()
	status.State = StateConnected
	status.SSID = "forged"

	assert.Equal(t, StateUninitialized, f.adapter.State())
	assert.Equal(t, "", f.adapter.Status().SSID)
}

func TestDetailsUnavailableBeforeConnection(t *testing.T) {
	f := newFixture(t)

	_, err := f.adapter.IP()
	assert.ErrorIs(t, err, ErrNotAvailable)

	_, err = f.adapter.SSID()
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestStartStopLifecycle(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.adapter.Stop(), ErrNotStarted)

	require.NoError(t, f.adapter.Start())
	assert.ErrorIs(t, f.adapter.Start(), ErrAlreadyStarted)

	require.NoError(t, f.adapter.Stop())

	// Everything is torn down; no leaked subscription.
	assert.Equal(t, 0, f.bus.Count())
	assert.Equal(t, provisioning.StateIdle, f.manager.State())
}

func TestStateStrings(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "UNINITIALIZED"},
		{StateCheckingProvision, "CHECKING_PROVISION"},
		{StateProvisioning, "PROVISIONING"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{StateDisconnected, "DISCONNECTED"},
		{StateError, "ERROR"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
