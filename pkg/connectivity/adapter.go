package connectivity

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/acequialabs/acequia-go/pkg/bootguard"
	"github.com/acequialabs/acequia-go/pkg/discovery"
	"github.com/acequialabs/acequia-go/pkg/log"
	"github.com/acequialabs/acequia-go/pkg/netlink"
	"github.com/acequialabs/acequia-go/pkg/provisioning"
)

// Adapter errors.
var (
	ErrAlreadyStarted = errors.New("adapter already started")
	ErrNotStarted     = errors.New("adapter not started")
)

// Default configuration values.
const (
	// DefaultMaxConnectAttempts is how many failed joins with stored
	// credentials the adapter tolerates before falling back to
	// provisioning.
	DefaultMaxConnectAttempts = 5

	// DefaultConnectTimeout bounds the delegate's accept of a join
	// request (not the join itself, which reports via signals).
	DefaultConnectTimeout = 5 * time.Second

	// msgQueueSize is the dispatch queue depth. It must be large enough
	// that the dispatch goroutine never blocks on its own enqueues.
	msgQueueSize = 64
)

// Config holds adapter configuration.
type Config struct {
	// DeviceID identifies the controller in log events.
	DeviceID string

	// Model is the controller model name, used in discovery records.
	Model string

	// Serial is the controller serial number.
	Serial string

	// Firmware is the firmware version string.
	Firmware string

	// MaxConnectAttempts bounds failed joins before falling back to
	// provisioning.
	MaxConnectAttempts int

	// ConnectTimeout bounds delegate.Connect.
	ConnectTimeout time.Duration
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxConnectAttempts: DefaultMaxConnectAttempts,
		ConnectTimeout:     DefaultConnectTimeout,
	}
}

// command is an internal dispatch instruction.
type command uint8

const (
	cmdCheckAndConnect command = iota
	cmdForceProvisioning
	cmdRetryConnect
)

// message is one unit of work for the dispatch goroutine.
type message struct {
	prov *provisioning.Event
	cmd  *command
}

// Adapter is the connectivity state machine. All state transitions run on
// one dispatch goroutine; callers observe state through copied snapshots.
type Adapter struct {
	config   Config
	delegate netlink.Delegate
	bus      *netlink.Bus
	manager  *provisioning.Manager
	detector *bootguard.Detector

	advertiser discovery.Advertiser
	logger     log.Logger

	mu              sync.RWMutex
	status          Status
	started         bool
	provisionReason string
	eventHandler    func(Event)

	backoff *netlink.Backoff

	// Dispatch plumbing. msgs carries provisioning events and commands;
	// bus signals are read directly off the subscription channel. Both
	// msgs and stopCh are replaced on every Start so the adapter can be
	// restarted after Stop.
	msgs       chan message
	busID      uint32
	signals    <-chan netlink.Signal
	stopCh     chan struct{}
	wg         sync.WaitGroup
	retryTimer *time.Timer
}

// NewAdapter creates a connectivity adapter. The bus must be the one the
// delegate publishes on; the manager must publish its lifecycle events to
// this adapter (wired in Start). The detector may be nil when boot-loop
// detection is unavailable.
func NewAdapter(config Config, delegate netlink.Delegate, bus *netlink.Bus, manager *provisioning.Manager, detector *bootguard.Detector) *Adapter {
	if config.MaxConnectAttempts <= 0 {
		config.MaxConnectAttempts = DefaultMaxConnectAttempts
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}

	return &Adapter{
		config:   config,
		delegate: delegate,
		bus:      bus,
		manager:  manager,
		detector: detector,
		logger:   log.NoopLogger{},
		backoff:  netlink.NewBackoff(),
		msgs:     make(chan message, msgQueueSize),
		stopCh:   make(chan struct{}),
		status: Status{
			State: StateUninitialized,
			MAC:   delegate.MACAddress(),
			Since: time.Now(),
		},
	}
}

// SetLogger sets the event logger. Call before Start.
func (a *Adapter) SetLogger(logger log.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if logger == nil {
		logger = log.NoopLogger{}
	}
	a.logger = logger
}

// SetAdvertiser sets the mDNS advertiser. A nil advertiser disables
// discovery. Call before Start.
func (a *Adapter) SetAdvertiser(adv discovery.Advertiser) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advertiser = adv
}

// OnEvent registers the event callback. Events are delivered in order
// from the dispatch goroutine; the callback must not block. Call before
// Start.
func (a *Adapter) OnEvent(fn func(Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eventHandler = fn
}

// Start subscribes to delegate signals, starts the dispatch goroutine and
// kicks off the connect-or-provision decision. It returns before the
// decision resolves; observe progress via OnEvent or Status.
func (a *Adapter) Start() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}

	id, signals, err := a.bus.Subscribe()
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.busID = id
	a.signals = signals

	// Fresh dispatch plumbing every start: a prior Stop closed stopCh and
	// may have left stale messages queued.
	a.stopCh = make(chan struct{})
	a.msgs = make(chan message, msgQueueSize)
	stopCh := a.stopCh
	msgs := a.msgs
	a.started = true
	a.mu.Unlock()

	a.manager.SetEventHandler(a.enqueueProvEvent)

	a.wg.Add(1)
	go a.run(stopCh, signals, msgs)

	a.setState(StateCheckingProvision, "adapter started")
	a.emit(Event{Type: EventInitComplete})
	a.enqueue(message{cmd: cmdPtr(cmdCheckAndConnect)})

	return nil
}

// Stop shuts the dispatch goroutine down and tears down the portal and
// any advertisements. The delegate is left alone; an established link
// survives an adapter restart.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return ErrNotStarted
	}
	a.started = false
	busID := a.busID
	timer := a.retryTimer
	stopCh := a.stopCh
	a.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}

	close(stopCh)
	a.wg.Wait()

	_ = a.bus.Unsubscribe(busID)
	_ = a.manager.Stop()

	a.mu.RLock()
	adv := a.advertiser
	a.mu.RUnlock()
	if adv != nil {
		adv.StopAll()
	}

	return nil
}

// ForceProvisioning stops any in-progress connection attempt and brings
// the captive portal up, regardless of stored credentials.
func (a *Adapter) ForceProvisioning() {
	a.enqueue(message{cmd: cmdPtr(cmdForceProvisioning)})
}

// cmdPtr returns a pointer to the command value.
func cmdPtr(c command) *command {
	return &c
}

// enqueue queues a message for the dispatch goroutine. After Stop the
// message is dropped.
func (a *Adapter) enqueue(m message) {
	a.mu.RLock()
	msgs := a.msgs
	stopCh := a.stopCh
	a.mu.RUnlock()

	select {
	case msgs <- m:
	case <-stopCh:
	}
}

// enqueueProvEvent adapts the provisioning manager's callback onto the
// dispatch queue, preserving order.
func (a *Adapter) enqueueProvEvent(ev provisioning.Event) {
	a.enqueue(message{prov: &ev})
}

// run is the single dispatch goroutine. Every state transition in the
// adapter happens here, in delivery order. The channels are passed in
// rather than read off the struct so a restarted adapter cannot race its
// previous incarnation.
func (a *Adapter) run(stopCh <-chan struct{}, signals <-chan netlink.Signal, msgs <-chan message) {
	defer a.wg.Done()

	for {
		select {
		case <-stopCh:
			return

		case sig, open := <-signals:
			if !open {
				return
			}
			a.handleSignal(sig)

		case m := <-msgs:
			switch {
			case m.prov != nil:
				a.handleProvEvent(*m.prov)
			case m.cmd != nil:
				a.handleCommand(*m.cmd)
			}
		}
	}
}

// handleCommand processes an internal command.
func (a *Adapter) handleCommand(c command) {
	switch c {
	case cmdCheckAndConnect:
		a.checkAndConnect()
	case cmdForceProvisioning:
		a.startProvisioning("forced")
	case cmdRetryConnect:
		a.retryConnect()
	}
}

// checkAndConnect is the boot decision: reset pattern forces provisioning
// even over stored credentials; otherwise stored credentials connect and
// their absence provisions.
func (a *Adapter) checkAndConnect() {
	if a.detector != nil && a.detector.CheckResetPattern() {
		a.emit(Event{Type: EventResetRequested})
		// Consume the pattern so the next boot is a fresh count.
		if err := a.detector.SetNormalOperation(); err != nil {
			a.logError("reset pattern clear", err)
		}
		a.startProvisioning("reset pattern detected")
		return
	}

	if a.manager.IsProvisioned() {
		creds, err := a.manager.Credentials()
		if err == nil && creds != nil {
			a.connect(creds.SSID, creds.Password)
			return
		}
		if err != nil {
			a.logError("credential load", err)
		}
	}

	a.startProvisioning("no stored credentials")
}

// connect asks the delegate to join; the outcome arrives as signals.
func (a *Adapter) connect(ssid, password string) {
	a.setState(StateConnecting, "connecting to "+ssid)

	a.mu.Lock()
	a.status.SSID = ssid
	a.status.Connected = false
	a.status.HasIP = false
	a.status.IP = ""
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.config.ConnectTimeout)
	defer cancel()

	if err := a.delegate.Connect(ctx, ssid, password); err != nil {
		a.logError("connect", err)
		a.recordFailure(err.Error())
	}
}

// startProvisioning tears the link down and brings the portal up. The
// manager's Started event drives the state transition.
func (a *Adapter) startProvisioning(reason string) {
	if err := a.delegate.Disconnect(); err != nil {
		a.logError("disconnect before provisioning", err)
	}

	a.mu.Lock()
	a.status.ConnectAttempts = 0
	a.status.Connected = false
	a.status.HasIP = false
	a.status.IP = ""
	a.provisionReason = reason
	a.mu.Unlock()
	a.backoff.Reset()

	if err := a.manager.Start(); err != nil && !errors.Is(err, provisioning.ErrAlreadyStarted) {
		a.logError("portal start", err)
		a.setState(StateError, "portal failed: "+err.Error())
	}
}

// handleProvEvent processes a provisioning manager lifecycle event.
func (a *Adapter) handleProvEvent(ev provisioning.Event) {
	switch ev {
	case provisioning.EventStarted:
		a.mu.RLock()
		reason := a.provisionReason
		a.mu.RUnlock()
		if reason == "" {
			reason = "portal up"
		}
		a.setState(StateProvisioning, reason)
		a.advertiseSetup()
		a.emit(Event{Type: EventProvisioningStarted})

	case provisioning.EventCredentialsSuccess:
		// Informational; Completed follows and carries the transition.

	case provisioning.EventCredentialsFailure:
		// The portal stays up for another attempt.

	case provisioning.EventCompleted:
		creds, err := a.manager.Credentials()
		if err != nil || creds == nil {
			a.logError("validated credential load", err)
			a.setState(StateError, "validated credentials unreadable")
			return
		}

		if err := a.manager.Stop(); err != nil {
			a.logError("portal stop", err)
		}
		a.stopSetupAdvert()

		a.emit(Event{Type: EventProvisioningCompleted, SSID: creds.SSID})
		a.connect(creds.SSID, creds.Password)

	case provisioning.EventFailed:
		a.setState(StateError, "provisioning failed")
	}
}

// handleSignal processes a delegate signal.
func (a *Adapter) handleSignal(sig netlink.Signal) {
	a.mu.RLock()
	state := a.status.State
	a.mu.RUnlock()

	// While provisioning, link signals belong to the validation protocol's
	// scoped subscription, not to the adapter.
	if state == StateProvisioning {
		return
	}

	switch sig.Kind {
	case netlink.KindConnected:
		a.mu.Lock()
		if sig.SSID != "" {
			a.status.SSID = sig.SSID
		}
		a.status.Connected = true
		a.status.ConnectAttempts = 0
		a.status.LastError = ""
		a.mu.Unlock()
		a.backoff.Reset()

		a.setState(StateConnected, "associated")
		a.emit(Event{Type: EventConnected, SSID: sig.SSID})

	case netlink.KindGotIP:
		a.mu.Lock()
		a.status.IP = sig.IP
		a.status.Connected = true
		a.status.HasIP = true
		connected := a.status.State == StateConnected
		a.mu.Unlock()

		if !connected {
			a.setState(StateConnected, "got ip")
		}
		a.emit(Event{Type: EventIPObtained, SSID: sig.SSID, IP: sig.IP})

		// A working address is the definition of a healthy boot.
		if a.detector != nil {
			if err := a.detector.SetNormalOperation(); err != nil {
				a.logError("boot record clear", err)
			}
		}
		a.advertiseOperational()

	case netlink.KindDisconnected:
		if state != StateConnected && state != StateConnecting {
			return
		}

		a.mu.Lock()
		a.status.IP = ""
		a.status.Connected = false
		a.status.HasIP = false
		a.mu.Unlock()

		a.setState(StateDisconnected, "link lost")
		a.emit(Event{Type: EventDisconnected, SSID: sig.SSID, Detail: sig.Detail})
		a.stopOperationalAdvert()
		a.scheduleRetry()

	case netlink.KindAuthFailed, netlink.KindNetworkNotFound, netlink.KindRetryExhausted:
		if state != StateConnecting && state != StateDisconnected {
			return
		}
		a.recordFailure(sig.Kind.String())
	}
}

// recordFailure counts a failed join and either schedules a retry or
// falls back to provisioning when the budget is spent.
func (a *Adapter) recordFailure(detail string) {
	a.mu.Lock()
	a.status.ConnectAttempts++
	a.status.LastError = detail
	attempts := a.status.ConnectAttempts
	ssid := a.status.SSID
	a.mu.Unlock()

	a.emit(Event{Type: EventConnectionFailed, SSID: ssid, Detail: detail})

	if attempts >= a.config.MaxConnectAttempts {
		// Stored credentials are not working; stop burning the radio and
		// let the operator fix them.
		a.startProvisioning("connection attempts exhausted")
		return
	}

	a.setState(StateDisconnected, "join failed: "+detail)
	a.scheduleRetry()
}

// scheduleRetry arms a backoff timer that re-enters connect.
func (a *Adapter) scheduleRetry() {
	delay := a.backoff.Next()

	a.mu.Lock()
	if a.retryTimer != nil {
		a.retryTimer.Stop()
	}
	a.retryTimer = time.AfterFunc(delay, func() {
		a.enqueue(message{cmd: cmdPtr(cmdRetryConnect)})
	})
	a.mu.Unlock()
}

// retryConnect re-attempts a join with stored credentials, unless the
// state moved on while the timer was pending.
func (a *Adapter) retryConnect() {
	a.mu.RLock()
	state := a.status.State
	a.mu.RUnlock()

	if state != StateDisconnected && state != StateConnecting {
		return
	}

	creds, err := a.manager.Credentials()
	if err != nil || creds == nil {
		a.startProvisioning("credentials gone")
		return
	}
	a.connect(creds.SSID, creds.Password)
}

// advertiseSetup announces the captive portal over mDNS.
func (a *Adapter) advertiseSetup() {
	a.mu.RLock()
	adv := a.advertiser
	a.mu.RUnlock()
	if adv == nil {
		return
	}

	info := &discovery.SetupInfo{
		MAC:    a.delegate.MACAddress(),
		Model:  a.config.Model,
		Serial: a.config.Serial,
		Port:   portalPort(a.manager.Addr()),
	}
	if err := adv.AdvertiseSetup(context.Background(), info); err != nil {
		a.logError("setup advertise", err)
	}
}

// portalPort extracts the port from the portal's bound address, so the
// setup advert points at the live listener and not a default.
func portalPort(addr string) uint16 {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(port)
}

// stopSetupAdvert withdraws the portal advertisement.
func (a *Adapter) stopSetupAdvert() {
	a.mu.RLock()
	adv := a.advertiser
	a.mu.RUnlock()
	if adv == nil {
		return
	}

	if err := adv.StopSetup(); err != nil {
		a.logError("setup advertise stop", err)
	}
}

// advertiseOperational announces the connected controller over mDNS.
func (a *Adapter) advertiseOperational() {
	a.mu.RLock()
	adv := a.advertiser
	ssid := a.status.SSID
	a.mu.RUnlock()
	if adv == nil {
		return
	}

	info := &discovery.OperationalInfo{
		MAC:      a.delegate.MACAddress(),
		Model:    a.config.Model,
		Serial:   a.config.Serial,
		Firmware: a.config.Firmware,
		SSID:     ssid,
	}
	if err := adv.AdvertiseOperational(context.Background(), info); err != nil {
		a.logError("operational advertise", err)
	}
}

// stopOperationalAdvert withdraws the operational advertisement.
func (a *Adapter) stopOperationalAdvert() {
	a.mu.RLock()
	adv := a.advertiser
	a.mu.RUnlock()
	if adv == nil {
		return
	}

	if err := adv.StopOperational(); err != nil {
		a.logError("operational advertise stop", err)
	}
}

// setState updates the snapshot and logs the transition.
func (a *Adapter) setState(newState State, reason string) {
	a.mu.Lock()
	old := a.status.State
	if old == newState {
		a.mu.Unlock()
		return
	}
	a.status.State = newState
	a.status.Since = time.Now()
	logger := a.logger
	a.mu.Unlock()

	logger.Log(log.Event{
		Timestamp: time.Now(),
		DeviceID:  a.config.DeviceID,
		Source:    log.SourceAdapter,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: old.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}

// emit delivers an adapter event to the registered callback.
func (a *Adapter) emit(ev Event) {
	a.mu.RLock()
	handler := a.eventHandler
	state := a.status.State
	a.mu.RUnlock()

	if handler == nil {
		return
	}

	ev.State = state
	ev.Timestamp = time.Now()
	handler(ev)
}

// logError records an error event.
func (a *Adapter) logError(context string, err error) {
	if err == nil {
		return
	}

	a.mu.RLock()
	logger := a.logger
	a.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp: time.Now(),
		DeviceID:  a.config.DeviceID,
		Source:    log.SourceAdapter,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Context: context,
			Message: err.Error(),
		},
	})
}
