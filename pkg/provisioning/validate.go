package provisioning

import (
	"context"
	"time"

	"github.com/acequialabs/acequia-go/pkg/log"
	"github.com/acequialabs/acequia-go/pkg/netlink"
)

// ValidateCredentials attempts a real join with the candidate credentials
// and blocks until a terminal signal arrives or the validation window
// expires. At most one validation runs at a time; concurrent callers queue.
//
// The outcome is produced exactly once per attempt. Only the caller may
// persist credentials, and only on OutcomeOk.
func (m *Manager) ValidateCredentials(ctx context.Context, ssid, password string) ValidationOutcome {
	m.validationMu.Lock()
	defer m.validationMu.Unlock()

	m.setState(StateValidating, "validating "+ssid)
	defer func() {
		// Completed survives; anything else returns to the portal.
		m.mu.Lock()
		if m.state == StateValidating {
			m.setStateLocked(StateActive, "validation finished")
		}
		m.mu.Unlock()
	}()

	start := time.Now()
	outcome := m.runValidation(ctx, ssid, password)

	m.mu.RLock()
	logger := m.logger
	sessionID := m.sessionID
	m.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp: time.Now(),
		DeviceID:  m.config.DeviceID,
		SessionID: sessionID,
		Source:    log.SourceProvisioning,
		Category:  log.CategoryValidation,
		Validation: &log.ValidationEvent{
			SSID:    ssid,
			Outcome: outcome.String(),
			Elapsed: time.Since(start),
		},
	})

	return outcome
}

// runValidation performs one scoped validation attempt.
func (m *Manager) runValidation(ctx context.Context, ssid, password string) ValidationOutcome {
	// Fresh scoped subscription, registered before the join starts so no
	// signal can slip past. Unregistered on every path.
	id, signals, err := m.bus.Subscribe()
	if err != nil {
		m.logError("validation subscribe", err)
		return OutcomeGeneralError
	}
	defer func() {
		_ = m.bus.Unsubscribe(id)
	}()

	if err := m.delegate.Connect(ctx, ssid, password); err != nil {
		m.logError("validation connect", err)
		return OutcomeGeneralError
	}

	timer := time.NewTimer(m.config.ValidationTimeout)
	defer timer.Stop()

	for {
		select {
		case sig, open := <-signals:
			if !open {
				return OutcomeGeneralError
			}

			switch sig.Kind {
			case netlink.KindConnected, netlink.KindGotIP:
				return OutcomeOk
			case netlink.KindAuthFailed:
				m.forceDisconnect()
				return OutcomeAuthFailed
			case netlink.KindNetworkNotFound:
				m.forceDisconnect()
				return OutcomeNetworkNotFound
			case netlink.KindRetryExhausted:
				return OutcomeTimeout
			case netlink.KindDisconnected:
				// The delegate bounces between retries; not terminal.
			}

		case <-timer.C:
			// Stop the delegate's internal retry loop; otherwise it keeps
			// retrying a doomed connection in the background.
			m.forceDisconnect()
			return OutcomeTimeout

		case <-ctx.Done():
			m.forceDisconnect()
			return OutcomeTimeout
		}
	}
}

// forceDisconnect aborts the in-flight join attempt.
func (m *Manager) forceDisconnect() {
	if err := m.delegate.Disconnect(); err != nil {
		m.logError("validation disconnect", err)
	}
}
