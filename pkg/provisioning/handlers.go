package provisioning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/acequialabs/acequia-go/pkg/log"
	"github.com/acequialabs/acequia-go/pkg/persistence"
)

// scanEntry is one network in the /scan response.
type scanEntry struct {
	SSID string `json:"ssid"`
	RSSI int    `json:"rssi"`
	Auth string `json:"auth"`
}

// submitResponse is the body for credential submissions.
type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// errorResponse is the body for refused or failed requests.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleIndex serves the configuration page.
func (m *Manager) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		m.logPortal(r, http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		m.logPortal(r, http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	writeChunked(w, portalPage)
	m.logPortal(r, http.StatusOK)
}

// handleScan runs a bounded active scan and returns nearby networks.
func (m *Manager) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		m.logPortal(r, http.StatusMethodNotAllowed)
		return
	}

	if !m.admit() {
		m.writeJSON(w, r, http.StatusServiceUnavailable,
			errorResponse{Error: "low_memory", Message: lowMemoryMessage})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), m.config.ScanTimeout)
	defer cancel()

	networks, err := m.delegate.Scan(ctx)
	if err != nil {
		m.logError("scan", err)
		m.writeJSON(w, r, http.StatusInternalServerError,
			errorResponse{Error: "scan_failed", Message: "Error al buscar redes"})
		return
	}

	entries := make([]scanEntry, 0, m.config.MaxScanResults)
	for _, n := range networks {
		if n.SSID == "" {
			// Hidden networks are useless on a selection page.
			continue
		}
		if len(entries) >= m.config.MaxScanResults {
			break
		}

		auth := "open"
		if n.Secured {
			auth = "secured"
		}
		entries = append(entries, scanEntry{SSID: n.SSID, RSSI: n.RSSI, Auth: auth})
	}

	m.writeJSON(w, r, http.StatusOK, entries)
}

// handleConfig accepts the full configuration form: network credentials
// plus device name and location.
func (m *Manager) handleConfig(w http.ResponseWriter, r *http.Request) {
	m.handleSubmit(w, r, true)
}

// handleConnect accepts the minimal variant: credentials only.
func (m *Manager) handleConnect(w http.ResponseWriter, r *http.Request) {
	m.handleSubmit(w, r, false)
}

// handleSubmit validates submitted credentials and commits them on success.
func (m *Manager) handleSubmit(w http.ResponseWriter, r *http.Request, withMetadata bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		m.logPortal(r, http.StatusMethodNotAllowed)
		return
	}

	if !m.admit() {
		m.writeJSON(w, r, http.StatusServiceUnavailable,
			errorResponse{Error: "low_memory", Message: lowMemoryMessage})
		return
	}

	// Read one byte past the cap so an oversized body is rejected rather
	// than silently truncated, which could chop a field mid-escape.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes+1))
	if err != nil {
		m.writeJSON(w, r, http.StatusBadRequest,
			submitResponse{Success: false, Message: "Solicitud inválida"})
		return
	}
	if len(body) > maxFormBytes {
		m.writeJSON(w, r, http.StatusBadRequest,
			submitResponse{Success: false, Message: "Solicitud demasiado grande"})
		return
	}

	fields := parseForm(string(body))
	ssid := formField(fields, "ssid", MaxSSIDLen)
	password := formField(fields, "password", MaxPasswordLen)

	if ssid == "" {
		m.writeJSON(w, r, http.StatusBadRequest,
			submitResponse{Success: false, Message: "Falta el nombre de la red"})
		return
	}

	outcome := m.ValidateCredentials(r.Context(), ssid, password)
	if outcome != OutcomeOk {
		m.emit(EventCredentialsFailure)
		m.writeJSON(w, r, http.StatusOK,
			submitResponse{Success: false, Message: outcome.Message()})
		return
	}

	creds := &persistence.DeviceCredentials{
		Version:  persistence.CredentialsVersion,
		SavedAt:  time.Now(),
		SSID:     ssid,
		Password: password,
	}
	if withMetadata {
		creds.DeviceName = formField(fields, "device_name", MaxDeviceNameLen)
		creds.DeviceLocation = formField(fields, "device_location", MaxLocationLen)
	}

	if err := m.store.Save(creds); err != nil {
		m.logError("credential save", err)
		m.emit(EventFailed)
		m.writeJSON(w, r, http.StatusInternalServerError,
			submitResponse{Success: false, Message: "Error al guardar la configuración"})
		return
	}

	m.setState(StateCompleted, "credentials committed")

	// The response goes out before the completion events: handling
	// Completed tears this very server down, and the client must not lose
	// the success message to that teardown.
	m.writeJSON(w, r, http.StatusOK,
		submitResponse{Success: true, Message: outcome.Message()})
	if flusher, canFlush := w.(http.Flusher); canFlush {
		flusher.Flush()
	}

	// Success strictly precedes completion.
	m.emit(EventCredentialsSuccess)
	m.emit(EventCompleted)
}

// writeJSON writes a JSON response body and logs the portal request.
func (m *Manager) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		m.logError("response encode", err)
	}
	m.logPortal(r, status)
}

// logPortal records a portal request event.
func (m *Manager) logPortal(r *http.Request, status int) {
	m.mu.RLock()
	logger := m.logger
	sessionID := m.sessionID
	m.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp: time.Now(),
		DeviceID:  m.config.DeviceID,
		SessionID: sessionID,
		Source:    log.SourcePortal,
		Category:  log.CategoryPortal,
		Portal: &log.PortalEvent{
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     status,
			RemoteAddr: r.RemoteAddr,
		},
	})
}
