package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CredentialsVersion is the current version of the credentials file format.
const CredentialsVersion = 1

// DeviceCredentials contains the validated network configuration for the
// controller. The connectivity core only ever writes this after a
// credential validation returned Ok.
type DeviceCredentials struct {
	// Version is the credentials file format version.
	Version int `json:"version"`

	// SavedAt is when the credentials were last saved.
	SavedAt time.Time `json:"saved_at"`

	// SSID is the network name.
	SSID string `json:"ssid"`

	// Password is the network password (empty for open networks).
	Password string `json:"password,omitempty"`

	// DeviceName is the operator-assigned controller name.
	DeviceName string `json:"device_name,omitempty"`

	// DeviceLocation is the operator-assigned location (field, block, lot).
	DeviceLocation string `json:"device_location,omitempty"`
}

// CredentialsStore manages persistence of device credentials to a JSON file.
type CredentialsStore struct {
	mu   sync.Mutex
	path string
}

// NewCredentialsStore creates a new credentials store.
func NewCredentialsStore(path string) *CredentialsStore {
	return &CredentialsStore{path: path}
}

// Save persists the credentials to disk.
func (s *CredentialsStore) Save(creds *DeviceCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	creds.Version = CredentialsVersion
	if creds.SavedAt.IsZero() {
		creds.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	// Credentials are secret material: owner read/write only.
	return os.WriteFile(s.path, data, 0600)
}

// Load reads the credentials from disk.
// Returns nil, nil if the file doesn't exist (not provisioned).
func (s *CredentialsStore) Load() (*DeviceCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	creds := &DeviceCredentials{}
	if err := json.Unmarshal(data, creds); err != nil {
		return nil, err
	}

	return creds, nil
}

// IsProvisioned reports whether valid credentials are stored.
// The stored file is authoritative; callers must not cache this answer.
func (s *CredentialsStore) IsProvisioned() bool {
	creds, err := s.Load()
	return err == nil && creds != nil && creds.SSID != ""
}

// Clear removes the credentials file.
func (s *CredentialsStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
