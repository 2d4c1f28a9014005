package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/acequialabs/acequia-go/pkg/bootguard"
)

// BootRecordStore persists the boot-cycle record to a file in
// reset-surviving storage (a retained RAM region mounted as tmpfs on the
// target). A soft reset keeps the file; cold power loss clears it, which
// the detector's sentinel check treats as a fresh record.
type BootRecordStore struct {
	mu   sync.Mutex
	path string
}

// NewBootRecordStore creates a new boot record store.
func NewBootRecordStore(path string) *BootRecordStore {
	return &BootRecordStore{path: path}
}

// Save persists the record.
func (s *BootRecordStore) Save(record *bootguard.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the record.
// Returns nil, nil if the file doesn't exist. A file that doesn't parse as
// a record is reported as nil as well: retained garbage must read as
// "absent", not as an error the caller has to special-case.
func (s *BootRecordStore) Load() (*bootguard.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record := &bootguard.Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, nil
	}

	return record, nil
}

// Clear removes the record file.
func (s *BootRecordStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Compile-time check: *BootRecordStore implements bootguard.Store.
var _ bootguard.Store = (*BootRecordStore)(nil)
