package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// deviceConfig is the runtime configuration, from flags and optionally a
// YAML file. File values override flag values for the fields they set.
type deviceConfig struct {
	DataDir      string `yaml:"data_dir"`
	ListenAddr   string `yaml:"listen_addr"`
	LogFile      string `yaml:"log_file"`
	Serial       string `yaml:"serial"`
	Model        string `yaml:"model"`
	Firmware     string `yaml:"firmware"`
	DeviceName   string `yaml:"device_name"`
	MemoryBudget uint64 `yaml:"memory_budget"`
	MDNS         bool   `yaml:"mdns"`
	Interactive  bool   `yaml:"interactive"`

	// Networks the simulated radio can see and join.
	Networks []simNetwork `yaml:"networks"`
}

// simNetwork describes one simulated access point.
type simNetwork struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	RSSI     int    `yaml:"rssi"`
	Secured  bool   `yaml:"secured"`
}

// defaultDeviceConfig returns the development defaults: one joinable farm
// network, a neighbor and an open network.
func defaultDeviceConfig() *deviceConfig {
	return &deviceConfig{
		DataDir:      "./data",
		ListenAddr:   ":8080",
		Serial:       "AQ100-DEV001",
		Model:        "AQ-100",
		Firmware:     "dev",
		MemoryBudget: 64 * 1024 * 1024,
		MDNS:         true,
		Interactive:  true,
		Networks: []simNetwork{
			{SSID: "FarmNet", Password: "regar123", RSSI: -52, Secured: true},
			{SSID: "Vecino", Password: "ajena", RSSI: -75, Secured: true},
			{SSID: "Abierta", RSSI: -63},
		},
	}
}

// loadFile merges a YAML configuration file over the current values.
func (c *deviceConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// validate checks the configuration for obvious mistakes.
func (c *deviceConfig) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Serial == "" {
		return fmt.Errorf("serial must not be empty")
	}
	if c.MemoryBudget == 0 {
		return fmt.Errorf("memory budget must be positive")
	}
	return nil
}

// SimNetworks returns the simulated access points.
func (c *deviceConfig) SimNetworks() []simNetwork {
	return c.Networks
}

// newSlog builds the text logger for stderr output.
func newSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
