// Command acequia-device runs the irrigation controller's connectivity
// stack on a development machine.
//
// The binary wires the boot-loop detector, the connectivity adapter and
// the captive provisioning portal against a simulated radio, so the whole
// onboarding flow can be exercised without controller hardware:
//   - boot counting and reset-pattern recovery
//   - captive portal provisioning with validate-before-commit
//   - reconnection with backoff after link loss
//   - mDNS advertising of the portal and the operational service
//
// Usage:
//
//	acequia-device [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-data-dir string   Directory for credentials and boot records (default "./data")
//	-listen string     Captive portal listen address (default ":8080")
//	-log-file string   Connectivity event log path (CBOR, .alog)
//	-serial string     Controller serial number
//	-name string       Operator-assigned device name
//	-mdns              Advertise over mDNS (default true)
//	-interactive       Start the interactive console (default true)
//
// Examples:
//
//	# Run with defaults and poke the portal at http://localhost:8080
//	acequia-device
//
//	# Run against a config file, logging events to disk
//	acequia-device -config /etc/acequia/device.yaml -log-file /var/log/acequia/device.alog
package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/acequialabs/acequia-go/cmd/acequia-device/interactive"
	"github.com/acequialabs/acequia-go/pkg/bootguard"
	"github.com/acequialabs/acequia-go/pkg/connectivity"
	"github.com/acequialabs/acequia-go/pkg/discovery"
	"github.com/acequialabs/acequia-go/pkg/log"
	"github.com/acequialabs/acequia-go/pkg/netlink"
	"github.com/acequialabs/acequia-go/pkg/persistence"
	"github.com/acequialabs/acequia-go/pkg/provisioning"
)

func main() {
	cfg := defaultDeviceConfig()

	var configFile string
	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for credentials and boot records")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Captive portal listen address")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Connectivity event log path")
	flag.StringVar(&cfg.Serial, "serial", cfg.Serial, "Controller serial number")
	flag.StringVar(&cfg.DeviceName, "name", cfg.DeviceName, "Operator-assigned device name")
	flag.BoolVar(&cfg.MDNS, "mdns", cfg.MDNS, "Advertise over mDNS")
	flag.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Start the interactive console")
	flag.Parse()

	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			stdlog.Fatalf("Failed to load config %s: %v", configFile, err)
		}
	}
	if err := cfg.validate(); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)
	stdlog.Println("Acequia irrigation controller (simulated radio)")
	stdlog.Printf("Serial: %s", cfg.Serial)
	stdlog.Printf("Data dir: %s", cfg.DataDir)
	stdlog.Printf("Portal: %s", cfg.ListenAddr)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		stdlog.Fatalf("Failed to create data dir: %v", err)
	}

	// Event logging: always to stderr via slog, optionally to a CBOR file.
	logger, closeLogger, err := buildLogger(cfg)
	if err != nil {
		stdlog.Fatalf("Failed to open event log: %v", err)
	}
	defer closeLogger()

	// Radio and signal fan-out.
	bus := netlink.NewBus()
	defer bus.Close()
	radio := newSimRadio(bus, cfg.SimNetworks())

	// Boot-loop detection. Every process start counts as a boot; a quick
	// run of restarts within the window forces provisioning.
	detector := bootguard.NewDetector(
		persistence.NewBootRecordStore(filepath.Join(cfg.DataDir, "bootrecord.json")),
		bootguard.DefaultConfig(),
	)
	if err := detector.Init(); err != nil {
		stdlog.Fatalf("Failed to init boot detector: %v", err)
	}
	if err := detector.Increment(); err != nil {
		stdlog.Printf("Warning: boot count not recorded: %v", err)
	}
	stdlog.Printf("Boot count: %d", detector.BootCount())

	// Credential storage.
	store := persistence.NewCredentialsStore(filepath.Join(cfg.DataDir, "credentials.json"))

	// Provisioning manager.
	mcfg := provisioning.DefaultConfig()
	mcfg.ListenAddr = cfg.ListenAddr
	mcfg.DeviceID = cfg.Serial
	manager := provisioning.NewManager(mcfg, radio, bus, store)
	manager.SetLogger(logger)
	manager.SetMemoryGauge(provisioning.RuntimeGauge{Budget: cfg.MemoryBudget})

	// Connectivity adapter.
	acfg := connectivity.DefaultConfig()
	acfg.DeviceID = cfg.Serial
	acfg.Model = cfg.Model
	acfg.Serial = cfg.Serial
	acfg.Firmware = cfg.Firmware
	adapter := connectivity.NewAdapter(acfg, radio, bus, manager, detector)
	adapter.SetLogger(logger)

	if cfg.MDNS {
		advertiser, err := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
		if err != nil {
			stdlog.Printf("Warning: mDNS unavailable: %v", err)
		} else {
			adapter.SetAdvertiser(advertiser)
		}
	}

	adapter.OnEvent(func(ev connectivity.Event) {
		stdlog.Printf("[%s] state=%s ssid=%s ip=%s %s",
			ev.Type, ev.State, ev.SSID, ev.IP, ev.Detail)
	})

	if err := adapter.Start(); err != nil {
		stdlog.Fatalf("Failed to start adapter: %v", err)
	}
	stdlog.Printf("Adapter started (state: %s)", adapter.State())

	if cfg.Interactive {
		console, err := interactive.New(adapter, manager, radio, detector)
		if err != nil {
			stdlog.Fatalf("Failed to start console: %v", err)
		}
		console.Run()
	} else {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		stdlog.Printf("Received signal: %v", sig)
	}

	stdlog.Println("Shutting down...")
	if err := adapter.Stop(); err != nil {
		stdlog.Printf("Error stopping adapter: %v", err)
	}
	stdlog.Println("Goodbye!")
}

// buildLogger assembles the event logger from the configuration.
func buildLogger(cfg *deviceConfig) (log.Logger, func(), error) {
	slogAdapter := log.NewSlogAdapter(newSlog())

	if cfg.LogFile == "" {
		return slogAdapter, func() {}, nil
	}

	fileLogger, err := log.NewFileLogger(cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.LogFile, err)
	}

	closer := func() {
		if err := fileLogger.Close(); err != nil {
			stdlog.Printf("Error closing event log: %v", err)
		}
	}
	return log.NewMultiLogger(slogAdapter, fileLogger), closer, nil
}
