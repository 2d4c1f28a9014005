// Package interactive provides the development console for acequia-device.
package interactive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/acequialabs/acequia-go/pkg/bootguard"
	"github.com/acequialabs/acequia-go/pkg/connectivity"
	"github.com/acequialabs/acequia-go/pkg/netlink"
	"github.com/acequialabs/acequia-go/pkg/provisioning"
)

// Radio is the simulated radio surface the console controls beyond the
// regular delegate operations.
type Radio interface {
	netlink.Delegate

	// DropLink simulates sudden link loss.
	DropLink()
}

// Console is the interactive command loop.
type Console struct {
	adapter  *connectivity.Adapter
	manager  *provisioning.Manager
	radio    Radio
	detector *bootguard.Detector
	rl       *readline.Instance
}

// New creates the console.
func New(adapter *connectivity.Adapter, manager *provisioning.Manager, radio Radio, detector *bootguard.Detector) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "acequia> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{
		adapter:  adapter,
		manager:  manager,
		radio:    radio,
		detector: detector,
		rl:       rl,
	}, nil
}

// Run starts the command loop and blocks until exit.
func (c *Console) Run() {
	defer c.rl.Close()

	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "status", "s":
			c.cmdStatus()

		case "scan":
			c.cmdScan()

		case "creds":
			c.cmdCreds()

		case "provision", "p":
			c.adapter.ForceProvisioning()
			fmt.Fprintln(c.rl.Stdout(), "Forcing provisioning...")

		case "reset":
			c.cmdReset()

		case "drop", "d":
			c.radio.DropLink()
			fmt.Fprintln(c.rl.Stdout(), "Link dropped")

		case "boots", "b":
			c.cmdBoots()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `Commands:
  status, s      Show adapter and portal state
  scan           Scan for networks
  creds          Show stored credentials
  provision, p   Force provisioning mode
  reset          Clear stored credentials
  drop, d        Simulate link loss
  boots, b       Show boot counter
  quit, q        Exit`)
}

func (c *Console) cmdStatus() {
	out := c.rl.Stdout()
	status := c.adapter.Status()

	fmt.Fprintf(out, "Adapter:  %s (since %s)\n",
		status.State, status.Since.Format(time.TimeOnly))
	if status.SSID != "" {
		fmt.Fprintf(out, "Network:  %s\n", status.SSID)
	}
	if status.IP != "" {
		fmt.Fprintf(out, "IP:       %s\n", status.IP)
	}
	fmt.Fprintf(out, "MAC:      %s\n", status.MAC)
	if status.LastError != "" {
		fmt.Fprintf(out, "Last err: %s (attempts %d)\n", status.LastError, status.ConnectAttempts)
	}

	fmt.Fprintf(out, "Portal:   %s", c.manager.State())
	if addr := c.manager.Addr(); addr != "" {
		fmt.Fprintf(out, " at http://%s", addr)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Provisioned: %v\n", c.manager.IsProvisioned())
}

func (c *Console) cmdScan() {
	out := c.rl.Stdout()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	networks, err := c.radio.Scan(ctx)
	if err != nil {
		fmt.Fprintf(out, "Scan failed: %v\n", err)
		return
	}

	for _, n := range networks {
		auth := "open"
		if n.Secured {
			auth = "secured"
		}
		fmt.Fprintf(out, "  %-32s %4d dBm  %s\n", n.SSID, n.RSSI, auth)
	}
	fmt.Fprintf(out, "%d networks\n", len(networks))
}

func (c *Console) cmdCreds() {
	out := c.rl.Stdout()

	creds, err := c.manager.Credentials()
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	if creds == nil {
		fmt.Fprintln(out, "No stored credentials")
		return
	}

	fmt.Fprintf(out, "SSID:     %s\n", creds.SSID)
	fmt.Fprintf(out, "Password: %s\n", strings.Repeat("*", len(creds.Password)))
	if creds.DeviceName != "" {
		fmt.Fprintf(out, "Name:     %s\n", creds.DeviceName)
	}
	if creds.DeviceLocation != "" {
		fmt.Fprintf(out, "Location: %s\n", creds.DeviceLocation)
	}
	fmt.Fprintf(out, "Saved:    %s\n", creds.SavedAt.Format(time.RFC3339))
}

func (c *Console) cmdReset() {
	if err := c.manager.ResetCredentials(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Reset failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Credentials cleared; use 'provision' to reconfigure")
}

func (c *Console) cmdBoots() {
	out := c.rl.Stdout()
	record := c.detector.Snapshot()

	fmt.Fprintf(out, "Boot count: %d\n", record.BootCount)
	if record.BootCount > 0 {
		fmt.Fprintf(out, "Window started: %s\n", record.FirstBoot.Format(time.RFC3339))
		fmt.Fprintf(out, "Last boot:      %s\n", record.LastBoot.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Reset pattern:  %v\n", c.detector.CheckResetPattern())
}
