// Command acequia-log views and analyzes controller connectivity logs.
//
// Log files (.alog) are CBOR event streams written by the connectivity
// stack when acequia-device runs with -log-file.
//
// Usage:
//
//	acequia-log <command> [flags] <file.alog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL
//	stats    Show event counts per source and category
//
// Examples:
//
//	# View all events
//	acequia-log view device.alog
//
//	# View only validation events
//	acequia-log view -category validation device.alog
//
//	# View one provisioning session
//	acequia-log view -session 2f0c4a1e-... device.alog
//
//	# Export to JSONL
//	acequia-log export device.alog > device.jsonl
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/acequialabs/acequia-go/pkg/log"
)

const usage = `acequia-log - Connectivity log analyzer

Usage:
  acequia-log <command> [flags] <file.alog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL
  stats    Show event counts per source and category

Use "acequia-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// parseFilter builds a Filter from the shared flag values.
func parseFilter(source, category, session, device string) (log.Filter, error) {
	filter := log.Filter{SessionID: session, DeviceID: device}

	if source != "" {
		s, err := sourceByName(source)
		if err != nil {
			return filter, err
		}
		filter.Source = &s
	}
	if category != "" {
		c, err := categoryByName(category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func sourceByName(name string) (log.Source, error) {
	for _, s := range []log.Source{
		log.SourceAdapter, log.SourceProvisioning, log.SourceDelegate,
		log.SourceBootguard, log.SourcePortal,
	} {
		if strings.EqualFold(s.String(), name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown source: %s", name)
}

func categoryByName(name string) (log.Category, error) {
	for _, c := range []log.Category{
		log.CategoryState, log.CategorySignal, log.CategoryPortal,
		log.CategoryValidation, log.CategoryError,
	} {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category: %s", name)
}

// openReader parses the shared flags and opens the filtered reader.
func openReader(fs *flag.FlagSet, args []string) *log.Reader {
	source := fs.String("source", "", "Filter by source (adapter, provisioning, delegate, bootguard, portal)")
	category := fs.String("category", "", "Filter by category (state, signal, portal, validation, error)")
	session := fs.String("session", "", "Filter by session ID")
	device := fs.String("device", "", "Filter by device ID")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	filter, err := parseFilter(*source, *category, *session, *device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	reader, err := log.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return reader
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	reader := openReader(fs, args)
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(formatEvent(event))
	}
}

// formatEvent renders one event as a single line.
func formatEvent(event log.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %-12s %-10s",
		event.Timestamp.Format("15:04:05.000"), event.Source, event.Category)

	switch {
	case event.StateChange != nil:
		fmt.Fprintf(&b, " %s -> %s", event.StateChange.OldState, event.StateChange.NewState)
		if event.StateChange.Reason != "" {
			fmt.Fprintf(&b, " (%s)", event.StateChange.Reason)
		}
	case event.Signal != nil:
		fmt.Fprintf(&b, " %s", event.Signal.Name)
		if event.Signal.SSID != "" {
			fmt.Fprintf(&b, " ssid=%s", event.Signal.SSID)
		}
	case event.Portal != nil:
		fmt.Fprintf(&b, " %s %s %d", event.Portal.Method, event.Portal.Path, event.Portal.Status)
	case event.Validation != nil:
		fmt.Fprintf(&b, " ssid=%s outcome=%s elapsed=%s",
			event.Validation.SSID, event.Validation.Outcome, event.Validation.Elapsed)
	case event.Error != nil:
		fmt.Fprintf(&b, " %s: %s", event.Error.Context, event.Error.Message)
	}

	if event.SessionID != "" {
		fmt.Fprintf(&b, " [%.8s]", event.SessionID)
	}
	return b.String()
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	reader := openReader(fs, args)
	defer reader.Close()

	encoder := json.NewEncoder(os.Stdout)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := encoder.Encode(event); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	reader := openReader(fs, args)
	defer reader.Close()

	total := 0
	bySource := make(map[string]int)
	byCategory := make(map[string]int)

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		total++
		bySource[event.Source.String()]++
		byCategory[event.Category.String()]++
	}

	fmt.Printf("Events: %d\n\nBy source:\n", total)
	for name, count := range bySource {
		fmt.Printf("  %-14s %d\n", name, count)
	}
	fmt.Println("\nBy category:")
	for name, count := range byCategory {
		fmt.Printf("  %-14s %d\n", name, count)
	}
}
