package cli

import (
	"fmt"
	"io"
	"strings"
)

const (
	ModeOrder  = "order-service"
	ModeNotify = "notification-subscriber"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeOrder, "order":
		return ModeOrder, true
	case ModeNotify, "notify":
		return ModeNotify, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `order-service --port=3001`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "--mode=") {
			mode = strings.TrimPrefix(arg, "--mode=")
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, nil
	}

	canonical, ok := isKnownMode(mode)
	if !ok {
		return "", out, fmt.Errorf("unknown mode %q", mode)
	}
	return canonical, out, nil
}

// PrintUsage writes the CLI usage help.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  coffee-order <mode> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Modes:")
	fmt.Fprintln(w, "  order-service            HTTP order API with status notifications (alias: order)")
	fmt.Fprintln(w, "  notification-subscriber  print the live notification feed (alias: notify)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --config=<path>  config file (default config/config.yaml)")
	fmt.Fprintln(w, "  --port=<n>       HTTP port override (order-service only)")
}
