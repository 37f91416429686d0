package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coffee-order/cmd/notificationservice"
	"coffee-order/cmd/orderservice"
	"coffee-order/internal/cli"
)

func main() {
	// check for help flag first
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse all command-line arguments
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// ensure that mode is not empty
	if mode == "" {
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// create context cancelled on SIGINT/SIGTERM signals ensuring graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// run the service specified by the mode flag
	switch mode {
	case cli.ModeOrder:
		fs := flag.NewFlagSet(cli.ModeOrder, flag.ExitOnError)
		configPath := fs.String("config", "config/config.yaml", "path to config file")
		port := fs.Int("port", 0, "HTTP port override")
		_ = fs.Parse(svcArgs)
		if err := orderservice.Run(ctx, *configPath, *port); err != nil {
			os.Exit(1)
		}

	case cli.ModeNotify:
		fs := flag.NewFlagSet(cli.ModeNotify, flag.ExitOnError)
		configPath := fs.String("config", "config/config.yaml", "path to config file")
		_ = fs.Parse(svcArgs)
		if err := notificationservice.Run(ctx, *configPath); err != nil {
			os.Exit(1)
		}
	}
}
