package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Xuanphat2004/moxa-gateway"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "tcp":
		err = tcpCommand(os.Args[2:])
	case "field":
		err = fieldCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "mapping":
		err = mappingCommand(os.Args[2:])
	case "probe":
		err = probeCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("moxa-gateway %s: %v", cmd, err)
	}
}

func loadFromFlags(name string, args []string) (*moxagateway.Config, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to gateway configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := moxagateway.LoadConfig(*cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func tcpCommand(args []string) error {
	cfg, err := loadFromFlags("tcp", args)
	if err != nil {
		return err
	}
	rt, err := moxagateway.NewTCPRuntime(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func fieldCommand(args []string) error {
	cfg, err := loadFromFlags("field", args)
	if err != nil {
		return err
	}
	rt, err := moxagateway.NewFieldRuntime(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := moxagateway.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good: bus=%s mapping=%s field=%s reply=%s\n",
		*cfgPath, cfg.Bus.Driver, cfg.Mapping.Driver, cfg.Field.Transport, cfg.TCP.ReplyFormat)
	return nil
}

func printUsage() {
	fmt.Printf(`MOXA gateway CLI

Usage:
  moxa-gateway <command> [flags]

Commands:
  tcp        Run the client-facing TCP gateway
  field      Run the field-bus (RTU) gateway
  validate   Load and validate a config file without starting anything
  stats      Poll the Prometheus metrics endpoint and print live counters
  mapping    Manage the SQL mapping table (init, add, rm, ls)
  probe      Send one read request to a running TCP gateway

Run "mapping init" once against a new database before "mapping add" or log.db.
It creates the mapping table keyed on (rtu_id, tcp_address) and the logs table.

Examples:
  moxa-gateway mapping init -config ./data/config.yaml
  moxa-gateway tcp -config ./data/config.yaml
  moxa-gateway field -config ./data/config.yaml
  moxa-gateway mapping add -config ./data/config.yaml -rtu 2 -public 100 -device 500
  moxa-gateway probe -addr 127.0.0.1:1502 -rtu 2 -address 100
  moxa-gateway stats -url http://localhost:9100/metrics -interval 1s
`)
}
