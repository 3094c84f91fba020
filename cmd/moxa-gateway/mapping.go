package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Xuanphat2004/moxa-gateway"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/mapping"
)

func mappingCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("mapping needs a subcommand: init, add, rm or ls")
	}
	sub := args[0]

	fs := flag.NewFlagSet("mapping "+sub, flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to gateway configuration file")
	rtu := fs.Uint("rtu", 0, "RTU (slave) id")
	public := fs.Uint("public", 0, "Public register address seen by TCP clients")
	device := fs.Uint("device", 0, "Register address on the device")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *rtu > 0xffff || *public > 0xffff || *device > 0xffff {
		return fmt.Errorf("rtu, public and device must fit in 16 bits")
	}

	cfg, err := moxagateway.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entry := moxagateway.MappingEntry{RTUID: uint16(*rtu), PublicAddress: uint16(*public), DeviceAddress: uint16(*device)}

	if cfg.Mapping.Driver == "dynamodb" {
		if sub != "add" {
			return fmt.Errorf("mapping %s is only supported on sql drivers", sub)
		}
		store, err := mapping.OpenDynamoStore(ctx, cfg.Mapping.Region, cfg.Mapping.Table)
		if err != nil {
			return err
		}
		return store.Put(ctx, entry)
	}

	store, err := mapping.OpenSQL(ctx, cfg.Mapping)
	if err != nil {
		return err
	}
	defer store.Close()

	switch sub {
	case "init":
		if err := store.Init(ctx); err != nil {
			return err
		}
		fmt.Printf("tables ready in %s\n", cfg.Mapping.DSN)
	case "add":
		if err := store.Put(ctx, entry); err != nil {
			return err
		}
		fmt.Printf("rtu %d address %d -> %d\n", entry.RTUID, entry.PublicAddress, entry.DeviceAddress)
	case "rm":
		return store.Delete(ctx, entry.RTUID, entry.PublicAddress)
	case "ls":
		entries, err := store.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RTU\tPUBLIC\tDEVICE")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%d\t%d\n", e.RTUID, e.PublicAddress, e.DeviceAddress)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown mapping subcommand %q", sub)
	}
	return nil
}
