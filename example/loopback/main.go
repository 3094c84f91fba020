package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Xuanphat2004/moxa-gateway"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/fieldbus"
)

// Runs both gateway halves in one process against a simulated device and reads one
// register through the TCP side.
func main() {
	cfg := moxagateway.DefaultConfig()
	cfg.TCP.Listen = "127.0.0.1:0"
	cfg.Metrics.Addr = ""

	sim := fieldbus.NewSimulator(map[uint16]uint16{500: 42})
	store := moxagateway.NewStaticMappings(moxagateway.MappingEntry{RTUID: 2, PublicAddress: 100, DeviceAddress: 500})

	lb, err := moxagateway.NewLoopback(cfg, moxagateway.WithFieldDialer(sim), moxagateway.WithMappingStore(store))
	if err != nil {
		log.Fatalf("build loopback: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- lb.Run(ctx) }()
	<-lb.Ready()

	client := &moxagateway.Client{Addr: lb.Addr().String(), Timeout: 3 * time.Second}
	reply, err := client.Read(ctx, moxagateway.Request{TransactionID: 7, RTUID: 2, Address: 100, Function: 3, Quantity: 1})
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	log.Printf("tid=%d value=%d exception=%d", reply.TransactionID, reply.Value, reply.Exception)

	stop()
	if err := <-done; err != nil {
		log.Fatalf("loopback exited: %v", err)
	}
}
