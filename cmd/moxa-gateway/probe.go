package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/Xuanphat2004/moxa-gateway"
)

func probeCommand(args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:1502", "TCP gateway address")
	format := fs.String("format", "legacy", "Reply format the gateway uses (legacy or wide)")
	tid := fs.Uint("tid", 1, "Transaction id")
	rtu := fs.Uint("rtu", 1, "RTU (slave) id")
	address := fs.Uint("address", 0, "Public register address")
	function := fs.Uint("function", 3, "Function code (3 holding, 4 input)")
	quantity := fs.Uint("quantity", 1, "Register count")
	timeout := fs.Duration("timeout", 5*time.Second, "Overall timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := &moxagateway.Client{Addr: *addr, Format: *format, Timeout: *timeout}
	reply, err := client.Read(context.Background(), moxagateway.Request{
		TransactionID: uint16(*tid),
		Length:        6,
		RTUID:         uint16(*rtu),
		Address:       uint16(*address),
		Function:      uint16(*function),
		Quantity:      uint16(*quantity),
	})
	if err != nil {
		return err
	}

	if reply.Exception != 0 {
		fmt.Printf("tid=%d rtu=%d address=%d function=%d exception=0x%02X\n",
			reply.TransactionID, reply.RTUID, reply.Address, reply.Function, reply.Exception)
		return nil
	}
	fmt.Printf("tid=%d rtu=%d address=%d function=%d value=%d\n",
		reply.TransactionID, reply.RTUID, reply.Address, reply.Function, reply.Value)
	return nil
}
