package pipeline

import (
	"context"
	"errors"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// RunResolver consumes inbound requests, translates their address and publishes them
// on topic. It returns when ctx ends.
func RunResolver(ctx context.Context, q ports.Queue[*Inbound], store ports.MappingStore, bus ports.Bus, table *Table, topic string, pol ports.Policy, tcp TCPSettings, obs ports.Observability) error {
	for {
		in, err := q.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		resolve(ctx, in, store, bus, table, topic, pol, tcp, obs)
	}
}

func resolve(ctx context.Context, in *Inbound, store ports.MappingStore, bus ports.Bus, table *Table, topic string, pol ports.Policy, tcp TCPSettings, obs ports.Observability) {
	req := in.Request

	device, err := store.Lookup(ctx, req.RTUID, req.Address)
	if err != nil {
		obs.IncCounter(ports.MetricMappingMisses, 1)
		if errors.Is(err, ports.ErrMappingNotFound) {
			obs.LogInfo("mapping_not_found", txFields(req)...)
		} else {
			obs.LogError("mapping_lookup_failed", err, txFields(req)...)
		}
		replyFailure(in.Conn, req, ExcGatewayPathUnavailable, tcp, obs)
		return
	}

	p := &Pending{Conn: in.Conn, Request: req, Accepted: in.Accepted}
	if pol.RequestTimeout > 0 {
		p.Deadline = in.Accepted.Add(pol.RequestTimeout)
	}
	if err := table.Insert(p); err != nil {
		obs.LogError("pending_insert_failed", err, txFields(req)...)
		replyFailure(in.Conn, req, ExcServerBusy, tcp, obs)
		return
	}

	fr := req
	fr.Address = device
	payload, err := EncodeRequest(fr)
	if err == nil {
		err = bus.Publish(ctx, topic, payload)
	}
	if err != nil {
		obs.IncCounter(ports.MetricPublishErrors, 1)
		obs.LogError("request_publish_failed", err, txFields(req)...)
		if table.Remove(p) {
			replyFailure(in.Conn, req, ExcGatewayPathUnavailable, tcp, obs)
		}
		return
	}

	obs.IncCounter(ports.MetricRequestsPublished, 1)
	obs.LogDebug("request_published", append(txFields(req), ports.Field{Key: "device_address", Value: device})...)
}
