package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

var counterHelp = map[string]string{
	ports.MetricFramesReceived:      "Inbound TCP frames accepted by the ingress.",
	ports.MetricParseErrors:         "Inbound frames or bus payloads that failed to decode.",
	ports.MetricQueueDropped:        "Items refused by a full queue under the drop/reject policy.",
	ports.MetricMappingMisses:       "Requests without a mapping entry or with a store error.",
	ports.MetricRequestsPublished:   "Translated requests published on the request topic.",
	ports.MetricRepliesSent:         "Reply frames written to TCP clients.",
	ports.MetricFailureReplies:      "Failure reply frames written to TCP clients.",
	ports.MetricUnknownTransactions: "Bus responses without a pending correlation entry.",
	ports.MetricPendingExpired:      "Pending entries removed after their deadline.",
	ports.MetricFieldTransactions:   "Field transactions executed, success or failure.",
	ports.MetricFieldErrors:         "Field transactions that produced an error response.",
	ports.MetricFieldReconnects:     "Successful field-bus (re)connections.",
	ports.MetricResponsesPublished:  "Field responses published on the response topic.",
	ports.MetricPublishErrors:       "Bus publish failures.",
}

var gaugeHelp = map[string]string{
	ports.MetricRequestQueueLength:  "Current number of requests buffered in the request queue.",
	ports.MetricResponseQueueLength: "Current number of responses buffered in the response queue.",
	ports.MetricPendingEntries:      "Current number of pending correlation entries.",
	ports.MetricFieldConnected:      "1 while the field-bus connection is open.",
}

// PromObs implements ports.Observability on top of Prometheus collectors and a
// logrus logger.
type PromObs struct {
	log      *logrus.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the gateway collectors on reg, or on the default registerer
// when reg is nil.
func NewPromObs(logger *logrus.Logger, reg prometheus.Registerer) *PromObs {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PromObs{
		log:      logger,
		counters: make(map[string]prometheus.Counter, len(counterHelp)),
		gauges:   make(map[string]prometheus.Gauge, len(gaugeHelp)),
		histos:   make(map[string]prometheus.Observer, 2),
	}

	for name, help := range counterHelp {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		reg.MustRegister(c)
		p.counters[name] = c
	}
	for name, help := range gaugeHelp {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		reg.MustRegister(g)
		p.gauges[name] = g
	}

	fieldLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricFieldTransactionTime,
		Help:    "Duration of one field-bus register read.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	})
	roundTrip := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricRoundTripTime,
		Help:    "Time from frame acceptance to reply write on the TCP side.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})
	reg.MustRegister(fieldLatency, roundTrip)
	p.histos[ports.MetricFieldTransactionTime] = fieldLatency
	p.histos[ports.MetricRoundTripTime] = roundTrip

	return p
}

func (p *PromObs) LogDebug(msg string, fields ...ports.Field) {
	p.entry(fields).Debug(msg)
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.entry(fields).Info(msg)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.entry(fields).WithError(err).Error(msg)
}

// LogCritical logs at error level tagged as critical; it never exits the process.
func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.entry(fields).WithError(err).WithField("severity", "critical").Error(msg)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) entry(fields []ports.Field) *logrus.Entry {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return p.log.WithFields(lf)
}

var _ ports.Observability = (*PromObs)(nil)
