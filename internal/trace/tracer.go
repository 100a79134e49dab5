// Package trace implements the route-tracing engine: TTL-escalation probing
// over ICMP Echo or UDP, for both IPv4 and IPv6, with per-hop retry
// bookkeeping, duplicate-responder suppression, and ICMP-type based hop
// classification. Construction is validated and synchronous; the trace
// itself runs on a background worker that streams observations back to the
// caller and closes after its terminal one.
package trace

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/havenmarch/rtrace/pkg/hop"
)

// Protocol selects the probe family a trace uses.
type Protocol int

const (
	// ProtocolUDP sends UDP probes and watches for Destination Unreachable
	// (port-unreachable) to detect arrival. This is the default, matching
	// classical BSD traceroute.
	ProtocolUDP Protocol = iota
	// ProtocolICMP sends ICMP Echo Request probes and watches for Echo
	// Reply to detect arrival.
	ProtocolICMP
)

func (p Protocol) String() string {
	switch p {
	case ProtocolUDP:
		return "udp"
	case ProtocolICMP:
		return "icmp"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// Defaults for TraceConfig fields not supplied via an Option.
const (
	DefaultBeginTTL  = 1
	DefaultMaxTTL    = 30
	DefaultMaxTries  = 4
	DefaultTimeoutMs = 200
	DefaultPort      = 33434
	DefaultSize      = 64

	minProbeSize = 12 // UDP header (8) plus four payload bytes
)

// TraceConfig is the immutable, validated descriptor a trace runs
// from. Build one with New; there is no exported constructor that skips
// validation.
type TraceConfig struct {
	Target    net.IP
	Protocol  Protocol
	BeginTTL  int
	MaxTTL    int
	MaxTries  int
	TimeoutMs int
	Port      int
	Size      int
}

// Option customizes a TraceConfig at construction. Unset fields keep their
// documented defaults.
type Option func(*TraceConfig)

func WithProtocol(p Protocol) Option { return func(c *TraceConfig) { c.Protocol = p } }
func WithBeginTTL(ttl int) Option    { return func(c *TraceConfig) { c.BeginTTL = ttl } }
func WithMaxTTL(ttl int) Option      { return func(c *TraceConfig) { c.MaxTTL = ttl } }
func WithMaxTries(n int) Option      { return func(c *TraceConfig) { c.MaxTries = n } }
func WithTimeoutMs(ms int) Option    { return func(c *TraceConfig) { c.TimeoutMs = ms } }
func WithPort(port int) Option       { return func(c *TraceConfig) { c.Port = port } }
func WithSize(size int) Option       { return func(c *TraceConfig) { c.Size = size } }

// newTraceConfig applies defaults and options, then validates.
// It returns on the first violation found; it does not accumulate errors.
func newTraceConfig(target net.IP, opts ...Option) (*TraceConfig, error) {
	cfg := &TraceConfig{
		Target:    target,
		Protocol:  ProtocolUDP,
		BeginTTL:  DefaultBeginTTL,
		MaxTTL:    DefaultMaxTTL,
		MaxTries:  DefaultMaxTries,
		TimeoutMs: DefaultTimeoutMs,
		Port:      DefaultPort,
		Size:      DefaultSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.MaxTTL < 1 {
		return nil, newConfigError(BadMaxTtl, fmt.Sprintf("max_ttl must be >= 1, got %d", cfg.MaxTTL))
	}
	if cfg.BeginTTL > cfg.MaxTTL {
		return nil, newConfigError(BadBeginTtl, fmt.Sprintf("begin_ttl %d exceeds max_ttl %d", cfg.BeginTTL, cfg.MaxTTL))
	}
	if cfg.Size < minProbeSize {
		return nil, newConfigError(BadSize, fmt.Sprintf("size must be >= %d, got %d", minProbeSize, cfg.Size))
	}
	if cfg.TimeoutMs == 0 {
		return nil, newConfigError(BadTimeout, "timeout_ms must be nonzero")
	}
	return cfg, nil
}

// HopStream is the consumer end of a trace's observation channel.
// It closes once the terminal observation has been sent.
type HopStream = <-chan hop.Observation

// TraceRoute drives one trace's background worker.
// Construct it with New.
type TraceRoute struct {
	id  string
	cfg *TraceConfig
	rng RNG
	log *zap.Logger
	out chan hop.Observation
}

// New validates options against target and returns a TraceRoute along
// with the stream its worker will populate. Nothing is sent and no
// worker is spawned until Run is called; a *ConfigError here means
// neither happens at all.
func New(target net.IP, opts ...Option) (*TraceRoute, HopStream, error) {
	cfg, err := newTraceConfig(target, opts...)
	if err != nil {
		return nil, nil, err
	}

	id := uuid.NewString()
	out := make(chan hop.Observation)
	tr := &TraceRoute{
		id:  id,
		cfg: cfg,
		rng: NewRNG(),
		log: zap.L().Named("trace").With(zap.String("trace_id", id), zap.Stringer("protocol", cfg.Protocol)),
		out: out,
	}
	return tr, out, nil
}

// Run spawns the worker goroutine and returns immediately; the worker
// discovers the local address and opens the transport before probing.
// Setup failures (no usable local
// interface, or the transport could not be opened) are not returned
// here; they are surfaced as a terminal observation on the stream, so a
// single call site carries every outcome of a trace.
func (tr *TraceRoute) Run(ctx context.Context) {
	go tr.worker(ctx)
}

func (tr *TraceRoute) worker(ctx context.Context) {
	localAddr, err := discoverLocalAddr(IsIPv6(tr.cfg.Target))
	if err != nil {
		tr.log.Warn("local address discovery failed", zap.Error(err))
		tr.abort(ctx, err)
		return
	}

	transport, err := openTransport(tr.cfg.Target, tr.cfg.Protocol)
	if err != nil {
		openErr := &TransportOpenError{Err: err}
		tr.log.Warn("transport open failed", zap.Error(openErr))
		tr.abort(ctx, openErr)
		return
	}

	e := newEngine(ctx, tr.cfg, transport, localAddr, tr.rng, tr.out, tr.log)
	e.run()
}

// abort terminates a trace that failed before its engine started,
// emitting the transport-failure terminal unless the caller already
// cancelled, and closing the stream either way.
func (tr *TraceRoute) abort(ctx context.Context, err error) {
	defer close(tr.out)
	select {
	case tr.out <- hop.TransportFailure(tr.cfg.BeginTTL, 0, err):
	case <-ctx.Done():
	}
}
