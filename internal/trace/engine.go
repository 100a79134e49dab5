package trace

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/havenmarch/rtrace/pkg/hop"
)

// ICMP/ICMPv6 type numbers the engine classifies. UDP-mode arrival on
// IPv6 is Destination Unreachable with code 4 (port unreachable) per
// RFC 4443; Parameter Problem does not signal arrival.
const (
	icmpv4TimeExceeded    = 11
	icmpv4DestUnreachable = 3
	icmpv4EchoReply       = 0

	icmpv6TimeExceeded    = 3
	icmpv6DestUnreachable = 1
	icmpv6PortUnreachable = 4 // code, not type
	icmpv6EchoReply       = 129
)

type hopCategory int

const (
	hopOther hopCategory = iota
	hopIntermediate
	hopDestinationReached
)

// engine is the per-trace state machine: the current TTL, the retries
// consumed at it, whether it already produced a response this TTL, and
// the set of responders already seen across the whole trace.
type engine struct {
	ctx       context.Context
	cfg       *TraceConfig
	transport Transport
	localAddr net.IP
	rng       RNG
	out       chan hop.Observation
	log       *zap.Logger

	i          int
	tries      int
	hasChanged bool
	seen       map[string]struct{}
}

func newEngine(ctx context.Context, cfg *TraceConfig, transport Transport, localAddr net.IP, rng RNG, out chan hop.Observation, log *zap.Logger) *engine {
	return &engine{
		ctx:       ctx,
		cfg:       cfg,
		transport: transport,
		localAddr: localAddr,
		rng:       rng,
		out:       out,
		log:       log,
		i:         cfg.BeginTTL,
		seen:      make(map[string]struct{}),
	}
}

// run drives the TTL-escalation loop until a terminal observation is
// emitted, the context is cancelled, or a send fails fatally.
func (e *engine) run() {
	defer e.transport.Close()
	defer close(e.out)

	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}

		// Ran past the configured range without reaching the target.
		if e.i > e.cfg.MaxTTL {
			e.emit(hop.MaxTTLExceeded(e.i, e.tries))
			return
		}

		// One probe at the current TTL.
		probe, err := buildProbe(e.cfg, e.localAddr, e.cfg.Target, e.i, e.rng)
		if err != nil {
			e.emit(hop.TransportFailure(e.i, e.tries, &SendFailedError{TTL: e.i, Err: err}))
			return
		}

		sent := time.Now()
		if err := e.transport.Send(probe, e.i, e.cfg.Target); err != nil {
			e.emit(hop.TransportFailure(e.i, e.tries, &SendFailedError{TTL: e.i, Err: err}))
			return
		}

		// Bounded wait for a reply.
		packet, source, err := e.transport.Recv(time.Duration(e.cfg.TimeoutMs) * time.Millisecond)
		switch {
		case err == nil:
			if done := e.classify(packet, source, sent); done {
				return
			}
		case isTimeout(err):
			e.hasChanged = false
		default:
			if e.log != nil {
				e.log.Debug("recv error, treating as transient", zap.Error(err))
			}
			e.hasChanged = false
		}

		// Every attempt, answered or not, consumes a try.
		e.tries++

		// Retry budget exhausted with nothing heard at this TTL.
		if e.tries >= e.cfg.MaxTries && !e.hasChanged {
			e.emit(hop.TimedOut(e.i, e.tries))
			e.tries = 0
			e.i++
			e.hasChanged = false
		}
	}
}

// classify handles a successfully received packet. It returns true when
// the trace has reached a terminal state and run should stop without
// further iteration.
func (e *engine) classify(packet []byte, source net.IP, sent time.Time) bool {
	key := source.String()
	if _, dup := e.seen[key]; dup {
		// Saturating decrement compensates for the unconditional
		// increment below: duplicates neither count as progress nor
		// exhaust the retry budget.
		if e.tries > 0 {
			e.tries--
		}
		return false
	}

	msgType, code, ok := parseICMPReply(packet, IsIPv6(e.cfg.Target))
	if !ok {
		if e.log != nil {
			e.log.Debug("malformed ICMP packet, ignoring", zap.String("source", key))
		}
		return false
	}

	e.seen[key] = struct{}{}
	rtt := time.Since(sent)

	switch e.classifyType(msgType, code) {
	case hopIntermediate:
		e.emit(hop.Intermediate(e.i, source, e.tries, rtt))
		e.hasChanged = true
		e.i++
		e.tries = 0
		return false
	case hopDestinationReached:
		e.emit(hop.DestinationReached(e.i, source, e.tries, rtt))
		return true
	default:
		if e.log != nil {
			e.log.Debug("unexpected ICMP type, ignoring", zap.Int("type", msgType), zap.String("source", key))
		}
		return false
	}
}

func (e *engine) classifyType(msgType, code int) hopCategory {
	if !IsIPv6(e.cfg.Target) {
		switch msgType {
		case icmpv4TimeExceeded:
			return hopIntermediate
		case icmpv4DestUnreachable:
			if e.cfg.Protocol == ProtocolUDP {
				return hopDestinationReached
			}
		case icmpv4EchoReply:
			if e.cfg.Protocol == ProtocolICMP {
				return hopDestinationReached
			}
		}
		return hopOther
	}

	switch msgType {
	case icmpv6TimeExceeded:
		return hopIntermediate
	case icmpv6DestUnreachable:
		if e.cfg.Protocol == ProtocolUDP && code == icmpv6PortUnreachable {
			return hopDestinationReached
		}
	case icmpv6EchoReply:
		if e.cfg.Protocol == ProtocolICMP {
			return hopDestinationReached
		}
	}
	return hopOther
}

// emit sends o on the output channel, returning early if the caller
// cancelled the trace by cancelling ctx.
func (e *engine) emit(o hop.Observation) {
	select {
	case e.out <- o:
	case <-e.ctx.Done():
	}
}

// parseICMPReply extracts the ICMP/ICMPv6 type and code from a received
// packet, as delivered by the x/net/icmp listener (no IP header).
func parseICMPReply(packet []byte, isV6 bool) (msgType, code int, ok bool) {
	proto := icmpv4ProtoNum
	if isV6 {
		proto = icmpv6ProtoNum
	}
	msg, err := icmp.ParseMessage(proto, packet)
	if err != nil {
		return 0, 0, false
	}
	switch t := msg.Type.(type) {
	case ipv4.ICMPType:
		return int(t), msg.Code, true
	case ipv6.ICMPType:
		return int(t), msg.Code, true
	default:
		return 0, 0, false
	}
}

const (
	icmpv4ProtoNum = 1
	icmpv6ProtoNum = 58
)
