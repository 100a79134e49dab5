// Package hop defines the observation values emitted by a running trace.
package hop

import (
	"fmt"
	"net"
	"time"
)

// Reason distinguishes why an observation is the terminal one in a trace.
type Reason int

const (
	// ReasonNone marks a non-terminal observation (an intermediate hop, or
	// a retry-exhausted attempt that the engine is still advancing past).
	ReasonNone Reason = iota
	// ReasonDestinationReached marks the observation that carries the
	// target's own reply (Echo Reply in ICMP mode, Destination
	// Unreachable/port-unreachable in UDP mode).
	ReasonDestinationReached
	// ReasonMaxTTLExceeded marks the observation emitted after the engine
	// advances past the configured maximum TTL without reaching the target.
	ReasonMaxTTLExceeded
	// ReasonTransportFailure marks a fatal abort: the engine could not
	// send a probe or open its transport and terminated without reaching
	// either of the above outcomes. Err carries the underlying cause.
	ReasonTransportFailure
)

// String renders the reason for logging and test failure messages.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonDestinationReached:
		return "destination-reached"
	case ReasonMaxTTLExceeded:
		return "max-ttl-exceeded"
	case ReasonTransportFailure:
		return "transport-failure"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Observation is a single emission on a trace's HopStream. Stream
// invariants: hop counts are monotonically non-decreasing
// within a trace, exactly one observation has IsLast true and it is the
// last one sent, Addr is present exactly when RTT is present, and every
// Addr carried by a non-terminal observation is distinct from every prior
// non-terminal observation's Addr.
type Observation struct {
	// HopCount is the TTL/hop-limit value the probe for this observation
	// was sent with.
	HopCount int
	// Addr is the responding router's (or target's) address, or nil when
	// the attempt timed out without any usable reply.
	Addr net.IP
	// Tries is the number of probe attempts consumed at HopCount before
	// this observation was produced.
	Tries int
	// RTT is the elapsed time between send and reception, or nil when
	// Addr is nil.
	RTT *time.Duration
	// IsLast is true exactly once per trace, on the final observation.
	IsLast bool
	// Reason qualifies a terminal (IsLast) observation. It is ReasonNone
	// for every non-terminal observation.
	Reason Reason
	// Err carries the underlying cause when Reason is
	// ReasonTransportFailure. Nil otherwise.
	Err error
}

// Intermediate builds a non-terminal observation for a distinct responder
// discovered at hopCount.
func Intermediate(hopCount int, addr net.IP, tries int, rtt time.Duration) Observation {
	d := rtt
	return Observation{HopCount: hopCount, Addr: addr, Tries: tries, RTT: &d}
}

// TimedOut builds a non-terminal observation for a hop that exhausted its
// retry budget without any distinct responder.
func TimedOut(hopCount, tries int) Observation {
	return Observation{HopCount: hopCount, Tries: tries}
}

// DestinationReached builds the terminal observation for a trace that
// reached its target.
func DestinationReached(hopCount int, addr net.IP, tries int, rtt time.Duration) Observation {
	d := rtt
	return Observation{
		HopCount: hopCount,
		Addr:     addr,
		Tries:    tries,
		RTT:      &d,
		IsLast:   true,
		Reason:   ReasonDestinationReached,
	}
}

// MaxTTLExceeded builds the terminal observation for a trace that ran off
// the end of its configured TTL range without reaching the target.
func MaxTTLExceeded(hopCount, tries int) Observation {
	return Observation{
		HopCount: hopCount,
		Tries:    tries,
		IsLast:   true,
		Reason:   ReasonMaxTTLExceeded,
	}
}

// TransportFailure builds the terminal observation for a fatal abort, so a
// consumer reading HopStream is never left blocked on a silently-closed
// channel; see the design note on surfacing runtime-fatal errors.
func TransportFailure(hopCount, tries int, err error) Observation {
	return Observation{
		HopCount: hopCount,
		Tries:    tries,
		IsLast:   true,
		Reason:   ReasonTransportFailure,
		Err:      err,
	}
}

// HasAddr reports whether this observation carries a responder address.
func (o Observation) HasAddr() bool {
	return o.Addr != nil
}

// String renders the observation for logs and test diffs.
func (o Observation) String() string {
	addr := "*"
	if o.Addr != nil {
		addr = o.Addr.String()
	}
	rtt := "-"
	if o.RTT != nil {
		rtt = o.RTT.String()
	}
	if o.IsLast {
		return fmt.Sprintf("hop %d: %s (%s) tries=%d last=%s", o.HopCount, addr, rtt, o.Tries, o.Reason)
	}
	return fmt.Sprintf("hop %d: %s (%s) tries=%d", o.HopCount, addr, rtt, o.Tries)
}
