package hop

import (
	"errors"
	"net"
	"testing"
	"time"
)

func TestIntermediate_CarriesAddrAndRTT(t *testing.T) {
	ip := net.ParseIP("192.168.1.1")
	o := Intermediate(3, ip, 1, 5*time.Millisecond)

	if o.HopCount != 3 {
		t.Errorf("expected HopCount 3, got %d", o.HopCount)
	}
	if !o.Addr.Equal(ip) {
		t.Errorf("expected Addr %v, got %v", ip, o.Addr)
	}
	if o.RTT == nil || *o.RTT != 5*time.Millisecond {
		t.Errorf("expected RTT 5ms, got %v", o.RTT)
	}
	if o.IsLast {
		t.Error("Intermediate observation must not be last")
	}
}

func TestTimedOut_HasNoAddrOrRTT(t *testing.T) {
	o := TimedOut(4, 2)

	if o.HasAddr() {
		t.Error("TimedOut observation must not carry an address")
	}
	if o.RTT != nil {
		t.Error("TimedOut observation must not carry an RTT")
	}
	if o.IsLast {
		t.Error("TimedOut observation must not be last")
	}
}

func TestDestinationReached_IsTerminal(t *testing.T) {
	ip := net.ParseIP("10.0.0.1")
	o := DestinationReached(5, ip, 1, time.Millisecond)

	if !o.IsLast {
		t.Error("expected IsLast true")
	}
	if o.Reason != ReasonDestinationReached {
		t.Errorf("expected ReasonDestinationReached, got %v", o.Reason)
	}
	if !o.HasAddr() {
		t.Error("expected address to be present")
	}
}

func TestMaxTTLExceeded_HasNoAddr(t *testing.T) {
	o := MaxTTLExceeded(31, 0)

	if !o.IsLast {
		t.Error("expected IsLast true")
	}
	if o.Reason != ReasonMaxTTLExceeded {
		t.Errorf("expected ReasonMaxTTLExceeded, got %v", o.Reason)
	}
	if o.HasAddr() {
		t.Error("expected no address on max-TTL termination")
	}
}

func TestTransportFailure_CarriesErr(t *testing.T) {
	cause := errors.New("boom")
	o := TransportFailure(2, 1, cause)

	if !o.IsLast {
		t.Error("expected IsLast true")
	}
	if o.Reason != ReasonTransportFailure {
		t.Errorf("expected ReasonTransportFailure, got %v", o.Reason)
	}
	if !errors.Is(o.Err, cause) {
		t.Errorf("expected Err to wrap %v, got %v", cause, o.Err)
	}
}

func TestReason_String(t *testing.T) {
	cases := map[Reason]string{
		ReasonNone:               "none",
		ReasonDestinationReached: "destination-reached",
		ReasonMaxTTLExceeded:     "max-ttl-exceeded",
		ReasonTransportFailure:   "transport-failure",
	}
	for reason, want := range cases {
		if got := reason.String(); got != want {
			t.Errorf("Reason(%d).String() = %q, want %q", reason, got, want)
		}
	}
}

func TestObservation_String_DoesNotPanicOnZeroValue(t *testing.T) {
	var o Observation
	if o.String() == "" {
		t.Error("expected non-empty string for zero-value Observation")
	}
}
