package trace

import (
	"net"
	"testing"
)

func testCfg(opts ...Option) *TraceConfig {
	cfg, err := newTraceConfig(net.ParseIP("192.0.2.2"), opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestBuildIPv4UDPProbe_DestPortIsBasePlusTTL(t *testing.T) {
	cfg := testCfg(WithPort(33434))
	probe, err := buildIPv4UDPProbe(cfg, net.ParseIP("192.0.2.1"), cfg.Target, 5, NewRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probe.UDPDstPort != 33439 {
		t.Errorf("expected dest port 33439, got %d", probe.UDPDstPort)
	}
}

func TestBuildIPv4UDPProbe_LengthMatchesConfiguredSize(t *testing.T) {
	cfg := testCfg(WithSize(20))
	probe, err := buildIPv4UDPProbe(cfg, net.ParseIP("192.0.2.1"), cfg.Target, 1, NewRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(probe.Inner()); got != 20 {
		t.Errorf("expected UDP segment length 20, got %d", got)
	}
}

func TestBuildIPv4UDPProbe_MinimumSize(t *testing.T) {
	cfg := testCfg(WithSize(12))
	probe, err := buildIPv4UDPProbe(cfg, net.ParseIP("192.0.2.1"), cfg.Target, 1, NewRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inner := probe.Inner()
	if len(inner) != 12 {
		t.Fatalf("expected 12-byte UDP segment, got %d", len(inner))
	}
	// Length field matches: 8-byte header plus 4 payload bytes.
	if got := int(inner[4])<<8 | int(inner[5]); got != 12 {
		t.Errorf("expected UDP length field 12, got %d", got)
	}
}

func TestBuildIPv4UDPProbe_ChecksumVerifiesWithPseudoHeader(t *testing.T) {
	cfg := testCfg()
	local := net.ParseIP("192.0.2.1")
	probe, err := buildIPv4UDPProbe(cfg, local, cfg.Target, 1, NewRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var src, dst [4]byte
	copy(src[:], local.To4())
	copy(dst[:], cfg.Target.To4())
	pseudo := ipv4PseudoHeader(src, dst, 17, uint16(len(probe.Inner())))
	if checksumWithPseudoHeader(pseudo, probe.Inner()) != 0 {
		t.Error("expected UDP checksum to self-verify to zero")
	}
}

func TestBuildIPv4UDPProbe_SetsTTL(t *testing.T) {
	cfg := testCfg()
	probe, err := buildIPv4UDPProbe(cfg, net.ParseIP("192.0.2.1"), cfg.Target, 11, NewRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probe.Bytes[8] != 11 {
		t.Errorf("expected TTL byte 11, got %d", probe.Bytes[8])
	}
}

func TestBuildIPv6UDPProbe_ChecksumUsesIPv6PseudoHeader(t *testing.T) {
	target := net.ParseIP("2001:db8::2")
	cfg := testCfg()
	cfg.Target = target
	local := net.ParseIP("2001:db8::1")

	probe, err := buildIPv6UDPProbe(cfg, local, target, 1, NewRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var src, dst [16]byte
	copy(src[:], local.To16())
	copy(dst[:], target.To16())
	pseudo := ipv6PseudoHeader(src, dst, uint32(len(probe.Inner())), 17)
	if checksumWithPseudoHeader(pseudo, probe.Inner()) != 0 {
		t.Error("expected UDP checksum to self-verify to zero using the IPv6 pseudo-header")
	}
}

func TestBuildIPv6UDPProbe_SetsHopLimit(t *testing.T) {
	target := net.ParseIP("2001:db8::2")
	cfg := testCfg()
	cfg.Target = target
	local := net.ParseIP("2001:db8::1")

	probe, err := buildIPv6UDPProbe(cfg, local, target, 6, NewRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probe.Bytes[7] != 6 {
		t.Errorf("expected hop limit byte 6, got %d", probe.Bytes[7])
	}
}

func TestUDPDestPort_WrapsOnOverflow(t *testing.T) {
	got := udpDestPort(65535, 2)
	if got != 1 {
		t.Errorf("expected wraparound to 1, got %d", got)
	}
}

func TestUDPDestPort_NoWrapInRange(t *testing.T) {
	if got := udpDestPort(33434, 3); got != 33437 {
		t.Errorf("expected 33437, got %d", got)
	}
}
