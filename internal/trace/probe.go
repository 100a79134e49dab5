package trace

import "net"

// builtProbe is the output of the probe builder: a fully-formed L3
// datagram ready for raw emission, plus the correlation fields the engine
// needs to recognize the eventual reply as belonging to this probe.
type builtProbe struct {
	// Bytes is the complete datagram: IPv4/IPv6 header followed by the
	// inner UDP or ICMP segment.
	Bytes []byte
	// HeaderLen is the byte offset where the inner segment begins.
	HeaderLen int
	// UDPSrcPort and UDPDstPort are populated for UDP-mode probes.
	UDPSrcPort uint16
	UDPDstPort uint16
	// ICMPID and ICMPSeq are populated for ICMP-mode probes.
	ICMPID  uint16
	ICMPSeq uint16
}

// Inner returns the UDP/ICMP segment, i.e. the datagram without its IP
// header. Transports that let the kernel supply the IP header (see the
// IPv6 send path) write this instead of Bytes.
func (p *builtProbe) Inner() []byte {
	return p.Bytes[p.HeaderLen:]
}

// buildProbe constructs the datagram for one probe attempt at the given
// TTL, dispatching on address family and protocol.
func buildProbe(cfg *TraceConfig, localAddr, target net.IP, ttl int, rng RNG) (*builtProbe, error) {
	isV6 := IsIPv6(target)
	switch {
	case !isV6 && cfg.Protocol == ProtocolUDP:
		return buildIPv4UDPProbe(cfg, localAddr, target, ttl, rng)
	case !isV6 && cfg.Protocol == ProtocolICMP:
		return buildIPv4ICMPProbe(localAddr, target, ttl, rng)
	case isV6 && cfg.Protocol == ProtocolUDP:
		return buildIPv6UDPProbe(cfg, localAddr, target, ttl, rng)
	default: // isV6 && ProtocolICMP
		return buildIPv6ICMPProbe(localAddr, target, ttl, rng)
	}
}
