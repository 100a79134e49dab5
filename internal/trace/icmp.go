package trace

import "net"

// icmpFixedPayloadLen is the fixed inner payload length ICMP-mode probes
// use; the configured Size applies only to UDP probes.
const icmpFixedPayloadLen = 56 // 8-byte ICMP header + 56 bytes = 64-byte message

const icmpHeaderLen = 8

// buildIPv4ICMPProbe builds an ICMP Echo Request (type 8) probe for ttl.
func buildIPv4ICMPProbe(localAddr, target net.IP, ttl int, rng RNG) (*builtProbe, error) {
	id := rng.Uint16()
	seq := rng.Uint16()

	icmpLen := uint16(icmpHeaderLen + icmpFixedPayloadLen)
	icmpMsg := make([]byte, icmpLen)
	icmpMsg[0] = 8 // Echo Request
	icmpMsg[1] = 0 // code
	icmpMsg[4], icmpMsg[5] = byte(id>>8), byte(id)
	icmpMsg[6], icmpMsg[7] = byte(seq>>8), byte(seq)

	sum := internetChecksum(icmpMsg)
	icmpMsg[2], icmpMsg[3] = byte(sum>>8), byte(sum)

	var src, dst [4]byte
	copy(src[:], localAddr.To4())
	copy(dst[:], target.To4())

	totalLen := uint16(ipv4HeaderLen) + icmpLen
	ipHdr := buildIPv4Header(rng.Uint16(), ttl, 1, src, dst, totalLen)

	buf := make([]byte, 0, len(ipHdr)+len(icmpMsg))
	buf = append(buf, ipHdr...)
	buf = append(buf, icmpMsg...)

	return &builtProbe{
		Bytes:     buf,
		HeaderLen: ipv4HeaderLen,
		ICMPID:    id,
		ICMPSeq:   seq,
	}, nil
}

// buildIPv6ICMPProbe builds an ICMPv6 Echo Request (type 128) probe for
// ttl (hop limit).
//
// The ICMPv6 checksum is computed over the message plus the IPv6
// pseudo-header, as RFC 4443 requires; in practice a raw-socket
// transport lets the kernel recompute this value on send, so the value
// calculated here is authoritative only for tests asserting on the
// built datagram, not for what ultimately goes on the wire.
func buildIPv6ICMPProbe(localAddr, target net.IP, ttl int, rng RNG) (*builtProbe, error) {
	id := rng.Uint16()
	seq := rng.Uint16()

	icmpLen := uint16(icmpHeaderLen + icmpFixedPayloadLen)
	icmpMsg := make([]byte, icmpLen)
	icmpMsg[0] = 128 // Echo Request
	icmpMsg[1] = 0   // code
	icmpMsg[4], icmpMsg[5] = byte(id>>8), byte(id)
	icmpMsg[6], icmpMsg[7] = byte(seq>>8), byte(seq)

	var src, dst [16]byte
	copy(src[:], localAddr.To16())
	copy(dst[:], target.To16())

	pseudo := ipv6PseudoHeader(src, dst, uint32(icmpLen), 58)
	sum := checksumWithPseudoHeader(pseudo, icmpMsg)
	icmpMsg[2], icmpMsg[3] = byte(sum>>8), byte(sum)

	ipHdr := buildIPv6Header(icmpLen, 58, ttl, src, dst)

	buf := make([]byte, 0, len(ipHdr)+len(icmpMsg))
	buf = append(buf, ipHdr...)
	buf = append(buf, icmpMsg...)

	return &builtProbe{
		Bytes:     buf,
		HeaderLen: ipv6HeaderLen,
		ICMPID:    id,
		ICMPSeq:   seq,
	}, nil
}

// isTimeout reports whether err is a network timeout, used by the engine
// on errors from the transport's bounded recv to distinguish an expected
// deadline-exceeded wakeup from a genuine I/O failure.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	netErr, ok := err.(net.Error)
	return ok && netErr.Timeout()
}
