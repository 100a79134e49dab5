package trace

import "net"

const udpHeaderLen = 8

// buildIPv4UDPProbe builds a UDP-in-IPv4 probe for ttl. The destination
// port is the classical BSD traceroute convention: base port plus ttl,
// so a late-arriving reply can be traced back to the hop that produced
// it without any additional correlation state.
func buildIPv4UDPProbe(cfg *TraceConfig, localAddr, target net.IP, ttl int, rng RNG) (*builtProbe, error) {
	srcPort := rng.Uint16()
	dstPort := udpDestPort(cfg.Port, ttl)

	payloadLen := cfg.Size - udpHeaderLen
	udpLen := uint16(udpHeaderLen + payloadLen)
	udpHdr := make([]byte, udpLen)
	udpHdr[0], udpHdr[1] = byte(srcPort>>8), byte(srcPort)
	udpHdr[2], udpHdr[3] = byte(dstPort>>8), byte(dstPort)
	udpHdr[4], udpHdr[5] = byte(udpLen>>8), byte(udpLen)

	var src, dst [4]byte
	copy(src[:], localAddr.To4())
	copy(dst[:], target.To4())

	pseudo := ipv4PseudoHeader(src, dst, 17, udpLen)
	sum := udpChecksum(pseudo, udpHdr)
	udpHdr[6], udpHdr[7] = byte(sum>>8), byte(sum)

	totalLen := uint16(ipv4HeaderLen) + udpLen
	ipHdr := buildIPv4Header(rng.Uint16(), ttl, 17, src, dst, totalLen)

	buf := make([]byte, 0, len(ipHdr)+len(udpHdr))
	buf = append(buf, ipHdr...)
	buf = append(buf, udpHdr...)

	return &builtProbe{
		Bytes:      buf,
		HeaderLen:  ipv4HeaderLen,
		UDPSrcPort: srcPort,
		UDPDstPort: dstPort,
	}, nil
}

// buildIPv6UDPProbe builds a UDP-in-IPv6 probe for ttl (hop limit). The
// UDP checksum is mandatory over IPv6 and uses the IPv6 pseudo-header
// (RFC 8200 section 8.1).
func buildIPv6UDPProbe(cfg *TraceConfig, localAddr, target net.IP, ttl int, rng RNG) (*builtProbe, error) {
	srcPort := rng.Uint16()
	dstPort := udpDestPort(cfg.Port, ttl)

	payloadLen := cfg.Size - udpHeaderLen
	udpLen := uint16(udpHeaderLen + payloadLen)
	udpHdr := make([]byte, udpLen)
	udpHdr[0], udpHdr[1] = byte(srcPort>>8), byte(srcPort)
	udpHdr[2], udpHdr[3] = byte(dstPort>>8), byte(dstPort)
	udpHdr[4], udpHdr[5] = byte(udpLen>>8), byte(udpLen)

	var src, dst [16]byte
	copy(src[:], localAddr.To16())
	copy(dst[:], target.To16())

	pseudo := ipv6PseudoHeader(src, dst, uint32(udpLen), 17)
	sum := udpChecksum(pseudo, udpHdr)
	udpHdr[6], udpHdr[7] = byte(sum>>8), byte(sum)

	ipHdr := buildIPv6Header(udpLen, 17, ttl, src, dst)

	buf := make([]byte, 0, len(ipHdr)+len(udpHdr))
	buf = append(buf, ipHdr...)
	buf = append(buf, udpHdr...)

	return &builtProbe{
		Bytes:      buf,
		HeaderLen:  ipv6HeaderLen,
		UDPSrcPort: srcPort,
		UDPDstPort: dstPort,
	}, nil
}

// udpDestPort computes base+ttl, wrapping into the valid port range on
// overflow instead of producing an out-of-range port.
func udpDestPort(base, ttl int) uint16 {
	return uint16((base + ttl) % 65536)
}

// udpChecksum computes the pseudo-header checksum for a UDP segment.
// RFC 768 reserves zero for "no checksum", so a computed zero is
// transmitted as 0xffff; over IPv6 the checksum is mandatory.
func udpChecksum(pseudo, segment []byte) uint16 {
	sum := checksumWithPseudoHeader(pseudo, segment)
	if sum == 0 {
		return 0xffff
	}
	return sum
}
