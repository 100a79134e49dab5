package trace

import "encoding/binary"

// internetChecksum computes the standard 16-bit ones-complement Internet
// checksum (RFC 1071) over b. Used for the IPv4 header checksum, the
// ICMP/ICMPv6 message checksum, and (with a pseudo-header prefix) the UDP
// checksum.
func internetChecksum(b []byte) uint16 {
	var sum uint32
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i:]))
	}
	if n%2 == 1 {
		sum += uint32(b[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}

// ipv4PseudoHeader builds the 12-byte IPv4 pseudo-header (RFC 768) used to
// checksum a UDP segment: source, destination, zero, protocol, UDP length.
func ipv4PseudoHeader(src, dst [4]byte, protocol uint8, length uint16) []byte {
	b := make([]byte, 12)
	copy(b[0:4], src[:])
	copy(b[4:8], dst[:])
	b[8] = 0
	b[9] = protocol
	binary.BigEndian.PutUint16(b[10:12], length)
	return b
}

// ipv6PseudoHeader builds the 40-byte IPv6 pseudo-header (RFC 8200 §8.1)
// used to checksum a UDP segment or ICMPv6 message: source, destination,
// upper-layer length, zero-padded, next header.
func ipv6PseudoHeader(src, dst [16]byte, length uint32, nextHeader uint8) []byte {
	b := make([]byte, 40)
	copy(b[0:16], src[:])
	copy(b[16:32], dst[:])
	binary.BigEndian.PutUint32(b[32:36], length)
	b[36], b[37], b[38] = 0, 0, 0
	b[39] = nextHeader
	return b
}

// checksumWithPseudoHeader concatenates a pseudo-header and payload into
// one freshly allocated buffer and runs internetChecksum over it.
func checksumWithPseudoHeader(pseudo, payload []byte) uint16 {
	buf := make([]byte, 0, len(pseudo)+len(payload))
	buf = append(buf, pseudo...)
	buf = append(buf, payload...)
	return internetChecksum(buf)
}
