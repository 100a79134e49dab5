package trace

import "encoding/binary"

// ipv4HeaderLen is the length of an IPv4 header with no options (IHL=5).
const ipv4HeaderLen = 20

// ipv6HeaderLen is the fixed length of an IPv6 header.
const ipv6HeaderLen = 40

// ipv4DontFragment is the fragment-offset field with the Don't-Fragment
// flag set and a zero offset: flags=010, offset=0 -> 0x4000.
const ipv4DontFragment = 0x4000

// buildIPv4Header writes a 20-byte IPv4 header (version 4, IHL 5, no
// options) with its checksum filled in. id is the 16-bit identification
// field; nextProto is the next-level protocol number (1 for ICMP, 17 for
// UDP); totalLen is the full datagram length including this header.
func buildIPv4Header(id uint16, ttl int, nextProto uint8, src, dst [4]byte, totalLen uint16) []byte {
	h := make([]byte, ipv4HeaderLen)
	h[0] = 0x45 // version 4, IHL 5
	h[1] = 0    // type of service
	binary.BigEndian.PutUint16(h[2:4], totalLen)
	binary.BigEndian.PutUint16(h[4:6], id)
	binary.BigEndian.PutUint16(h[6:8], ipv4DontFragment)
	h[8] = uint8(ttl)
	h[9] = nextProto
	// h[10:12] checksum filled below, zero for now
	copy(h[12:16], src[:])
	copy(h[16:20], dst[:])

	sum := internetChecksum(h)
	binary.BigEndian.PutUint16(h[10:12], sum)
	return h
}

// buildIPv6Header writes a 40-byte IPv6 header: version 6, zero traffic
// class/flow label, the given payload length, next-header, and hop limit.
func buildIPv6Header(payloadLen uint16, nextHeader uint8, hopLimit int, src, dst [16]byte) []byte {
	h := make([]byte, ipv6HeaderLen)
	binary.BigEndian.PutUint32(h[0:4], 6<<28) // version 6, traffic class/flow label zero
	binary.BigEndian.PutUint16(h[4:6], payloadLen)
	h[6] = nextHeader
	h[7] = uint8(hopLimit)
	copy(h[8:24], src[:])
	copy(h[24:40], dst[:])
	return h
}
