//go:build !windows

package trace

import (
	"net"

	"golang.org/x/sys/unix"
)

// openRawSender opens a raw socket for domain/protocol. On IPv4 it sets
// IP_HDRINCL so the fully-built header from the probe builder is sent
// on the wire verbatim. IPv6 raw sockets generally refuse to send an
// application-supplied IPv6 header (IPV6_HDRINCL is not the portable
// escape hatch IP_HDRINCL is); sendRaw below works around this by
// sending only the inner segment and letting the kernel fill in the
// IPv6 header, with the hop limit applied via IPV6_UNICAST_HOPS.
func openRawSender(domain, protocol int) (int, error) {
	fd, err := unix.Socket(domain, unix.SOCK_RAW, protocol)
	if err != nil {
		return -1, err
	}
	if domain == unix.AF_INET {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_HDRINCL, 1); err != nil {
			unix.Close(fd)
			return -1, err
		}
	}
	return fd, nil
}

// sendRaw emits datagram to dest at the given ttl/hop-limit. For IPv4,
// datagram is sent in full since it already carries the kernel-bypassing
// header the probe builder constructed. For IPv6, only the segment past
// headerLen is sent; the hop limit is set as a socket option immediately
// before the send since it must track the current TTL iteration.
func sendRaw(fd, domain int, datagram []byte, headerLen, ttl int, dest net.IP) error {
	if domain == unix.AF_INET6 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_UNICAST_HOPS, ttl); err != nil {
			return err
		}
		var addr unix.SockaddrInet6
		copy(addr.Addr[:], dest.To16())
		return unix.Sendto(fd, datagram[headerLen:], 0, &addr)
	}

	var addr unix.SockaddrInet4
	copy(addr.Addr[:], dest.To4())
	return unix.Sendto(fd, datagram, 0, &addr)
}

func closeRawSocket(fd int) error {
	return unix.Close(fd)
}
