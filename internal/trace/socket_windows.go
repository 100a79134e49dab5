//go:build windows

package trace

import (
	"net"

	"golang.org/x/sys/windows"
)

// openRawSender mirrors the Unix implementation using golang.org/x/sys/windows
// in place of golang.org/x/sys/unix.
func openRawSender(domain, protocol int) (int, error) {
	fd, err := windows.Socket(int32(domain), windows.SOCK_RAW, int32(protocol))
	if err != nil {
		return -1, err
	}
	if domain == windows.AF_INET {
		if err := windows.SetsockoptInt(fd, windows.IPPROTO_IP, windows.IP_HDRINCL, 1); err != nil {
			windows.Closesocket(fd)
			return -1, err
		}
	}
	return int(fd), nil
}

func sendRaw(fd, domain int, datagram []byte, headerLen, ttl int, dest net.IP) error {
	h := windows.Handle(fd)
	if domain == windows.AF_INET6 {
		if err := windows.SetsockoptInt(h, windows.IPPROTO_IPV6, windows.IPV6_UNICAST_HOPS, ttl); err != nil {
			return err
		}
		var addr windows.SockaddrInet6
		copy(addr.Addr[:], dest.To16())
		return windows.Sendto(h, datagram[headerLen:], 0, &addr)
	}

	var addr windows.SockaddrInet4
	copy(addr.Addr[:], dest.To4())
	return windows.Sendto(h, datagram, 0, &addr)
}

func closeRawSocket(fd int) error {
	return windows.Closesocket(windows.Handle(fd))
}
