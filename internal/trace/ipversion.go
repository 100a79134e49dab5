package trace

import (
	"net"
	"syscall"
)

// IsIPv6 reports whether ip is a true IPv6 address. IPv4-mapped IPv6
// addresses count as IPv4: they trace over the v4 stack.
func IsIPv6(ip net.IP) bool {
	return ip != nil && ip.To4() == nil
}

// SocketDomain returns the raw-socket domain for a trace toward ip:
// AF_INET6 for IPv6 targets, AF_INET otherwise.
func SocketDomain(ip net.IP) int {
	if IsIPv6(ip) {
		return syscall.AF_INET6
	}
	return syscall.AF_INET
}

// ICMPProtocol returns the network string icmp.ListenPacket expects for
// the listener half of a trace toward ip.
func ICMPProtocol(ip net.IP) string {
	if IsIPv6(ip) {
		return "ip6:ipv6-icmp"
	}
	return "ip4:icmp"
}

// ICMPProtocolNum returns the IANA protocol number used when parsing
// inbound replies: 1 for ICMP, 58 for ICMPv6.
func ICMPProtocolNum(ip net.IP) int {
	if IsIPv6(ip) {
		return 58
	}
	return 1
}

// ListenAddress returns the wildcard address the listener binds for the
// family of ip.
func ListenAddress(ip net.IP) string {
	if IsIPv6(ip) {
		return "::"
	}
	return "0.0.0.0"
}
