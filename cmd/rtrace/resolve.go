package main

import (
	"errors"
	"net"
)

// AddressFamily specifies the preferred IP version for target resolution.
type AddressFamily int

const (
	// AddressFamilyAuto prefers IPv4 but accepts IPv6 if no IPv4 is available.
	AddressFamilyAuto AddressFamily = iota
	// AddressFamilyIPv4 forces IPv4 only.
	AddressFamilyIPv4
	// AddressFamilyIPv6 forces IPv6 only.
	AddressFamilyIPv6
)

// ResolveTarget resolves a hostname or IP string to a net.IP honoring the
// requested address family. Resolution lives here rather than in the
// trace package: the engine takes an already-resolved address.
func ResolveTarget(target string, af AddressFamily) (net.IP, error) {
	if ip := net.ParseIP(target); ip != nil {
		isV4 := ip.To4() != nil
		switch af {
		case AddressFamilyIPv4:
			if !isV4 {
				return nil, errors.New("IPv6 address provided but IPv4 required (-4 flag)")
			}
		case AddressFamilyIPv6:
			if isV4 {
				return nil, errors.New("IPv4 address provided but IPv6 required (-6 flag)")
			}
		}
		return ip, nil
	}

	ips, err := net.LookupIP(target)
	if err != nil {
		return nil, err
	}

	var v4Addrs, v6Addrs []net.IP
	for _, ip := range ips {
		if ip.To4() != nil {
			v4Addrs = append(v4Addrs, ip)
		} else {
			v6Addrs = append(v6Addrs, ip)
		}
	}

	switch af {
	case AddressFamilyIPv4:
		if len(v4Addrs) == 0 {
			return nil, errors.New("no IPv4 address found for hostname (try without -4 flag)")
		}
		return v4Addrs[0], nil
	case AddressFamilyIPv6:
		if len(v6Addrs) == 0 {
			return nil, errors.New("no IPv6 address found for hostname (try without -6 flag)")
		}
		return v6Addrs[0], nil
	default:
		if len(v4Addrs) > 0 {
			return v4Addrs[0], nil
		}
		if len(v6Addrs) > 0 {
			return v6Addrs[0], nil
		}
		return nil, errors.New("no IP addresses found for hostname")
	}
}
