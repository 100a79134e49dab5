package trace

import "net"

// discoverLocalAddr enumerates local interfaces and returns the first
// address matching the requested family on an interface that is
// administratively up and not loopback. Invoked once at trace
// start; the result is cached on the engine for the life of the trace,
// since re-enumerating per-probe buys nothing and the local address
// cannot meaningfully change mid-trace.
func discoverLocalAddr(wantV6 bool) (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, &NoInterfaceError{Family: familyLabel(wantV6)}
	}

	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ip := addrIP(a)
			if ip == nil {
				continue
			}
			if wantV6 {
				if ip.To4() == nil && ip.To16() != nil {
					return ip, nil
				}
				continue
			}
			if ip.To4() != nil {
				return ip, nil
			}
		}
	}
	return nil, &NoInterfaceError{Family: familyLabel(wantV6)}
}

func addrIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}

func familyLabel(wantV6 bool) string {
	if wantV6 {
		return "IPv6"
	}
	return "IPv4"
}
