package trace

import (
	"net"
	"time"

	"golang.org/x/net/icmp"
)

// Transport is the collaborator boundary the engine sends probes through
// and listens for ICMP/ICMPv6 replies on. One pair is opened per active
// trace and closed when its worker exits.
type Transport interface {
	// Send emits probe's datagram at the given hop limit toward dest.
	Send(probe *builtProbe, ttl int, dest net.IP) error
	// Recv blocks for at most timeout waiting for one inbound ICMP or
	// ICMPv6 packet, returning its payload and source address.
	Recv(timeout time.Duration) (packet []byte, source net.IP, err error)
	Close() error
}

// rawTransport pairs a raw send socket (IP_HDRINCL on IPv4; a per-send
// hop-limit socket option on IPv6, since raw IPv6 sockets generally
// reject an application-built IPv6 header) with an x/net/icmp listener
// for the inbound half.
type rawTransport struct {
	fd     int
	domain int
	conn   *icmp.PacketConn
}

// openTransport opens the sender/listener pair for a trace targeting the
// given address. The family of target determines both halves; the probe
// protocol determines the sender's next-level protocol, which matters on
// IPv6 where there is no HDRINCL and the kernel frames the inner segment
// with the socket's protocol number.
func openTransport(target net.IP, protocol Protocol) (Transport, error) {
	domain := SocketDomain(target)

	fd, err := openRawSender(domain, sendProtocolNum(target, protocol))
	if err != nil {
		return nil, err
	}

	conn, err := icmp.ListenPacket(ICMPProtocol(target), ListenAddress(target))
	if err != nil {
		closeRawSocket(fd)
		return nil, err
	}

	return &rawTransport{fd: fd, domain: domain, conn: conn}, nil
}

// sendProtocolNum returns the next-level protocol number the raw sender
// is opened with: 17 for UDP probes, otherwise the family's ICMP number.
func sendProtocolNum(target net.IP, protocol Protocol) int {
	if protocol == ProtocolUDP {
		return 17
	}
	return ICMPProtocolNum(target)
}

func (t *rawTransport) Send(probe *builtProbe, ttl int, dest net.IP) error {
	return sendRaw(t.fd, t.domain, probe.Bytes, probe.HeaderLen, ttl, dest)
}

func (t *rawTransport) Recv(timeout time.Duration) ([]byte, net.IP, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, err
	}
	buf := make([]byte, 1500)
	n, peer, err := t.conn.ReadFrom(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:n], peerIP(peer), nil
}

func (t *rawTransport) Close() error {
	t.conn.Close()
	return closeRawSocket(t.fd)
}

func peerIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPAddr:
		return v.IP
	case *net.UDPAddr:
		return v.IP
	default:
		return nil
	}
}
