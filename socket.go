package ssrp

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"
)

// SocketFactory creates the UDP sockets the query and enumeration operations
// run over. The default factory is backed by the net package; supply a
// custom factory to NewClient to bridge to a different I/O runtime. Each
// operation binds exactly one socket and owns it for its lifetime.
type SocketFactory interface {
	// Bind creates a socket bound to the given local address. Port 0
	// requests an ephemeral port.
	Bind(ctx context.Context, local netip.AddrPort) (Socket, error)
}

// Socket is one UDP socket. Implementations are used by a single goroutine
// at a time and need not be safe for concurrent use. Errors returned from
// these methods are transport-defined and are wrapped opaquely in a
// TransportError by the caller.
type Socket interface {
	// EnableBroadcast allows the socket to send to broadcast addresses.
	EnableBroadcast() error

	// Connect restricts Send and Recv to the given peer.
	Connect(peer netip.AddrPort) error

	// Send transmits one datagram to the connected peer.
	Send(ctx context.Context, b []byte) (int, error)

	// SendTo transmits one datagram to the given peer.
	SendTo(ctx context.Context, b []byte, peer netip.AddrPort) (int, error)

	// Recv receives one datagram from the connected peer.
	Recv(ctx context.Context, b []byte) (int, error)

	// RecvFrom receives one datagram from any origin.
	RecvFrom(ctx context.Context, b []byte) (int, netip.AddrPort, error)

	// Close releases the socket. UDP is stateless, so no protocol-level
	// cleanup happens beyond releasing the descriptor.
	Close() error
}

// NetSocketFactory is the default SocketFactory, backed by *net.UDPConn.
type NetSocketFactory struct{}

func (NetSocketFactory) Bind(ctx context.Context, local netip.AddrPort) (Socket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(local))
	if err != nil {
		return nil, err
	}
	return &netSocket{conn: conn}, nil
}

type netSocket struct {
	conn *net.UDPConn
	peer netip.AddrPort
}

var errNotConnected = errors.New("socket is not connected")

func (s *netSocket) EnableBroadcast() error {
	rc, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}
	return setBroadcast(rc)
}

// Connect pins the socket to peer. The net package offers no connect call on
// an already bound *net.UDPConn, so connected semantics are emulated: Send
// targets the pinned peer and Recv discards datagrams from other origins.
func (s *netSocket) Connect(peer netip.AddrPort) error {
	s.peer = peer
	return nil
}

func (s *netSocket) Send(ctx context.Context, b []byte) (int, error) {
	if !s.peer.IsValid() {
		return 0, errNotConnected
	}
	return s.SendTo(ctx, b, s.peer)
}

func (s *netSocket) SendTo(ctx context.Context, b []byte, peer netip.AddrPort) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.conn.WriteToUDPAddrPort(b, peer)
}

func (s *netSocket) Recv(ctx context.Context, b []byte) (int, error) {
	if !s.peer.IsValid() {
		return 0, errNotConnected
	}
	for {
		n, origin, err := s.RecvFrom(ctx, b)
		if err != nil {
			return 0, err
		}
		if !sameEndpoint(origin, s.peer) {
			continue
		}
		return n, nil
	}
}

func (s *netSocket) RecvFrom(ctx context.Context, b []byte) (int, netip.AddrPort, error) {
	// Cancellation unblocks the read by forcing an immediate deadline. The
	// deadline is cleared on entry in case a previous context fired after
	// its read already returned.
	s.conn.SetReadDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Unix(0, 1))
	})
	defer stop()

	n, origin, err := s.conn.ReadFromUDPAddrPort(b)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, netip.AddrPort{}, ctxErr
		}
		return 0, netip.AddrPort{}, err
	}
	return n, origin, nil
}

func (s *netSocket) Close() error { return s.conn.Close() }

// sameEndpoint compares two peers, treating an IPv4 address and its
// IPv4-in-IPv6 mapped form as equal.
func sameEndpoint(a, b netip.AddrPort) bool {
	return a.Addr().Unmap() == b.Addr().Unmap() && a.Port() == b.Port()
}
