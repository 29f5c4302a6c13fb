package ssrp

import (
	"context"
	"errors"
	"net/netip"
)

// EnumerateHost asks host for all of its instances using the default
// transport. See Client.EnumerateHost.
func EnumerateHost(ctx context.Context, host netip.Addr) ([]*InstanceInfo, error) {
	return defaultClient.EnumerateHost(ctx, host)
}

// EnumerateNetwork broadcasts an enumeration request using the default
// transport. See Client.EnumerateNetwork.
func EnumerateNetwork(ctx context.Context, broadcast netip.Addr) (*Stream, error) {
	return defaultClient.EnumerateNetwork(ctx, broadcast)
}

// EnumerateHost sends a CLNT_UCAST_EX request to host and parses every
// instance record of the single response. The result is fully materialized
// before it is returned; if any embedded record is malformed the whole
// enumeration fails and no partial list is returned.
func (c *Client) EnumerateHost(ctx context.Context, host netip.Addr) ([]*InstanceInfo, error) {
	sock, peer, err := c.dialBrowser(ctx, host)
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	if _, err := sock.Send(ctx, encodeUnicastEnumRequest()); err != nil {
		return nil, &TransportError{Op: OpSend, Addr: peer, Err: err}
	}

	buf := make([]byte, headerSize+maxEnumPayload)
	n, err := sock.Recv(ctx, buf)
	if err != nil {
		return nil, &TransportError{Op: OpReceive, Err: err}
	}

	return decodeEnumDatagram(host, buf[:n])
}

// EnumerateNetwork sends a CLNT_BCAST_EX request to the given broadcast or
// multicast address and returns a Stream over the responses. The socket
// stays unconnected so every host on the subnet can answer; close the stream
// to release it.
func (c *Client) EnumerateNetwork(ctx context.Context, broadcast netip.Addr) (*Stream, error) {
	sock, err := c.factory.Bind(ctx, localUnspecified(broadcast))
	if err != nil {
		return nil, &TransportError{Op: OpBind, Err: err}
	}
	if err := sock.EnableBroadcast(); err != nil {
		sock.Close()
		return nil, &TransportError{Op: OpEnableBroadcast, Err: err}
	}
	peer := netip.AddrPortFrom(broadcast, BrowserPort)
	if _, err := sock.SendTo(ctx, encodeBroadcastEnumRequest(), peer); err != nil {
		sock.Close()
		return nil, &TransportError{Op: OpSend, Addr: peer, Err: err}
	}
	return &Stream{
		sock: sock,
		buf:  make([]byte, headerSize+maxEnumPayload),
	}, nil
}

func decodeEnumDatagram(origin netip.Addr, datagram []byte) ([]*InstanceInfo, error) {
	payload, err := validatePayloadResponse(datagram)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(payload)
	if err != nil {
		return nil, err
	}
	return parseInstanceRecords(origin, text)
}

// Stream yields the instances discovered by a network-wide enumeration as
// their hosts respond. It has no natural end: it keeps waiting for further
// datagrams until the caller stops pulling or a fatal error occurs. A Stream
// is owned by a single consumer and must not be used concurrently.
type Stream struct {
	sock    Socket
	buf     []byte
	pending []*InstanceInfo
	err     error
	closed  bool
}

// Next returns the next discovered instance, waiting for a datagram if none
// of the previously received ones has unyielded records. Every record is
// stamped with the address of the host that sent it.
//
// A context cancellation or deadline only abandons the current wait; the
// stream stays usable. Any transport failure or malformed datagram is fatal:
// Next returns the error and every later call returns it again.
func (s *Stream) Next(ctx context.Context) (*InstanceInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	for len(s.pending) == 0 {
		n, origin, err := s.sock.RecvFrom(ctx, s.buf)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.err = &TransportError{Op: OpReceive, Err: err}
			return nil, s.err
		}
		infos, err := decodeEnumDatagram(origin.Addr(), s.buf[:n])
		if err != nil {
			s.err = err
			return nil, s.err
		}
		s.pending = infos
	}
	info := s.pending[0]
	s.pending = s.pending[1:]
	return info, nil
}

// Close releases the stream's socket. It is safe to call more than once and
// to abandon a stream mid-iteration; no protocol-level cleanup is needed.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sock.Close()
}
