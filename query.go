package ssrp

import (
	"context"
	"net/netip"
)

// Client runs SSRP queries over a SocketFactory. The zero value is not
// usable; construct one with NewClient. A Client is stateless and safe for
// concurrent use as long as its factory is.
type Client struct {
	factory SocketFactory
}

// NewClient returns a Client using the given socket factory. A nil factory
// selects the default net-backed transport.
func NewClient(factory SocketFactory) *Client {
	if factory == nil {
		factory = NetSocketFactory{}
	}
	return &Client{factory: factory}
}

var defaultClient = NewClient(nil)

// QueryInstance asks host about the named instance using the default
// transport. See Client.QueryInstance.
func QueryInstance(ctx context.Context, host netip.Addr, instance string) (*InstanceInfo, error) {
	return defaultClient.QueryInstance(ctx, host, instance)
}

// QueryDAC asks host for the DAC port of the named instance using the
// default transport. See Client.QueryDAC.
func QueryDAC(ctx context.Context, host netip.Addr, instance string) (*DACInfo, error) {
	return defaultClient.QueryDAC(ctx, host, instance)
}

// QueryInstance sends a CLNT_UCAST_INST request to host and parses the
// single instance record of the response. The instance name must be at most
// MaxInstanceNameLen bytes; longer names fail with ErrInstanceNameTooLong
// before any socket is opened.
func (c *Client) QueryInstance(ctx context.Context, host netip.Addr, instance string) (*InstanceInfo, error) {
	if len(instance) > MaxInstanceNameLen {
		return nil, ErrInstanceNameTooLong
	}

	sock, peer, err := c.dialBrowser(ctx, host)
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	if _, err := sock.Send(ctx, encodeInstanceRequest(instance)); err != nil {
		return nil, &TransportError{Op: OpSend, Addr: peer, Err: err}
	}

	buf := make([]byte, headerSize+maxInstancePayload)
	n, err := sock.Recv(ctx, buf)
	if err != nil {
		return nil, &TransportError{Op: OpReceive, Err: err}
	}

	payload, err := validatePayloadResponse(buf[:n])
	if err != nil {
		return nil, err
	}
	text, err := decodeText(payload)
	if err != nil {
		return nil, err
	}
	info, consumed, err := parseInstanceRecord(host, text)
	if err != nil {
		return nil, err
	}
	if consumed != len(text) {
		// A record terminated by a lone ";" parses with a consumed count one
		// past the end of the text, so the tail slice has to be clamped.
		tail := append([]byte(nil), payload[min(consumed, len(payload)):]...)
		return nil, &ExtraneousDataError{Data: tail}
	}
	return info, nil
}

// QueryDAC sends a CLNT_UCAST_DAC request to host and decodes the fixed
// 6-byte response describing where the Dedicated Administrator Connection of
// the named instance listens.
func (c *Client) QueryDAC(ctx context.Context, host netip.Addr, instance string) (*DACInfo, error) {
	if len(instance) > MaxInstanceNameLen {
		return nil, ErrInstanceNameTooLong
	}

	sock, peer, err := c.dialBrowser(ctx, host)
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	if _, err := sock.Send(ctx, encodeDACRequest(instance)); err != nil {
		return nil, &TransportError{Op: OpSend, Addr: peer, Err: err}
	}

	buf := make([]byte, dacFrameSize)
	n, err := sock.Recv(ctx, buf)
	if err != nil {
		return nil, &TransportError{Op: OpReceive, Err: err}
	}

	port, err := decodeDACResponse(buf[:n])
	if err != nil {
		return nil, err
	}
	return &DACInfo{Port: port}, nil
}

// dialBrowser binds an ephemeral local socket in the target's address family
// and connects it to the browser port of host.
func (c *Client) dialBrowser(ctx context.Context, host netip.Addr) (Socket, netip.AddrPort, error) {
	sock, err := c.factory.Bind(ctx, localUnspecified(host))
	if err != nil {
		return nil, netip.AddrPort{}, &TransportError{Op: OpBind, Err: err}
	}
	peer := netip.AddrPortFrom(host, BrowserPort)
	if err := sock.Connect(peer); err != nil {
		sock.Close()
		return nil, netip.AddrPort{}, &TransportError{Op: OpConnect, Addr: peer, Err: err}
	}
	return sock, peer, nil
}

func localUnspecified(remote netip.Addr) netip.AddrPort {
	if remote.Is4() || remote.Is4In6() {
		return netip.AddrPortFrom(netip.IPv4Unspecified(), 0)
	}
	return netip.AddrPortFrom(netip.IPv6Unspecified(), 0)
}
