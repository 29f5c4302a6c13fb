package ssrp

import (
	"errors"
	"net/netip"
	"testing"
)

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{tokEndOfMessage(), "end of message"},
		{tokLiteral("tcp"), `"tcp"`},
		{tokMessageIdentifier(0x05), "message identifier 0x05"},
		{tokMessageLength(), "message length"},
		{tokDACVersion(1), "dac version 1"},
		{tokDACPort(), "dac port"},
		{tokIdentifier(FieldServerName), "identifier for field ServerName"},
		{tokValueOf(FieldIsClustered), "value for field IsClustered"},
		{tokTCPPort(), "tcp port"},
		{tokVIAParameters(), "via parameters"},
		{tokEndpointOrTerminator(), "endpoint identifier or semicolon"},
	}
	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestTransportErrorMessage(t *testing.T) {
	base := errors.New("boom")
	peer := netip.MustParseAddrPort("192.0.2.10:1434")

	withAddr := &TransportError{Op: OpSend, Addr: peer, Err: base}
	if got, want := withAddr.Error(), "ssrp: send 192.0.2.10:1434: boom"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !errors.Is(withAddr, base) {
		t.Error("Unwrap does not expose the underlying error")
	}

	withoutAddr := &TransportError{Op: OpBind, Err: base}
	if got, want := withoutAddr.Error(), "ssrp: bind: boom"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProtocolErrorMarker(t *testing.T) {
	protocolErrs := []error{
		&UnexpectedTokenError{Expected: tokMessageLength(), Found: tokEndOfMessage()},
		&LengthMismatchError{Datagram: 4, Header: 7},
		&InvalidTextError{},
		&ExtraneousDataError{Data: []byte("x")},
	}
	for _, err := range protocolErrs {
		var perr ProtocolError
		if !errors.As(err, &perr) {
			t.Errorf("%T does not match ProtocolError", err)
		}
	}

	var perr ProtocolError
	if errors.As(&TransportError{Op: OpBind, Err: errors.New("boom")}, &perr) {
		t.Error("TransportError matched ProtocolError")
	}
	if errors.As(ErrInstanceNameTooLong, &perr) {
		t.Error("ErrInstanceNameTooLong matched ProtocolError")
	}
}
