package ssrp

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrInstanceNameTooLong is returned when a requested instance name exceeds
// MaxInstanceNameLen bytes. The check happens before any I/O.
var ErrInstanceNameTooLong = errors.New("ssrp: instance name exceeds 32 bytes")

// Op identifies the transport operation a TransportError happened in.
type Op string

const (
	OpBind            Op = "bind"
	OpEnableBroadcast Op = "enable broadcast"
	OpConnect         Op = "connect"
	OpSend            Op = "send"
	OpReceive         Op = "receive"
)

// TransportError wraps a socket failure with the operation that caused it
// and, where one applies, the peer address involved.
type TransportError struct {
	Op   Op
	Addr netip.AddrPort // zero when the operation has no peer
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr.IsValid() {
		return fmt.Sprintf("ssrp: %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("ssrp: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is implemented by every error describing a response that was
// received but violated the protocol. The set of implementations is closed:
// UnexpectedTokenError, LengthMismatchError, InvalidTextError and
// ExtraneousDataError.
type ProtocolError interface {
	error
	protocolError()
}

// UnexpectedTokenError reports that parsing expected one token and found
// another. Expected always names the exact field or header element that was
// being parsed when the mismatch occurred.
type UnexpectedTokenError struct {
	Expected Token
	Found    Token
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("ssrp: expected %s, but found %s", e.Expected, e.Found)
}

func (e *UnexpectedTokenError) protocolError() {}

// LengthMismatchError reports a disagreement between the size of a received
// datagram and the size its header declared. Both values count whole-frame
// bytes regardless of which length convention the message type uses.
type LengthMismatchError struct {
	Datagram int
	Header   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("ssrp: datagram is %d bytes but header specifies %d bytes", e.Datagram, e.Header)
}

func (e *LengthMismatchError) protocolError() {}

// InvalidTextError reports that the textual part of a response could not be
// decoded as UTF-8.
type InvalidTextError struct {
	// Data is the undecodable payload.
	Data []byte
}

func (e *InvalidTextError) Error() string {
	return "ssrp: response text is not valid UTF-8"
}

func (e *InvalidTextError) protocolError() {}

// ExtraneousDataError reports bytes that remained after a response that must
// contain exactly one record was fully parsed.
type ExtraneousDataError struct {
	// Data is the unparsed tail of the payload.
	Data []byte
}

func (e *ExtraneousDataError) Error() string {
	return fmt.Sprintf("ssrp: %d unexpected trailing bytes", len(e.Data))
}

func (e *ExtraneousDataError) protocolError() {}

// TokenKind enumerates everything the parser can expect or encounter while
// decoding a response.
type TokenKind int

const (
	// TokenEndOfMessage stands for the end of the datagram.
	TokenEndOfMessage TokenKind = iota

	// TokenLiteral is a literal string taken from the response text.
	TokenLiteral

	// TokenMessageIdentifier is the message identifier byte of the header.
	TokenMessageIdentifier

	// TokenMessageLength is the 16-bit length field of the header.
	TokenMessageLength

	// TokenDACVersion is the protocol version byte of a DAC response.
	TokenDACVersion

	// TokenDACPort is the 16-bit port of a DAC response.
	TokenDACPort

	// TokenFieldIdentifier is the identifier token introducing a field.
	TokenFieldIdentifier

	// TokenFieldValue is the value token of a field.
	TokenFieldValue

	// TokenTCPPort is the decimal port of a tcp endpoint section.
	TokenTCPPort

	// TokenVIAParameters is the combined machine,nic:port value of a via
	// endpoint section.
	TokenVIAParameters

	// TokenEndpointOrTerminator is either an endpoint identifier or the
	// empty token terminating the record.
	TokenEndpointOrTerminator
)

// Token is one element of the response being parsed, used on both sides of
// an UnexpectedTokenError. Which payload fields are meaningful depends on
// Kind: Field for the field identifier and value kinds, Literal for literal
// kinds, Byte for the message identifier and DAC version kinds.
type Token struct {
	Kind    TokenKind
	Field   Field
	Literal string
	Byte    byte
}

func (t Token) String() string {
	switch t.Kind {
	case TokenEndOfMessage:
		return "end of message"
	case TokenLiteral:
		return fmt.Sprintf("%q", t.Literal)
	case TokenMessageIdentifier:
		return fmt.Sprintf("message identifier %#02x", t.Byte)
	case TokenMessageLength:
		return "message length"
	case TokenDACVersion:
		return fmt.Sprintf("dac version %d", t.Byte)
	case TokenDACPort:
		return "dac port"
	case TokenFieldIdentifier:
		return fmt.Sprintf("identifier for field %s", t.Field)
	case TokenFieldValue:
		return fmt.Sprintf("value for field %s", t.Field)
	case TokenTCPPort:
		return "tcp port"
	case TokenVIAParameters:
		return "via parameters"
	case TokenEndpointOrTerminator:
		return "endpoint identifier or semicolon"
	}
	return fmt.Sprintf("unknown token kind %d", int(t.Kind))
}

func tokEndOfMessage() Token          { return Token{Kind: TokenEndOfMessage} }
func tokLiteral(s string) Token       { return Token{Kind: TokenLiteral, Literal: s} }
func tokMessageIdentifier(b byte) Token { return Token{Kind: TokenMessageIdentifier, Byte: b} }
func tokMessageLength() Token         { return Token{Kind: TokenMessageLength} }
func tokDACVersion(v byte) Token      { return Token{Kind: TokenDACVersion, Byte: v} }
func tokDACPort() Token               { return Token{Kind: TokenDACPort} }
func tokIdentifier(f Field) Token     { return Token{Kind: TokenFieldIdentifier, Field: f} }
func tokValueOf(f Field) Token        { return Token{Kind: TokenFieldValue, Field: f} }
func tokTCPPort() Token               { return Token{Kind: TokenTCPPort} }
func tokVIAParameters() Token         { return Token{Kind: TokenVIAParameters} }
func tokEndpointOrTerminator() Token  { return Token{Kind: TokenEndpointOrTerminator} }

// Field enumerates the named fields of an instance record.
type Field int

const (
	FieldServerName Field = iota
	FieldInstanceName
	FieldIsClustered
	FieldVersion

	FieldNamedPipeName
	FieldTCPPort
	FieldVIAMachineName
	FieldRPCComputerName
	FieldSPXServiceName
	FieldADSPObjectName
	FieldBVItemName
	FieldBVGroupName
	FieldBVOrgName
)

func (f Field) String() string {
	switch f {
	case FieldServerName:
		return "ServerName"
	case FieldInstanceName:
		return "InstanceName"
	case FieldIsClustered:
		return "IsClustered"
	case FieldVersion:
		return "Version"
	case FieldNamedPipeName:
		return "named pipe name"
	case FieldTCPPort:
		return "tcp port"
	case FieldVIAMachineName:
		return "via machine name"
	case FieldRPCComputerName:
		return "rpc computer name"
	case FieldSPXServiceName:
		return "spx service name"
	case FieldADSPObjectName:
		return "adsp object name"
	case FieldBVItemName:
		return "bv item name"
	case FieldBVGroupName:
		return "bv group name"
	case FieldBVOrgName:
		return "bv org name"
	}
	return fmt.Sprintf("unknown field %d", int(f))
}
