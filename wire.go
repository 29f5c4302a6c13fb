package ssrp

import (
	"encoding/binary"
	"unicode/utf8"
)

// Message identifiers from MC-SQLR. The server answers every request type
// with an SVR_RESP frame.
const (
	msgClientBroadcastEx byte = 0x02 // CLNT_BCAST_EX
	msgClientUnicastEx   byte = 0x03 // CLNT_UCAST_EX
	msgClientUnicastInst byte = 0x04 // CLNT_UCAST_INST
	msgServerResponse    byte = 0x05 // SVR_RESP
	msgClientUnicastDAC  byte = 0x0F // CLNT_UCAST_DAC
)

// dacProtocolVersion is the only DAC protocol revision, sent in the request
// and echoed in the response.
const dacProtocolVersion byte = 0x01

const (
	// headerSize is the SVR_RESP header: identifier byte plus u16 length.
	headerSize = 3

	// dacFrameSize is the fixed size of a DAC response frame.
	dacFrameSize = 6

	// maxInstancePayload bounds the payload of a single-instance response.
	maxInstancePayload = 1024

	// maxEnumPayload is the largest payload the u16 length field can declare.
	// Host and network enumeration responses carry one record per instance,
	// so they get the full range.
	maxEnumPayload = 0xFFFF
)

func encodeInstanceRequest(instance string) []byte {
	req := make([]byte, 0, 1+len(instance))
	req = append(req, msgClientUnicastInst)
	return append(req, instance...)
}

func encodeDACRequest(instance string) []byte {
	req := make([]byte, 0, 2+len(instance))
	req = append(req, msgClientUnicastDAC, dacProtocolVersion)
	return append(req, instance...)
}

func encodeUnicastEnumRequest() []byte { return []byte{msgClientUnicastEx} }

func encodeBroadcastEnumRequest() []byte { return []byte{msgClientBroadcastEx} }

// validatePayloadResponse checks the SVR_RESP header of an instance or
// enumeration response and returns the payload that follows it. For these
// message types the declared length counts payload bytes only, excluding the
// 3-byte header; LengthMismatchError reconstructs the whole-frame size for
// reporting.
func validatePayloadResponse(datagram []byte) ([]byte, error) {
	if len(datagram) < 1 {
		return nil, &UnexpectedTokenError{
			Expected: tokMessageIdentifier(msgServerResponse),
			Found:    tokEndOfMessage(),
		}
	}
	if datagram[0] != msgServerResponse {
		return nil, &UnexpectedTokenError{
			Expected: tokMessageIdentifier(msgServerResponse),
			Found:    tokMessageIdentifier(datagram[0]),
		}
	}
	if len(datagram) < headerSize {
		return nil, &UnexpectedTokenError{
			Expected: tokMessageLength(),
			Found:    tokEndOfMessage(),
		}
	}
	declared := int(binary.LittleEndian.Uint16(datagram[1:3]))
	if declared != len(datagram)-headerSize {
		return nil, &LengthMismatchError{
			Datagram: len(datagram),
			Header:   declared + headerSize,
		}
	}
	return datagram[headerSize:], nil
}

// decodeDACResponse validates a DAC response frame and returns the
// advertised port. The DAC response uses the opposite length convention:
// the declared length counts the entire 6-byte frame, header included.
// Every byte range is checked against the received length in order, so a
// truncated datagram names exactly the field it is missing.
func decodeDACResponse(datagram []byte) (uint16, error) {
	if len(datagram) < 1 {
		return 0, &UnexpectedTokenError{
			Expected: tokMessageIdentifier(msgServerResponse),
			Found:    tokEndOfMessage(),
		}
	}
	if datagram[0] != msgServerResponse {
		return 0, &UnexpectedTokenError{
			Expected: tokMessageIdentifier(msgServerResponse),
			Found:    tokMessageIdentifier(datagram[0]),
		}
	}
	if len(datagram) < headerSize {
		return 0, &UnexpectedTokenError{
			Expected: tokMessageLength(),
			Found:    tokEndOfMessage(),
		}
	}
	declared := int(binary.LittleEndian.Uint16(datagram[1:3]))
	if declared != dacFrameSize {
		return 0, &LengthMismatchError{
			Datagram: len(datagram),
			Header:   declared,
		}
	}
	if len(datagram) < 4 {
		return 0, &UnexpectedTokenError{
			Expected: tokDACVersion(dacProtocolVersion),
			Found:    tokEndOfMessage(),
		}
	}
	if datagram[3] != dacProtocolVersion {
		return 0, &UnexpectedTokenError{
			Expected: tokDACVersion(dacProtocolVersion),
			Found:    tokDACVersion(datagram[3]),
		}
	}
	if len(datagram) < dacFrameSize {
		return 0, &UnexpectedTokenError{
			Expected: tokDACPort(),
			Found:    tokEndOfMessage(),
		}
	}
	return binary.LittleEndian.Uint16(datagram[4:6]), nil
}

// decodeText converts a response payload to text. The protocol nominally
// uses MBCS; everything observed on the wire is ASCII, so UTF-8 validation
// is the compatible strict check.
func decodeText(payload []byte) (string, error) {
	if !utf8.Valid(payload) {
		return "", &InvalidTextError{Data: payload}
	}
	return string(payload), nil
}
