package ssrp

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeInstanceRequest(t *testing.T) {
	got := encodeInstanceRequest("SQLEXPRESS")
	want := []byte{0x04, 'S', 'Q', 'L', 'E', 'X', 'P', 'R', 'E', 'S', 'S'}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeDACRequest(t *testing.T) {
	got := encodeDACRequest("MSSQLSERVER")
	want := append([]byte{0x0F, 0x01}, "MSSQLSERVER"...)
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeEnumRequests(t *testing.T) {
	if got := encodeUnicastEnumRequest(); !bytes.Equal(got, []byte{0x03}) {
		t.Errorf("unicast request = % x, want 03", got)
	}
	if got := encodeBroadcastEnumRequest(); !bytes.Equal(got, []byte{0x02}) {
		t.Errorf("broadcast request = % x, want 02", got)
	}
}

func TestValidatePayloadResponse(t *testing.T) {
	payload := []byte(sampleRecord)
	frame := append([]byte{0x05, byte(len(payload)), byte(len(payload) >> 8)}, payload...)

	got, err := validatePayloadResponse(frame)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: got %q", got)
	}
}

func TestValidatePayloadResponseErrors(t *testing.T) {
	tests := []struct {
		name     string
		datagram []byte
		want     error
	}{
		{
			name:     "empty datagram",
			datagram: nil,
			want: &UnexpectedTokenError{
				Expected: tokMessageIdentifier(0x05),
				Found:    tokEndOfMessage(),
			},
		},
		{
			name:     "wrong message identifier",
			datagram: []byte{0x04, 0x00, 0x00},
			want: &UnexpectedTokenError{
				Expected: tokMessageIdentifier(0x05),
				Found:    tokMessageIdentifier(0x04),
			},
		},
		{
			name:     "truncated length field",
			datagram: []byte{0x05, 0x02},
			want: &UnexpectedTokenError{
				Expected: tokMessageLength(),
				Found:    tokEndOfMessage(),
			},
		},
		{
			name:     "declared length too large",
			datagram: []byte{0x05, 0x05, 0x00, 'a', 'b', 'c', 'd'},
			want:     &LengthMismatchError{Datagram: 7, Header: 8},
		},
		{
			name:     "declared length too small",
			datagram: []byte{0x05, 0x02, 0x00, 'a', 'b', 'c', 'd'},
			want:     &LengthMismatchError{Datagram: 7, Header: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validatePayloadResponse(tt.datagram)
			assertProtocolError(t, err, tt.want)
		})
	}
}

func TestDecodeDACResponse(t *testing.T) {
	port, err := decodeDACResponse([]byte{0x05, 0x06, 0x00, 0x01, 0x39, 0x05})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if port != 1337 {
		t.Errorf("port = %d, want 1337", port)
	}
}

func TestDecodeDACResponseErrors(t *testing.T) {
	tests := []struct {
		name     string
		datagram []byte
		want     error
	}{
		{
			name:     "empty datagram",
			datagram: nil,
			want: &UnexpectedTokenError{
				Expected: tokMessageIdentifier(0x05),
				Found:    tokEndOfMessage(),
			},
		},
		{
			name:     "wrong message identifier",
			datagram: []byte{0x0F, 0x06, 0x00, 0x01, 0x39, 0x05},
			want: &UnexpectedTokenError{
				Expected: tokMessageIdentifier(0x05),
				Found:    tokMessageIdentifier(0x0F),
			},
		},
		{
			name:     "truncated length field",
			datagram: []byte{0x05, 0x06},
			want: &UnexpectedTokenError{
				Expected: tokMessageLength(),
				Found:    tokEndOfMessage(),
			},
		},
		{
			// The DAC header counts the whole frame, unlike instance
			// responses where it counts the payload only.
			name:     "header does not declare whole frame",
			datagram: []byte{0x05, 0x05, 0x00, 0x01, 0x39, 0x05},
			want:     &LengthMismatchError{Datagram: 6, Header: 5},
		},
		{
			name:     "truncated before version",
			datagram: []byte{0x05, 0x06, 0x00},
			want: &UnexpectedTokenError{
				Expected: tokDACVersion(0x01),
				Found:    tokEndOfMessage(),
			},
		},
		{
			name:     "unsupported version",
			datagram: []byte{0x05, 0x06, 0x00, 0x02, 0x39, 0x05},
			want: &UnexpectedTokenError{
				Expected: tokDACVersion(0x01),
				Found:    tokDACVersion(0x02),
			},
		},
		{
			name:     "truncated before port",
			datagram: []byte{0x05, 0x06, 0x00, 0x01, 0x39},
			want: &UnexpectedTokenError{
				Expected: tokDACPort(),
				Found:    tokEndOfMessage(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeDACResponse(tt.datagram)
			assertProtocolError(t, err, tt.want)
		})
	}
}

func TestDecodeTextInvalidUTF8(t *testing.T) {
	_, err := decodeText([]byte{0xFF, 0xFE, 0xFD})
	var textErr *InvalidTextError
	if !errors.As(err, &textErr) {
		t.Fatalf("got %v, want InvalidTextError", err)
	}
	if !bytes.Equal(textErr.Data, []byte{0xFF, 0xFE, 0xFD}) {
		t.Errorf("Data = % x", textErr.Data)
	}
}

// assertProtocolError compares err against a wanted UnexpectedTokenError or
// LengthMismatchError value.
func assertProtocolError(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	switch want := want.(type) {
	case *UnexpectedTokenError:
		var got *UnexpectedTokenError
		if !errors.As(err, &got) {
			t.Fatalf("got %v, want UnexpectedTokenError", err)
		}
		if got.Expected != want.Expected || got.Found != want.Found {
			t.Errorf("got (%s, %s), want (%s, %s)", got.Expected, got.Found, want.Expected, want.Found)
		}
	case *LengthMismatchError:
		var got *LengthMismatchError
		if !errors.As(err, &got) {
			t.Fatalf("got %v, want LengthMismatchError", err)
		}
		if *got != *want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	default:
		t.Fatalf("unsupported want type %T", want)
	}
}
