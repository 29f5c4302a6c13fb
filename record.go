package ssrp

import (
	"net/netip"
	"strconv"
	"strings"
)

// splitScanner iterates the semicolon separated tokens of a response payload
// while tracking how many bytes have been consumed. Each token accounts for
// its own length plus one byte for the delimiter, so after the empty token
// produced by a record's ";;" terminator the consumed count lands exactly on
// the first byte of the next record.
type splitScanner struct {
	rest      string
	consumed  int
	exhausted bool
}

func (s *splitScanner) next() (string, bool) {
	if s.exhausted {
		return "", false
	}
	var tok string
	if i := strings.IndexByte(s.rest, ';'); i >= 0 {
		tok = s.rest[:i]
		s.rest = s.rest[i+1:]
	} else {
		tok = s.rest
		s.rest = ""
		s.exhausted = true
	}
	s.consumed += len(tok) + 1
	return tok, true
}

// parseInstanceRecord parses one instance record from the start of text and
// reports how many bytes it consumed. Callers that allow several
// back-to-back records re-invoke it on text[consumed:]; callers that require
// exactly one record treat a short consumed count as extraneous data.
func parseInstanceRecord(addr netip.Addr, text string) (*InstanceInfo, int, error) {
	sc := splitScanner{rest: text}

	expect := func(identifier string, field Field) error {
		tok, ok := sc.next()
		if !ok {
			return &UnexpectedTokenError{Expected: tokIdentifier(field), Found: tokEndOfMessage()}
		}
		if tok != identifier {
			return &UnexpectedTokenError{Expected: tokIdentifier(field), Found: tokLiteral(tok)}
		}
		return nil
	}
	value := func(field Field) (string, error) {
		tok, ok := sc.next()
		if !ok {
			return "", &UnexpectedTokenError{Expected: tokValueOf(field), Found: tokEndOfMessage()}
		}
		return tok, nil
	}

	info := &InstanceInfo{Addr: addr}

	if err := expect("ServerName", FieldServerName); err != nil {
		return nil, 0, err
	}
	serverName, err := value(FieldServerName)
	if err != nil {
		return nil, 0, err
	}
	info.ServerName = serverName

	if err := expect("InstanceName", FieldInstanceName); err != nil {
		return nil, 0, err
	}
	instanceName, err := value(FieldInstanceName)
	if err != nil {
		return nil, 0, err
	}
	info.InstanceName = instanceName

	if err := expect("IsClustered", FieldIsClustered); err != nil {
		return nil, 0, err
	}
	clustered, err := value(FieldIsClustered)
	if err != nil {
		return nil, 0, err
	}
	switch clustered {
	case "Yes":
		info.IsClustered = true
	case "No":
		info.IsClustered = false
	default:
		return nil, 0, &UnexpectedTokenError{
			Expected: tokValueOf(FieldIsClustered),
			Found:    tokLiteral(clustered),
		}
	}

	if err := expect("Version", FieldVersion); err != nil {
		return nil, 0, err
	}
	version, err := value(FieldVersion)
	if err != nil {
		return nil, 0, err
	}
	info.Version = version

	// Endpoint sections repeat until the empty token produced by the ";;"
	// terminator. Duplicate sections are not rejected; the last one wins.
loop:
	for {
		tok, ok := sc.next()
		if !ok {
			return nil, 0, &UnexpectedTokenError{
				Expected: tokEndpointOrTerminator(),
				Found:    tokEndOfMessage(),
			}
		}
		switch tok {
		case "":
			break loop
		case "np":
			name, err := value(FieldNamedPipeName)
			if err != nil {
				return nil, 0, err
			}
			info.NamedPipe = &NamedPipeInfo{Name: name}
		case "tcp":
			portStr, err := value(FieldTCPPort)
			if err != nil {
				return nil, 0, err
			}
			port, perr := strconv.ParseUint(portStr, 10, 16)
			if perr != nil {
				return nil, 0, &UnexpectedTokenError{
					Expected: tokTCPPort(),
					Found:    tokLiteral(portStr),
				}
			}
			info.TCP = &TCPInfo{Port: uint16(port)}
		case "via":
			params, err := value(FieldVIAMachineName)
			if err != nil {
				return nil, 0, err
			}
			via, verr := parseVIAParameters(params)
			if verr != nil {
				return nil, 0, verr
			}
			info.VIA = via
		case "rpc":
			name, err := value(FieldRPCComputerName)
			if err != nil {
				return nil, 0, err
			}
			info.RPC = &RPCInfo{ComputerName: name}
		case "spx":
			name, err := value(FieldSPXServiceName)
			if err != nil {
				return nil, 0, err
			}
			info.SPX = &SPXInfo{ServiceName: name}
		case "adsp":
			name, err := value(FieldADSPObjectName)
			if err != nil {
				return nil, 0, err
			}
			info.ADSP = &ADSPInfo{ObjectName: name}
		case "bv":
			item, err := value(FieldBVItemName)
			if err != nil {
				return nil, 0, err
			}
			group, err := value(FieldBVGroupName)
			if err != nil {
				return nil, 0, err
			}
			org, err := value(FieldBVOrgName)
			if err != nil {
				return nil, 0, err
			}
			info.BV = &BVInfo{ItemName: item, GroupName: group, OrgName: org}
		default:
			return nil, 0, &UnexpectedTokenError{
				Expected: tokEndpointOrTerminator(),
				Found:    tokLiteral(tok),
			}
		}
	}

	return info, sc.consumed, nil
}

// parseVIAParameters splits the single via value token. Unlike the other
// endpoint sections the via value has no delimiter of its own: it is one
// token of the form "machine,nic:port" with further ","-separated nic:port
// pairs appended.
func parseVIAParameters(params string) (*VIAInfo, error) {
	comma := strings.IndexByte(params, ',')
	if comma < 0 {
		return nil, &UnexpectedTokenError{
			Expected: tokVIAParameters(),
			Found:    tokLiteral(params),
		}
	}
	// Both "," and ":" separate nic/port parts, empty parts included.
	parts := strings.Split(strings.ReplaceAll(params[comma+1:], ":", ","), ",")
	addrs := make([]VIAAddress, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		if i+1 >= len(parts) {
			return nil, &UnexpectedTokenError{
				Expected: tokVIAParameters(),
				Found:    tokLiteral(params),
			}
		}
		addrs = append(addrs, VIAAddress{NIC: parts[i], Port: parts[i+1]})
	}
	return &VIAInfo{MachineName: params[:comma], Addresses: addrs}, nil
}

// parseInstanceRecords parses every record of an enumeration payload. A
// parse failure anywhere fails the whole payload: a corrupted offset
// invalidates everything after it.
func parseInstanceRecords(addr netip.Addr, text string) ([]*InstanceInfo, error) {
	var infos []*InstanceInfo
	for off := 0; off < len(text); {
		info, consumed, err := parseInstanceRecord(addr, text[off:])
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
		off += consumed
	}
	return infos, nil
}
