package ssrp

import "net/netip"

// MaxInstanceNameLen is the longest instance name accepted in a request.
// The protocol allows instance names up to 255 bytes in responses, but a
// request carrying more than 32 bytes is refused before any I/O happens.
const MaxInstanceNameLen = 32

// BrowserPort is the UDP port the SQL Server Browser service listens on.
const BrowserPort = 1434

// InstanceInfo describes one SQL Server instance as reported in an SVR_RESP
// message. Every endpoint field is nil unless the corresponding endpoint
// section appeared in the response.
type InstanceInfo struct {
	// Addr is the address of the host that reported the instance. For a
	// network enumeration this is the responding host, not the broadcast
	// address the request was sent to.
	Addr netip.Addr

	// ServerName is the name of the server hosting the instance.
	ServerName string

	// InstanceName is the name of the instance being described.
	InstanceName string

	// IsClustered reports whether the instance is part of a failover cluster.
	IsClustered bool

	// Version is the version string of the instance, e.g. "15.0.2000.5".
	Version string

	NamedPipe *NamedPipeInfo
	TCP       *TCPInfo
	VIA       *VIAInfo
	RPC       *RPCInfo
	SPX       *SPXInfo
	ADSP      *ADSPInfo
	BV        *BVInfo
}

// NamedPipeInfo describes a named pipe endpoint.
type NamedPipeInfo struct {
	// Name is the pipe name, e.g. `\\HOST\pipe\sql\query`.
	Name string
}

// TCPInfo describes a TCP endpoint.
type TCPInfo struct {
	// Port is the TCP port the instance listens on.
	Port uint16
}

// VIAInfo describes a Virtual Interface Architecture endpoint.
type VIAInfo struct {
	// MachineName is the NetBIOS name of the machine the server resides on.
	MachineName string

	// Addresses lists the advertised NIC/port combinations.
	Addresses []VIAAddress
}

// VIAAddress is one NIC identifier and port combination of a VIA endpoint.
// Both values are carried verbatim from the response text.
type VIAAddress struct {
	NIC  string
	Port string
}

// RPCInfo describes an RPC endpoint.
type RPCInfo struct {
	// ComputerName is the name of the computer to connect to.
	ComputerName string
}

// SPXInfo describes an SPX service endpoint.
type SPXInfo struct {
	// ServiceName is the SPX service name of the server.
	ServiceName string
}

// ADSPInfo describes an AppleTalk endpoint.
type ADSPInfo struct {
	// ObjectName is the AppleTalk service object name.
	ObjectName string
}

// BVInfo describes a Banyan VINES endpoint.
type BVInfo struct {
	ItemName  string
	GroupName string
	OrgName   string
}

// DACInfo describes the Dedicated Administrator Connection endpoint of an
// instance.
type DACInfo struct {
	// Port is the TCP port the DAC endpoint listens on.
	Port uint16
}
