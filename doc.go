// Package ssrp implements the client side of the SQL Server Resolution
// Protocol (MC-SQLR), the UDP discovery protocol served by the SQL Server
// Browser service on port 1434.
//
// The protocol answers one question: where are the SQL Server instances, and
// on which endpoints (TCP port, named pipe, RPC, ...) can each one be
// reached. It does not carry any database traffic; use a TDS driver once an
// endpoint is known.
//
// # Quick Start
//
// Query a single named instance on a known host:
//
//	info, err := ssrp.QueryInstance(ctx, netip.MustParseAddr("10.0.0.5"), "SQLEXPRESS")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if info.TCP != nil {
//	    fmt.Printf("instance reachable on tcp port %d\n", info.TCP.Port)
//	}
//
// Enumerate every instance a single host advertises:
//
//	infos, err := ssrp.EnumerateHost(ctx, netip.MustParseAddr("10.0.0.5"))
//
// Sweep a whole subnet and consume responses as they arrive:
//
//	stream, err := ssrp.EnumerateNetwork(ctx, netip.MustParseAddr("255.255.255.255"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//	for {
//	    info, err := stream.Next(ctx)
//	    if err != nil {
//	        break
//	    }
//	    fmt.Printf("found %s on %s\n", info.InstanceName, info.Addr)
//	}
//
// # Operations
//
//   - [QueryInstance] asks one host about one named instance.
//   - [QueryDAC] asks for the Dedicated Administrator Connection port of an
//     instance.
//   - [EnumerateHost] asks one host for all of its instances; the result is a
//     finite slice, fully parsed before it is returned.
//   - [EnumerateNetwork] broadcasts the enumeration request and returns a
//     [Stream] that lazily yields instances as hosts respond. The stream has
//     no natural end; bound it with a context.
//
// No operation applies an internal timeout or retry. Compose
// context.WithTimeout (or cancellation) around any call, including each
// [Stream.Next].
//
// # Errors
//
// Failures are typed so a caller can always tell an unreachable peer from a
// peer that answered garbage. Transport failures surface as [TransportError],
// tagged with the operation and peer address. Malformed responses surface as
// a [ProtocolError]: [UnexpectedTokenError] names the exact token that was
// being parsed, [LengthMismatchError] reports the header/datagram size
// disagreement, [InvalidTextError] a text decoding failure and
// [ExtraneousDataError] trailing bytes after a complete record.
//
// # Custom transports
//
// The default [Client] runs over the net package. Supply a [SocketFactory]
// to NewClient to run the engine over a different I/O runtime; every
// operation uses exactly one socket for its lifetime.
package ssrp
