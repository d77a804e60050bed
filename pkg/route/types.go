// Package route holds routing protocol identifiers and the summary
// types shared between the routing table, diagnostics and metrics.
package route

// Routing protocol identifiers carried in route attributes.
const (
	ProtocolUnspec uint8 = iota
	ProtocolConnected
	ProtocolStatic
	ProtocolOSPF
	ProtocolEBGP
	ProtocolIBGP
)

// Default administrative distances per protocol. The values are taken
// from FRR (Zebra).
const (
	AdminDistanceConnected uint8 = 0
	AdminDistanceStatic    uint8 = 1
	AdminDistanceEBGP      uint8 = 20
	AdminDistanceOSPF      uint8 = 110
	AdminDistanceIBGP      uint8 = 200
)

var protocolNames = map[uint8]string{
	ProtocolUnspec:    "unspec",
	ProtocolConnected: "connected",
	ProtocolStatic:    "static",
	ProtocolOSPF:      "ospf",
	ProtocolEBGP:      "ebgp",
	ProtocolIBGP:      "ibgp",
}

// GetProtocolName returns the textual name of a protocol identifier,
// or "unknown" for identifiers outside the known set.
func GetProtocolName(protocol uint8) string {
	if name, ok := protocolNames[protocol]; ok {
		return name
	}
	return "unknown"
}

// GetProtocolNumber is the inverse of GetProtocolName. Unknown names
// map to ProtocolUnspec.
func GetProtocolNumber(name string) uint8 {
	for protocol, protocolName := range protocolNames {
		if protocolName == name {
			return protocol
		}
	}
	return ProtocolUnspec
}

// Information summarizes the routes of one VRF per protocol, for
// diagnostics and metrics.
type Information struct {
	VrfID    uint32
	Protocol uint8
	Quantity int
}

// Key identifies one Information bucket.
type Key struct {
	VrfID    uint32
	Protocol uint8
}
