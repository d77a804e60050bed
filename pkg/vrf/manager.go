// Package vrf manages one policy routing table per virtual
// routing/forwarding domain.
package vrf

import (
	"errors"
	"sort"

	"github.com/telekom/das-schiff-policy-router/pkg/route"
	"github.com/telekom/das-schiff-policy-router/pkg/routingtable"
)

// ErrVrfNotFound is returned by diagnostic accessors for VRF ids
// without a table. Lookup operations do not return it; an unknown VRF
// simply yields no route.
var ErrVrfNotFound = errors.New("VRF not found")

// Manager is a keyed collection of independent policy routing tables.
// Tables are created lazily on the first route insertion for a VRF id
// and never removed. Lookups on an unknown VRF return empty results
// instead of creating a table.
//
// Like the tables it owns, the Manager is unsynchronized: build the
// tables with a single writer, then query from any number of readers.
type Manager struct {
	tables map[uint32]*routingtable.PolicyRoutingTable
}

// NewManager returns a Manager with no tables.
func NewManager() *Manager {
	return &Manager{tables: make(map[uint32]*routingtable.PolicyRoutingTable)}
}

// AddRoute inserts a route into the table of the given VRF, creating
// the table when the VRF is seen for the first time.
func (m *Manager) AddRoute(vrfID uint32, prefix string, prefixLen uint8, rule routingtable.PolicyRule, attrs routingtable.RouteAttributes) error {
	table, ok := m.tables[vrfID]
	if !ok {
		table = routingtable.NewPolicyRoutingTable()
		m.tables[vrfID] = table
	}
	return table.AddRoute(prefix, prefixLen, rule, attrs)
}

// Lookup returns the ranked route entries for the packet in the given
// VRF, or nil when the VRF is unknown.
func (m *Manager) Lookup(vrfID uint32, pkt routingtable.PacketInfo) []routingtable.RouteEntry {
	table, ok := m.tables[vrfID]
	if !ok {
		return nil
	}
	return table.Lookup(pkt)
}

// FindBestRoute returns the best route for the packet in the given
// VRF, or false when the VRF is unknown or no route matches.
func (m *Manager) FindBestRoute(vrfID uint32, pkt routingtable.PacketInfo) (routingtable.RouteAttributes, bool) {
	table, ok := m.tables[vrfID]
	if !ok {
		return routingtable.RouteAttributes{}, false
	}
	return table.FindBestRoute(pkt)
}

// GetEqualCostPaths returns the equal-cost candidate set for the
// packet in the given VRF, or nil when the VRF is unknown.
func (m *Manager) GetEqualCostPaths(vrfID uint32, pkt routingtable.PacketInfo) []routingtable.RouteAttributes {
	table, ok := m.tables[vrfID]
	if !ok {
		return nil
	}
	return table.GetEqualCostPaths(pkt)
}

// SelectEcmpPathUsingFlowHash picks the flow-hashed equal-cost path
// for the packet in the given VRF, or false when the VRF is unknown
// or no route matches.
func (m *Manager) SelectEcmpPathUsingFlowHash(vrfID uint32, pkt routingtable.PacketInfo) (routingtable.RouteAttributes, bool) {
	table, ok := m.tables[vrfID]
	if !ok {
		return routingtable.RouteAttributes{}, false
	}
	return table.SelectEcmpPathUsingFlowHash(pkt)
}

// Table returns the routing table of the given VRF for diagnostics.
func (m *Manager) Table(vrfID uint32) (*routingtable.PolicyRoutingTable, error) {
	table, ok := m.tables[vrfID]
	if !ok {
		return nil, ErrVrfNotFound
	}
	return table, nil
}

// VrfIDs returns the known VRF ids in ascending order.
func (m *Manager) VrfIDs() []uint32 {
	ids := make([]uint32, 0, len(m.tables))
	for id := range m.tables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ListRouteInformation summarizes all tables per VRF and protocol.
func (m *Manager) ListRouteInformation() []route.Information {
	infos := map[route.Key]route.Information{}
	for vrfID, table := range m.tables {
		for protocol, quantity := range table.ProtocolCounts() {
			key := route.Key{VrfID: vrfID, Protocol: protocol}
			info, ok := infos[key]
			if !ok {
				info = route.Information{VrfID: vrfID, Protocol: protocol}
			}
			info.Quantity += quantity
			infos[key] = info
		}
	}

	infoList := make([]route.Information, 0, len(infos))
	for _, info := range infos {
		infoList = append(infoList, info)
	}
	sort.Slice(infoList, func(i, j int) bool {
		if infoList[i].VrfID != infoList[j].VrfID {
			return infoList[i].VrfID < infoList[j].VrfID
		}
		return infoList[i].Protocol < infoList[j].Protocol
	})
	return infoList
}
