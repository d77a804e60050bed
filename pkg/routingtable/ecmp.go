package routingtable

import (
	"encoding/binary"
	"hash/fnv"
)

// GetEqualCostPaths returns the attributes of the routes tied with the
// best route for the packet: the leading run of the sorted lookup
// result whose rule priority, administrative distance, local
// preference and MED all equal the best entry's, and that are active.
func (t *PolicyRoutingTable) GetEqualCostPaths(pkt PacketInfo) []RouteAttributes {
	entries := t.Lookup(pkt)

	var paths []RouteAttributes
	for i := range entries {
		if !entries[i].Attrs.Active || !equalCost(entries[i], entries[0]) {
			break
		}
		paths = append(paths, entries[i].Attrs)
	}
	return paths
}

// SelectEcmpPathUsingFlowHash picks one equal-cost path for the packet
// by hashing its flow tuple. Packets of the same flow always select
// the same path as long as the candidate set is unchanged; distinct
// flows spread across the candidates.
func (t *PolicyRoutingTable) SelectEcmpPathUsingFlowHash(pkt PacketInfo) (RouteAttributes, bool) {
	paths := t.GetEqualCostPaths(pkt)
	switch len(paths) {
	case 0:
		return RouteAttributes{}, false
	case 1:
		return paths[0], true
	}
	return paths[flowHash(pkt)%uint32(len(paths))], true
}

func equalCost(a, b RouteEntry) bool {
	return a.Rule.Priority == b.Rule.Priority &&
		a.Attrs.AdminDistance == b.Attrs.AdminDistance &&
		a.Attrs.LocalPref == b.Attrs.LocalPref &&
		a.Attrs.MED == b.Attrs.MED
}

// flowHash folds the packet's flow tuple with FNV-1a.
func flowHash(pkt PacketInfo) uint32 {
	var buf [17]byte
	binary.BigEndian.PutUint32(buf[0:4], pkt.SrcIP)
	binary.BigEndian.PutUint32(buf[4:8], pkt.DstIP)
	binary.BigEndian.PutUint16(buf[8:10], pkt.SrcPort)
	binary.BigEndian.PutUint16(buf[10:12], pkt.DstPort)
	buf[12] = pkt.Protocol
	binary.BigEndian.PutUint32(buf[13:17], pkt.FlowLabel)

	h := fnv.New32a()
	_, _ = h.Write(buf[:])
	return h.Sum32()
}
