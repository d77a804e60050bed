package routingtable

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestGetEqualCostPaths(t *testing.T) {
	g := NewWithT(t)
	table := NewPolicyRoutingTable()

	// Three routes with identical cost, one strictly worse.
	for _, nextHop := range []string{"192.168.0.1", "192.168.0.2", "192.168.0.3"} {
		addRoute(g, table, "10.0.0.0", 8, nextHop, nil)
	}
	addRoute(g, table, "10.0.0.0", 8, "192.168.0.4", func(_ *PolicyRule, attrs *RouteAttributes) {
		attrs.MED = 50
	})

	paths := table.GetEqualCostPaths(packetTo(g, "10.1.2.3"))
	g.Expect(paths).To(HaveLen(3))
	for _, path := range paths {
		g.Expect(path.NextHop).ToNot(Equal(mustAddr(g, "192.168.0.4")))
	}
}

func TestGetEqualCostPathsNoRoute(t *testing.T) {
	g := NewWithT(t)
	table := NewPolicyRoutingTable()

	g.Expect(table.GetEqualCostPaths(packetTo(g, "10.1.2.3"))).To(BeEmpty())
}

func TestGetEqualCostPathsSkipsInactive(t *testing.T) {
	g := NewWithT(t)
	table := NewPolicyRoutingTable()

	addRoute(g, table, "10.0.0.0", 8, "192.168.0.1", func(_ *PolicyRule, attrs *RouteAttributes) {
		attrs.Active = false
	})

	// An inactive best route yields no usable path even though the
	// lookup still reports it.
	g.Expect(table.Lookup(packetTo(g, "10.1.2.3"))).To(HaveLen(1))
	g.Expect(table.GetEqualCostPaths(packetTo(g, "10.1.2.3"))).To(BeEmpty())

	_, ok := table.SelectEcmpPathUsingFlowHash(packetTo(g, "10.1.2.3"))
	g.Expect(ok).To(BeFalse())
}

func TestGetEqualCostPathsTruncatedByInactive(t *testing.T) {
	g := NewWithT(t)
	table := NewPolicyRoutingTable()

	addRoute(g, table, "10.0.0.0", 8, "192.168.0.1", nil)
	addRoute(g, table, "10.0.0.0", 8, "192.168.0.2", func(_ *PolicyRule, attrs *RouteAttributes) {
		attrs.Active = false
	})
	addRoute(g, table, "10.0.0.0", 8, "192.168.0.3", nil)

	// The sort is stable, so the inactive entry sits in the middle of
	// the equal-cost run and cuts it short.
	paths := table.GetEqualCostPaths(packetTo(g, "10.1.2.3"))
	g.Expect(paths).To(HaveLen(1))
	g.Expect(paths[0].NextHop).To(Equal(mustAddr(g, "192.168.0.1")))
}

func TestSelectEcmpPathSingleRoute(t *testing.T) {
	g := NewWithT(t)
	table := NewPolicyRoutingTable()

	addRoute(g, table, "10.0.0.0", 8, "192.168.0.1", nil)

	attrs, ok := table.SelectEcmpPathUsingFlowHash(packetTo(g, "10.1.2.3"))
	g.Expect(ok).To(BeTrue())
	g.Expect(attrs.NextHop).To(Equal(mustAddr(g, "192.168.0.1")))
}

func TestSelectEcmpPathFlowStickiness(t *testing.T) {
	g := NewWithT(t)
	table := NewPolicyRoutingTable()

	for _, nextHop := range []string{"192.168.0.1", "192.168.0.2", "192.168.0.3", "192.168.0.4"} {
		addRoute(g, table, "10.0.0.0", 8, nextHop, nil)
	}

	pkt := PacketInfo{
		SrcIP:    mustAddr(g, "172.16.0.9"),
		DstIP:    mustAddr(g, "10.1.2.3"),
		SrcPort:  40000,
		DstPort:  443,
		Protocol: 6,
	}

	first, ok := table.SelectEcmpPathUsingFlowHash(pkt)
	g.Expect(ok).To(BeTrue())
	for i := 0; i < 100; i++ {
		again, ok := table.SelectEcmpPathUsingFlowHash(pkt)
		g.Expect(ok).To(BeTrue())
		g.Expect(again.NextHop).To(Equal(first.NextHop))
	}
}

func TestSelectEcmpPathFlowDistribution(t *testing.T) {
	g := NewWithT(t)
	table := NewPolicyRoutingTable()

	candidates := map[uint32]bool{}
	for _, nextHop := range []string{"192.168.0.1", "192.168.0.2", "192.168.0.3", "192.168.0.4"} {
		addRoute(g, table, "10.0.0.0", 8, nextHop, nil)
		candidates[mustAddr(g, nextHop)] = true
	}

	// Distinct flows must spread over the candidate set and never
	// leave it.
	selected := map[uint32]bool{}
	for srcPort := uint16(1024); srcPort < 1024+256; srcPort++ {
		pkt := PacketInfo{
			SrcIP:    mustAddr(g, "172.16.0.9"),
			DstIP:    mustAddr(g, "10.1.2.3"),
			SrcPort:  srcPort,
			DstPort:  443,
			Protocol: 6,
		}
		attrs, ok := table.SelectEcmpPathUsingFlowHash(pkt)
		g.Expect(ok).To(BeTrue())
		g.Expect(candidates).To(HaveKey(attrs.NextHop))
		selected[attrs.NextHop] = true
	}
	g.Expect(len(selected)).To(BeNumerically(">", 1))
}
