package vrf

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/telekom/das-schiff-policy-router/pkg/ipaddr"
	"github.com/telekom/das-schiff-policy-router/pkg/route"
	"github.com/telekom/das-schiff-policy-router/pkg/routingtable"
)

func mustAddr(g *WithT, s string) uint32 {
	addr, err := ipaddr.ParseAddress(s)
	g.Expect(err).ToNot(HaveOccurred())
	return addr
}

func addRoute(g *WithT, m *Manager, vrfID uint32, prefix string, prefixLen uint8, nextHop string) {
	attrs := routingtable.DefaultAttributes()
	attrs.NextHop = mustAddr(g, nextHop)
	g.Expect(m.AddRoute(vrfID, prefix, prefixLen, routingtable.DefaultRule(), attrs)).To(Succeed())
}

func TestVrfIsolation(t *testing.T) {
	g := NewWithT(t)
	m := NewManager()

	// The same prefix in two VRFs must resolve independently.
	addRoute(g, m, 1, "10.0.0.0", 8, "192.168.1.1")
	addRoute(g, m, 2, "10.0.0.0", 8, "192.168.2.1")

	pkt := routingtable.PacketInfo{DstIP: mustAddr(g, "10.1.2.3")}

	attrs, ok := m.FindBestRoute(1, pkt)
	g.Expect(ok).To(BeTrue())
	g.Expect(attrs.NextHop).To(Equal(mustAddr(g, "192.168.1.1")))

	attrs, ok = m.FindBestRoute(2, pkt)
	g.Expect(ok).To(BeTrue())
	g.Expect(attrs.NextHop).To(Equal(mustAddr(g, "192.168.2.1")))
}

func TestUnknownVrf(t *testing.T) {
	g := NewWithT(t)
	m := NewManager()

	addRoute(g, m, 1, "10.0.0.0", 8, "192.168.1.1")

	pkt := routingtable.PacketInfo{DstIP: mustAddr(g, "10.1.2.3")}

	// Lookups on a VRF without a table yield nothing and must not
	// create one.
	g.Expect(m.Lookup(7, pkt)).To(BeEmpty())
	g.Expect(m.GetEqualCostPaths(7, pkt)).To(BeEmpty())

	_, ok := m.FindBestRoute(7, pkt)
	g.Expect(ok).To(BeFalse())
	_, ok = m.SelectEcmpPathUsingFlowHash(7, pkt)
	g.Expect(ok).To(BeFalse())

	_, err := m.Table(7)
	g.Expect(err).To(MatchError(ErrVrfNotFound))
	g.Expect(m.VrfIDs()).To(Equal([]uint32{1}))
}

func TestLazyTableCreation(t *testing.T) {
	g := NewWithT(t)
	m := NewManager()

	g.Expect(m.VrfIDs()).To(BeEmpty())

	addRoute(g, m, 42, "10.0.0.0", 8, "192.168.1.1")

	table, err := m.Table(42)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(table.Len()).To(Equal(1))
}

func TestVrfIDsSorted(t *testing.T) {
	g := NewWithT(t)
	m := NewManager()

	for _, vrfID := range []uint32{30, 1, 20, 5} {
		addRoute(g, m, vrfID, "10.0.0.0", 8, "192.168.1.1")
	}
	g.Expect(m.VrfIDs()).To(Equal([]uint32{1, 5, 20, 30}))
}

func TestListRouteInformation(t *testing.T) {
	g := NewWithT(t)
	m := NewManager()

	static := routingtable.DefaultAttributes()
	static.NextHop = mustAddr(g, "192.168.1.1")
	static.Protocol = route.ProtocolStatic

	ebgp := routingtable.DefaultAttributes()
	ebgp.NextHop = mustAddr(g, "192.168.1.2")
	ebgp.Protocol = route.ProtocolEBGP

	g.Expect(m.AddRoute(1, "10.0.0.0", 8, routingtable.DefaultRule(), static)).To(Succeed())
	g.Expect(m.AddRoute(1, "10.1.0.0", 16, routingtable.DefaultRule(), static)).To(Succeed())
	g.Expect(m.AddRoute(1, "172.16.0.0", 12, routingtable.DefaultRule(), ebgp)).To(Succeed())
	g.Expect(m.AddRoute(2, "10.0.0.0", 8, routingtable.DefaultRule(), ebgp)).To(Succeed())

	g.Expect(m.ListRouteInformation()).To(Equal([]route.Information{
		{VrfID: 1, Protocol: route.ProtocolStatic, Quantity: 2},
		{VrfID: 1, Protocol: route.ProtocolEBGP, Quantity: 1},
		{VrfID: 2, Protocol: route.ProtocolEBGP, Quantity: 1},
	}))
}
