package routingtable

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/telekom/das-schiff-policy-router/pkg/ipaddr"
	"github.com/telekom/das-schiff-policy-router/pkg/route"
)

// RouteInfo is one flattened row of the routing table, used by
// diagnostics and metrics. It is a plain value; mutating it does not
// affect the table.
type RouteInfo struct {
	Prefix        string `json:"prefix"`
	NextHop       string `json:"nextHop"`
	Priority      uint32 `json:"priority"`
	AdminDistance uint8  `json:"adminDistance"`
	LocalPref     uint32 `json:"localPref"`
	MED           uint32 `json:"med"`
	Protocol      string `json:"protocol"`
	DSCP          uint8  `json:"dscp"`
	Active        bool   `json:"active"`
}

// Routes returns all route entries as display rows, in prefix order.
func (t *PolicyRoutingTable) Routes() []RouteInfo {
	var rows []RouteInfo
	t.root.walk(func(n *node) {
		prefix := fmt.Sprintf("%s/%d", ipaddr.FormatAddress(n.prefix), n.prefixLen)
		for _, entry := range n.routes {
			rows = append(rows, RouteInfo{
				Prefix:        prefix,
				NextHop:       ipaddr.FormatAddress(entry.Attrs.NextHop),
				Priority:      entry.Rule.Priority,
				AdminDistance: entry.Attrs.AdminDistance,
				LocalPref:     entry.Attrs.LocalPref,
				MED:           entry.Attrs.MED,
				Protocol:      route.GetProtocolName(entry.Attrs.Protocol),
				DSCP:          entry.Attrs.DSCP,
				Active:        entry.Attrs.Active,
			})
		}
	})
	return rows
}

// ProtocolCounts returns the number of route entries per owning
// protocol identifier.
func (t *PolicyRoutingTable) ProtocolCounts() map[uint8]int {
	counts := map[uint8]int{}
	t.root.walk(func(n *node) {
		for _, entry := range n.routes {
			counts[entry.Attrs.Protocol]++
		}
	})
	return counts
}

// WriteTable renders the routing table as text.
func (t *PolicyRoutingTable) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Prefix", "Next Hop", "Priority", "Admin", "LocalPref", "MED", "Protocol"})
	for _, row := range t.Routes() {
		table.Append([]string{
			row.Prefix,
			row.NextHop,
			fmt.Sprint(row.Priority),
			fmt.Sprint(row.AdminDistance),
			fmt.Sprint(row.LocalPref),
			fmt.Sprint(row.MED),
			row.Protocol,
		})
	}
	table.Render()
}
