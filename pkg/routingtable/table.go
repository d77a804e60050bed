// Package routingtable implements a policy-based IPv4 forwarding
// table: longest-prefix match over a binary radix trie, policy
// filtering of the matched routes, deterministic tie-breaking and
// equal-cost multi-path selection by flow hash.
package routingtable

import (
	"fmt"
	"sort"

	"github.com/telekom/das-schiff-policy-router/pkg/ipaddr"
)

// PolicyRoutingTable owns the radix trie of one routing domain.
//
// The table carries no internal locking. The expected lifecycle is a
// build phase with a single writer calling AddRoute, followed by a
// query phase with any number of concurrent readers. Interleaving
// writes with reads must be serialized externally.
type PolicyRoutingTable struct {
	root       *node
	numEntries int
}

// NewPolicyRoutingTable returns an empty table.
func NewPolicyRoutingTable() *PolicyRoutingTable {
	return &PolicyRoutingTable{root: &node{}}
}

// AddRoute inserts a route for the dotted-decimal prefix with the
// given policy rule and attributes. It fails only on a malformed
// prefix string or length.
func (t *PolicyRoutingTable) AddRoute(prefix string, prefixLen uint8, rule PolicyRule, attrs RouteAttributes) error {
	addr, err := ipaddr.ParseAddress(prefix)
	if err != nil {
		return fmt.Errorf("cannot add route for prefix %s/%d: %w", prefix, prefixLen, err)
	}
	if prefixLen > 32 {
		return fmt.Errorf("cannot add route for prefix %s/%d: %w", prefix, prefixLen, ipaddr.ErrInvalidPrefixLength)
	}
	t.AddRouteAddr(addr, prefixLen, rule, attrs)
	return nil
}

// AddRouteAddr is AddRoute for an already-parsed prefix address.
//
// Insertion is append-only: re-adding the same prefix adds another
// route entry next to the existing ones, it never replaces them.
// There is no removal operation; a caller needing replacement has to
// rebuild the table.
func (t *PolicyRoutingTable) AddRouteAddr(prefix uint32, prefixLen uint8, rule PolicyRule, attrs RouteAttributes) {
	prefix &= ipaddr.MaskFromLength(prefixLen)

	// Give the rule a destination prefix when the caller left it
	// unset, so that rule-level display and matching default to the
	// route's own prefix.
	if rule.DstPrefix == 0 && rule.DstPrefixLen == 0 {
		rule.DstPrefix = prefix
		rule.DstPrefixLen = prefixLen
	}

	n := t.root
	for depth := uint8(0); depth < prefixLen; depth++ {
		n = n.child(prefix>>(31-depth)&1, true)
	}
	n.valid = true
	n.prefix = prefix
	n.prefixLen = prefixLen
	n.routes = append(n.routes, RouteEntry{Rule: rule, Attrs: attrs})
	t.numEntries++
}

// AddTrafficEngineering installs a primary/backup route pair for the
// prefix: the primary with higher local preference and the full rate
// budget, the backup with the defaults and half the rate budget.
func (t *PolicyRoutingTable) AddTrafficEngineering(prefix string, prefixLen uint8, primaryNextHop, backupNextHop, bandwidthBps uint32) error {
	rule := DefaultRule()
	rule.Priority = 50

	primary := DefaultAttributes()
	primary.NextHop = primaryNextHop
	primary.LocalPref = 200
	primary.RateLimitBps = bandwidthBps

	if err := t.AddRoute(prefix, prefixLen, rule, primary); err != nil {
		return err
	}

	backup := DefaultAttributes()
	backup.NextHop = backupNextHop
	backup.RateLimitBps = bandwidthBps / 2

	rule.Priority = 100
	return t.AddRoute(prefix, prefixLen, rule, backup)
}

// Lookup returns the route entries of the longest matching prefix for
// the packet's destination whose policy rules accept the packet,
// ordered best-first: rule priority, then administrative distance,
// then local preference (higher wins), then MED. An empty result
// means no route.
func (t *PolicyRoutingTable) Lookup(pkt PacketInfo) []RouteEntry {
	best := t.bestMatch(pkt.DstIP)
	if best == nil {
		return nil
	}

	var matched []RouteEntry
	for _, entry := range best.routes {
		if entry.Rule.Matches(pkt) {
			matched = append(matched, entry)
		}
	}
	sortEntries(matched)
	return matched
}

// FindBestRoute returns the attributes of the best route for the
// packet, or false when no route matches.
func (t *PolicyRoutingTable) FindBestRoute(pkt PacketInfo) (RouteAttributes, bool) {
	entries := t.Lookup(pkt)
	if len(entries) == 0 {
		return RouteAttributes{}, false
	}
	return entries[0].Attrs, true
}

// Len returns the number of route entries in the table.
func (t *PolicyRoutingTable) Len() int {
	return t.numEntries
}

// bestMatch walks the trie along the destination's bits, most
// significant first, and returns the valid node with the longest
// prefix containing the destination. The root is checked up front
// because the descent never revisits it; it holds the default route.
func (t *PolicyRoutingTable) bestMatch(dst uint32) *node {
	var best *node
	if t.root.valid && t.root.prefixLen == 0 {
		best = t.root
	}

	n := t.root
	for depth := uint8(0); depth < 32; depth++ {
		n = n.child(dst>>(31-depth)&1, false)
		if n == nil {
			break
		}
		if !n.valid {
			continue
		}
		// Recheck containment against the node's own prefix instead
		// of trusting the walk, so a corrupted node cannot produce a
		// false match.
		mask := ipaddr.MaskFromLength(n.prefixLen)
		if dst&mask != n.prefix&mask {
			continue
		}
		if best == nil || n.prefixLen > best.prefixLen {
			best = n
		}
	}
	return best
}

func sortEntries(entries []RouteEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Rule.Priority != b.Rule.Priority {
			return a.Rule.Priority < b.Rule.Priority
		}
		if a.Attrs.AdminDistance != b.Attrs.AdminDistance {
			return a.Attrs.AdminDistance < b.Attrs.AdminDistance
		}
		if a.Attrs.LocalPref != b.Attrs.LocalPref {
			return a.Attrs.LocalPref > b.Attrs.LocalPref
		}
		return a.Attrs.MED < b.Attrs.MED
	})
}
