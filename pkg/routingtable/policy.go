package routingtable

import (
	"github.com/telekom/das-schiff-policy-router/pkg/ipaddr"
)

// Matches reports whether the rule accepts the packet. Every
// configured (non-zero) field must match; wildcard fields always pass.
// The destination prefix is an independent predicate on top of the
// longest-prefix match that selected the entry's node.
func (r PolicyRule) Matches(pkt PacketInfo) bool {
	if r.SrcPrefixLen > 0 {
		mask := ipaddr.MaskFromLength(r.SrcPrefixLen)
		if pkt.SrcIP&mask != r.SrcPrefix&mask {
			return false
		}
	}
	if r.DstPrefixLen > 0 {
		mask := ipaddr.MaskFromLength(r.DstPrefixLen)
		if pkt.DstIP&mask != r.DstPrefix&mask {
			return false
		}
	}
	if r.SrcPort != 0 && pkt.SrcPort != r.SrcPort {
		return false
	}
	if r.DstPort != 0 && pkt.DstPort != r.DstPort {
		return false
	}
	if r.Protocol != 0 && pkt.Protocol != r.Protocol {
		return false
	}
	if r.ToS != 0 && pkt.ToS != r.ToS {
		return false
	}
	if r.FlowLabel != 0 && pkt.FlowLabel != r.FlowLabel {
		return false
	}
	return true
}
