package routingtable

// Default values applied by DefaultRule and DefaultAttributes.
const (
	DefaultPriority      uint32 = 100
	DefaultLocalPref     uint32 = 100
	DefaultAdminDistance uint8  = 1
)

// PolicyRule is the match predicate attached to a route entry. A zero
// field is the wildcard for that field: it always matches. As a
// consequence a rule cannot explicitly require port 0, protocol 0 or
// ToS 0; callers depend on this convention, do not change it.
type PolicyRule struct {
	SrcPrefix    uint32
	SrcPrefixLen uint8
	DstPrefix    uint32
	DstPrefixLen uint8
	SrcPort      uint16
	DstPort      uint16
	Protocol     uint8
	ToS          uint8
	FlowLabel    uint32
	// Priority orders rules on the same prefix, lower matches first.
	Priority uint32
}

// DefaultRule returns a match-all rule with the default priority.
func DefaultRule() PolicyRule {
	return PolicyRule{Priority: DefaultPriority}
}

// RouteAttributes describe the forwarding action and the tie-break
// metrics of one route.
type RouteAttributes struct {
	NextHop        uint32
	ASPath         []uint32
	MED            uint32
	LocalPref      uint32
	Tag            uint16
	Protocol       uint8
	AdminDistance  uint8
	Active         bool
	DSCP           uint8
	RateLimitBps   uint32
	BurstSizeBytes uint32
}

// DefaultAttributes returns active route attributes with the default
// local preference and administrative distance.
func DefaultAttributes() RouteAttributes {
	return RouteAttributes{
		LocalPref:     DefaultLocalPref,
		AdminDistance: DefaultAdminDistance,
		Active:        true,
	}
}

// PacketInfo is the classification tuple of a packet, used for both
// policy matching and ECMP flow hashing.
type PacketInfo struct {
	SrcIP     uint32
	DstIP     uint32
	SrcPort   uint16
	DstPort   uint16
	Protocol  uint8
	ToS       uint8
	FlowLabel uint32
}

// RouteEntry pairs a policy rule with the attributes of the route it
// selects. A prefix node owns any number of entries.
type RouteEntry struct {
	Rule  PolicyRule
	Attrs RouteAttributes
}
