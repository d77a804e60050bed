package routingtable

// node is a binary radix trie node. Each node exclusively owns its
// children; bit 0 descends left, bit 1 right. A node at depth k is
// valid only if a route with a prefix of exactly length k was
// inserted through it. prefix and prefixLen are redundant with the
// node's position but cached for the masked compare during lookup.
type node struct {
	left      *node
	right     *node
	routes    []RouteEntry
	prefix    uint32
	prefixLen uint8
	valid     bool
}

// child returns the child for the given bit, creating it when asked.
func (n *node) child(bit uint32, create bool) *node {
	if bit == 0 {
		if n.left == nil && create {
			n.left = &node{}
		}
		return n.left
	}
	if n.right == nil && create {
		n.right = &node{}
	}
	return n.right
}

// walk visits all valid nodes in prefix order (left before right).
func (n *node) walk(visit func(*node)) {
	if n == nil {
		return
	}
	if n.valid {
		visit(n)
	}
	n.left.walk(visit)
	n.right.walk(visit)
}
