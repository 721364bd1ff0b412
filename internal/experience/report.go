package experience

import "sort"

const reportTop = 10

// NodeSummary is one entry in a network report's top-node list.
type NodeSummary struct {
	// ID is the node identifier.
	ID string `json:"id"`
	// Effectiveness is the node's current score.
	Effectiveness int `json:"effectiveness"`
	// Tags are the node's tags.
	Tags []string `json:"tags"`
	// ConnectionCount is the number of edges the node carries.
	ConnectionCount int `json:"connection_count"`
}

// TagCount is one entry in a network report's top-tag list.
type TagCount struct {
	// Tag is the tag name.
	Tag string `json:"tag"`
	// Count is how many nodes carry the tag.
	Count int `json:"count"`
}

// Report summarizes the state of the network.
type Report struct {
	// NodeCount is the total number of experience nodes.
	NodeCount int `json:"node_count"`
	// UserCount is the total number of user profiles.
	UserCount int `json:"user_count"`
	// TopNodes lists the most effective nodes.
	TopNodes []NodeSummary `json:"top_nodes"`
	// TopTags lists the most frequent tags.
	TopTags []TagCount `json:"top_tags"`
}

// Report builds a summary of the network's current state: the ten most
// effective nodes and the ten most frequent tags.
func (n *Network) Report() *Report {
	n.mu.RLock()
	defer n.mu.RUnlock()

	counts := make(map[string]int)
	for _, node := range n.nodes {
		for _, tag := range node.Metadata.Tags {
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > reportTop {
		tags = tags[:reportTop]
	}

	nodes := make([]*Node, 0, len(n.order))
	for _, id := range n.order {
		nodes = append(nodes, n.nodes[id])
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Effectiveness > nodes[j].Effectiveness
	})
	if len(nodes) > reportTop {
		nodes = nodes[:reportTop]
	}

	top := make([]NodeSummary, len(nodes))
	for i, node := range nodes {
		top[i] = NodeSummary{
			ID:              node.ID,
			Effectiveness:   node.Effectiveness,
			Tags:            append([]string(nil), node.Metadata.Tags...),
			ConnectionCount: len(node.Connections),
		}
	}

	return &Report{
		NodeCount: len(n.nodes),
		UserCount: len(n.profiles),
		TopNodes:  top,
		TopTags:   tags,
	}
}

// Snapshot is a full export of the network for persistence handoff.
type Snapshot struct {
	// Nodes lists every node in insertion order.
	Nodes []*Node `json:"nodes"`
	// Profiles lists every user profile.
	Profiles []*Profile `json:"profiles"`
}

// Export returns a copy of the full node and profile collections.
func (n *Network) Export() *Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()

	snap := &Snapshot{}
	for _, id := range n.order {
		snap.Nodes = append(snap.Nodes, copyNode(n.nodes[id]))
	}

	userIDs := make([]string, 0, len(n.profiles))
	for id := range n.profiles {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)
	for _, id := range userIDs {
		snap.Profiles = append(snap.Profiles, copyProfile(n.profiles[id]))
	}
	return snap
}

// Import merges a snapshot into the network. Nodes and profiles with known
// IDs are overwritten; new ones are appended in snapshot order.
func (n *Network) Import(snap *Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, node := range snap.Nodes {
		if _, known := n.nodes[node.ID]; !known {
			n.order = append(n.order, node.ID)
		}
		n.nodes[node.ID] = copyNode(node)
	}
	for _, profile := range snap.Profiles {
		n.profiles[profile.ID] = copyProfile(profile)
	}
}
