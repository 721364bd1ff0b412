// Package experience implements the collective experience network: a
// similarity-indexed cache of prompt/response pairs with effectiveness
// scoring, a weighted undirected connection graph, and per-user need
// prediction. The cache is advisory; lookups that find nothing return nil
// rather than failing.
package experience

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// matchThreshold is the minimum similarity for two prompts to be
	// considered the same experience.
	matchThreshold = 0.7
	// connectThreshold is the looser criterion for linking related nodes.
	connectThreshold = matchThreshold / 2
	// historyWindow is the number of recent interactions used for need prediction.
	historyWindow = 5
	// topNeeds is the number of predicted needs kept per user.
	topNeeds = 3
	// nodesPerNeed is the number of suggested nodes kept per predicted need.
	nodesPerNeed = 3
	// feedbackScale converts a [-1,1] feedback score into an effectiveness delta.
	feedbackScale = 5
)

// Metadata describes the origin of an experience node.
type Metadata struct {
	// Timestamp is when the node was created or last replaced.
	Timestamp time.Time `json:"timestamp"`
	// Provider is the AI provider that produced the response.
	Provider string `json:"provider"`
	// Model is the model that produced the response.
	Model string `json:"model"`
	// Context is optional free-form context for the exchange.
	Context string `json:"context,omitempty"`
	// Tags classify the node for need prediction.
	Tags []string `json:"tags"`
}

// Connection is a weighted undirected edge to another node.
type Connection struct {
	// NodeID is the peer node.
	NodeID string `json:"node_id"`
	// Strength is the edge weight in [0,1].
	Strength float64 `json:"strength"`
}

// Node is a cached prompt/response pair with an effectiveness score.
type Node struct {
	// ID is the unique identifier for this node.
	ID string `json:"id"`
	// Prompt is the prompt text.
	Prompt string `json:"prompt"`
	// Response is the best known response for the prompt.
	Response string `json:"response"`
	// Effectiveness is a score clamped to [0,100].
	Effectiveness int `json:"effectiveness"`
	// Metadata describes the node's origin.
	Metadata Metadata `json:"metadata"`
	// Connections lists weighted edges to similar nodes. Symmetric: if A
	// references B with strength s, B references A with strength s.
	Connections []Connection `json:"connections"`
}

// Interaction is one recorded use of a node by a user.
type Interaction struct {
	// Timestamp is when the interaction happened.
	Timestamp time.Time `json:"timestamp"`
	// NodeID is the node the user interacted with.
	NodeID string `json:"node_id"`
	// Feedback is an optional score in [-1,1].
	Feedback *float64 `json:"feedback,omitempty"`
}

// Need is a predicted user need derived from recent interactions.
type Need struct {
	// Tag is the tag the need is about.
	Tag string `json:"tag"`
	// Confidence is the fraction of the recent window carrying the tag.
	Confidence float64 `json:"confidence"`
	// SuggestedNodeIDs lists the best nodes carrying the tag.
	SuggestedNodeIDs []string `json:"suggested_node_ids"`
}

// Profile is a user's interaction history and derived predictions.
// Profiles are created lazily on first reference and live for the process
// lifetime.
type Profile struct {
	// ID is the user identifier.
	ID string `json:"id"`
	// Preferences is a free-form preference map.
	Preferences map[string]string `json:"preferences"`
	// History is the ordered interaction history, oldest first.
	History []Interaction `json:"history"`
	// PredictedNeeds is recomputed after each recorded interaction.
	PredictedNeeds []Need `json:"predicted_needs"`
}

// Suggestion is a prompt suggestion derived from a user's predicted needs.
type Suggestion struct {
	// Prompt is the suggested prompt text.
	Prompt string `json:"prompt"`
	// Confidence combines the need confidence and node effectiveness.
	Confidence float64 `json:"confidence"`
	// Description is a human-readable justification.
	Description string `json:"description"`
}

// Network deduplicates and ranks prompt/response experiences and maintains
// user profiles. Mutations are serialized under a single mutex; lookups
// return copies.
type Network struct {
	mu sync.RWMutex
	// nodes maps node ID to the node itself.
	nodes map[string]*Node
	// order records node insertion order. Nearest-match scans walk this
	// slice so the tie-break (first inserted wins, strict inequality only)
	// never depends on map iteration order.
	order []string
	// profiles maps user ID to the user's profile.
	profiles map[string]*Profile
}

// NewNetwork creates an empty experience network.
func NewNetwork() *Network {
	return &Network{
		nodes:    make(map[string]*Node),
		profiles: make(map[string]*Profile),
	}
}

// FindSimilarNode returns a copy of the node most similar to prompt, or nil
// if no node meets the match threshold. Ties are broken by insertion order:
// only a strictly greater similarity replaces the current best.
func (n *Network) FindSimilarNode(prompt string) *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()

	node := n.findSimilarLocked(prompt)
	if node == nil {
		return nil
	}
	return copyNode(node)
}

func (n *Network) findSimilarLocked(prompt string) *Node {
	var best *Node
	highest := 0.0
	for _, id := range n.order {
		node := n.nodes[id]
		score := similarity(prompt, node.Prompt)
		if score > highest && score >= matchThreshold {
			highest = score
			best = node
		}
	}
	return best
}

// AddExperience records a prompt/response pair. A sufficiently similar
// existing node absorbs the call: its response, effectiveness and timestamp
// are overwritten in place when the new effectiveness is strictly greater
// (replace-if-better), and it is left untouched otherwise — in neither case
// is a new node created. Only when no similar node exists is a new node
// created and connected to every existing node whose prompt similarity
// meets the connection threshold, with the similarity as edge strength.
// Returns a copy of the affected node.
func (n *Network) AddExperience(prompt, response string, effectiveness int, meta Metadata) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	effectiveness = clampEffectiveness(effectiveness)

	if existing := n.findSimilarLocked(prompt); existing != nil {
		if effectiveness > existing.Effectiveness {
			existing.Response = response
			existing.Effectiveness = effectiveness
			existing.Metadata.Timestamp = time.Now()
		}
		return copyNode(existing)
	}

	node := &Node{
		ID:            uuid.New().String(),
		Prompt:        prompt,
		Response:      response,
		Effectiveness: effectiveness,
		Metadata:      meta,
	}
	if node.Metadata.Timestamp.IsZero() {
		node.Metadata.Timestamp = time.Now()
	}
	n.nodes[node.ID] = node
	n.order = append(n.order, node.ID)

	for _, id := range n.order {
		if id == node.ID {
			continue
		}
		peer := n.nodes[id]
		if score := similarity(prompt, peer.Prompt); score >= connectThreshold {
			n.connectLocked(node, peer, score)
		}
	}
	return copyNode(node)
}

// connectLocked adds a symmetric edge between two distinct nodes.
func (n *Network) connectLocked(a, b *Node, strength float64) {
	if a.ID == b.ID {
		return
	}
	a.Connections = append(a.Connections, Connection{NodeID: b.ID, Strength: strength})
	b.Connections = append(b.Connections, Connection{NodeID: a.ID, Strength: strength})
}

// RecordInteraction appends an interaction to the user's history. When
// feedback in [-1,1] is given, the referenced node's effectiveness moves by
// feedback*5 (rounded), clamped to [0,100]. Predicted needs for the user are
// recomputed from the most recent interactions.
func (n *Network) RecordInteraction(userID, nodeID string, feedback *float64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	profile := n.profileLocked(userID)
	profile.History = append(profile.History, Interaction{
		Timestamp: time.Now(),
		NodeID:    nodeID,
		Feedback:  feedback,
	})

	if feedback != nil {
		if node, ok := n.nodes[nodeID]; ok {
			delta := int(math.Round(*feedback * feedbackScale))
			node.Effectiveness = clampEffectiveness(node.Effectiveness + delta)
		}
	}

	n.updatePredictedNeedsLocked(profile)
}

// updatePredictedNeedsLocked recomputes a user's predicted needs from the
// most recent interactions: tag frequency over the referenced nodes, top
// tags by count (equal counts order lexicographically), and for each tag the
// most effective nodes carrying it.
func (n *Network) updatePredictedNeedsLocked(profile *Profile) {
	start := len(profile.History) - historyWindow
	if start < 0 {
		start = 0
	}

	var recent []*Node
	for _, it := range profile.History[start:] {
		if node, ok := n.nodes[it.NodeID]; ok {
			recent = append(recent, node)
		}
	}
	if len(recent) == 0 {
		profile.PredictedNeeds = nil
		return
	}

	counts := make(map[string]int)
	for _, node := range recent {
		for _, tag := range node.Metadata.Tags {
			counts[tag]++
		}
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > topNeeds {
		tags = tags[:topNeeds]
	}

	needs := make([]Need, 0, len(tags))
	for _, tag := range tags {
		ids := n.topNodesForTagLocked(tag)
		needs = append(needs, Need{
			Tag:              tag,
			Confidence:       float64(counts[tag]) / float64(len(recent)),
			SuggestedNodeIDs: ids,
		})
	}
	profile.PredictedNeeds = needs
}

// topNodesForTagLocked returns the IDs of the most effective nodes carrying
// the tag, equal scores ordered by insertion.
func (n *Network) topNodesForTagLocked(tag string) []string {
	var tagged []*Node
	for _, id := range n.order {
		node := n.nodes[id]
		for _, t := range node.Metadata.Tags {
			if t == tag {
				tagged = append(tagged, node)
				break
			}
		}
	}
	sort.SliceStable(tagged, func(i, j int) bool {
		return tagged[i].Effectiveness > tagged[j].Effectiveness
	})
	if len(tagged) > nodesPerNeed {
		tagged = tagged[:nodesPerNeed]
	}
	ids := make([]string, len(tagged))
	for i, node := range tagged {
		ids[i] = node.ID
	}
	return ids
}

// EnhancePrompt appends the context and tags of the most similar node to the
// prompt as a reference block. Returns the prompt unchanged when nothing
// qualifies. When userID is non-empty, the match is recorded as an
// interaction without feedback.
func (n *Network) EnhancePrompt(prompt, userID string) string {
	match := n.FindSimilarNode(prompt)
	if match == nil {
		return prompt
	}

	if userID != "" {
		n.RecordInteraction(userID, match.ID, nil)
	}

	context := match.Metadata.Context
	if context == "" {
		context = "not specified"
	}
	return fmt.Sprintf("%s\n\nFor reference, related past experience:\n- Context: %s\n- Key aspects: %s",
		prompt, context, strings.Join(match.Metadata.Tags, ", "))
}

// SuggestPrompts flattens the user's predicted needs into prompt
// suggestions, dropping any whose referenced node no longer exists.
func (n *Network) SuggestPrompts(userID string) []Suggestion {
	n.mu.RLock()
	defer n.mu.RUnlock()

	profile, ok := n.profiles[userID]
	if !ok {
		return nil
	}

	var out []Suggestion
	for _, need := range profile.PredictedNeeds {
		for _, id := range need.SuggestedNodeIDs {
			node, ok := n.nodes[id]
			if !ok {
				continue
			}
			out = append(out, Suggestion{
				Prompt:      node.Prompt,
				Confidence:  need.Confidence * float64(node.Effectiveness) / 100,
				Description: fmt.Sprintf("based on your recent interest in %q", need.Tag),
			})
		}
	}
	return out
}

// Profile returns a copy of the user's profile, creating it if needed.
func (n *Network) Profile(userID string) *Profile {
	n.mu.Lock()
	defer n.mu.Unlock()
	return copyProfile(n.profileLocked(userID))
}

// profileLocked returns the live profile for a user, creating it lazily.
func (n *Network) profileLocked(userID string) *Profile {
	profile, ok := n.profiles[userID]
	if !ok {
		profile = &Profile{ID: userID, Preferences: make(map[string]string)}
		n.profiles[userID] = profile
	}
	return profile
}

// Node returns a copy of the node with the given ID.
func (n *Network) Node(id string) (*Node, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	node, ok := n.nodes[id]
	if !ok {
		return nil, false
	}
	return copyNode(node), true
}

// clampEffectiveness bounds a score to [0,100].
func clampEffectiveness(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// copyNode returns a deep-enough copy for safe concurrent reads.
func copyNode(node *Node) *Node {
	dup := *node
	dup.Metadata.Tags = append([]string(nil), node.Metadata.Tags...)
	dup.Connections = append([]Connection(nil), node.Connections...)
	return &dup
}

// copyProfile returns a deep-enough copy for safe concurrent reads.
func copyProfile(profile *Profile) *Profile {
	dup := *profile
	dup.Preferences = make(map[string]string, len(profile.Preferences))
	for k, v := range profile.Preferences {
		dup.Preferences[k] = v
	}
	dup.History = append([]Interaction(nil), profile.History...)
	dup.PredictedNeeds = make([]Need, len(profile.PredictedNeeds))
	for i, need := range profile.PredictedNeeds {
		dup.PredictedNeeds[i] = need
		dup.PredictedNeeds[i].SuggestedNodeIDs = append([]string(nil), need.SuggestedNodeIDs...)
	}
	return &dup
}
