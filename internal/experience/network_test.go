package experience

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestFindSimilarNodeThreshold(t *testing.T) {
	n := NewNetwork()
	n.AddExperience("sort a list of numbers in go", "use sort.Ints", 80, Metadata{Tags: []string{"go"}})

	if got := n.FindSimilarNode("sort a list of numbers in go"); got == nil {
		t.Fatal("expected exact prompt to match")
	}
	if got := n.FindSimilarNode("bake a chocolate cake"); got != nil {
		t.Fatalf("expected no match for unrelated prompt, got %q", got.Prompt)
	}
}

func TestFindSimilarNodeTieBreakFirstInserted(t *testing.T) {
	n := NewNetwork()
	// Two nodes equally similar (0.7) to the query but dissimilar (0.6) to
	// each other; the first inserted must win because only a strictly
	// greater similarity replaces the best match.
	first := n.AddExperience("apple banana cherry date elder fig grape honey iris juniper", "one", 10, Metadata{})
	second := n.AddExperience("apple banana cherry date elder fig kiwi lemon mango nectar", "two", 10, Metadata{})
	if first.ID == second.ID {
		t.Fatal("setup: expected two distinct nodes")
	}

	got := n.FindSimilarNode("apple banana cherry date elder fig grape kiwi")
	if got == nil || got.ID != first.ID {
		t.Fatalf("expected first inserted node to win, got %+v", got)
	}
}

func TestAddExperienceReplaceIfBetter(t *testing.T) {
	n := NewNetwork()
	orig := n.AddExperience("summarize the quarterly report for management", "v1", 50, Metadata{})

	// Higher effectiveness overwrites the existing node in place.
	updated := n.AddExperience("summarize the quarterly report for management today", "v2", 70, Metadata{})
	if updated.ID != orig.ID {
		t.Fatalf("expected in-place update of %s, got new node %s", orig.ID, updated.ID)
	}
	if updated.Response != "v2" || updated.Effectiveness != 70 {
		t.Errorf("expected response/effectiveness replaced, got %q/%d", updated.Response, updated.Effectiveness)
	}

	// Lower effectiveness must leave the node unchanged and create nothing.
	unchanged := n.AddExperience("summarize the quarterly report for management now", "v3", 30, Metadata{})
	if unchanged.ID != orig.ID {
		t.Fatalf("expected match against existing node, got new node %s", unchanged.ID)
	}
	if unchanged.Response != "v2" || unchanged.Effectiveness != 70 {
		t.Errorf("expected node unchanged, got %q/%d", unchanged.Response, unchanged.Effectiveness)
	}
	if len(n.Export().Nodes) != 1 {
		t.Errorf("expected a single node, got %d", len(n.Export().Nodes))
	}
}

func TestConnectionsAreSymmetric(t *testing.T) {
	n := NewNetwork()
	a := n.AddExperience("deploy the web service to production", "a", 60, Metadata{})
	// Related but below the 0.7 match threshold, above the 0.35 connection threshold.
	b := n.AddExperience("deploy the web service with rolling restarts and canaries", "b", 60, Metadata{})
	if a.ID == b.ID {
		t.Fatal("expected two distinct nodes")
	}

	got, _ := n.Node(a.ID)
	peer, _ := n.Node(b.ID)
	if len(got.Connections) != 1 || len(peer.Connections) != 1 {
		t.Fatalf("expected one connection each, got %d and %d", len(got.Connections), len(peer.Connections))
	}
	if got.Connections[0].NodeID != b.ID || peer.Connections[0].NodeID != a.ID {
		t.Error("expected connections to reference each other")
	}
	if got.Connections[0].Strength != peer.Connections[0].Strength {
		t.Errorf("expected equal strengths, got %f and %f",
			got.Connections[0].Strength, peer.Connections[0].Strength)
	}
	if got.Connections[0].Strength < connectThreshold || got.Connections[0].Strength >= matchThreshold {
		t.Errorf("expected strength in [%f,%f), got %f", connectThreshold, matchThreshold, got.Connections[0].Strength)
	}
}

func TestNoSelfLoops(t *testing.T) {
	n := NewNetwork()
	node := n.AddExperience("a lonely prompt", "r", 50, Metadata{})
	got, _ := n.Node(node.ID)
	for _, conn := range got.Connections {
		if conn.NodeID == node.ID {
			t.Fatal("node must not connect to itself")
		}
	}
}

func TestFeedbackAdjustsAndClampsEffectiveness(t *testing.T) {
	n := NewNetwork()
	node := n.AddExperience("rate limiting strategies for apis", "r", 98, Metadata{})

	// +1 feedback adds 5, clamped at 100.
	n.RecordInteraction("u1", node.ID, floatPtr(1))
	if got, _ := n.Node(node.ID); got.Effectiveness != 100 {
		t.Errorf("expected clamp at 100, got %d", got.Effectiveness)
	}

	// Repeated -1 feedback never drives the score below 0.
	for i := 0; i < 25; i++ {
		n.RecordInteraction("u1", node.ID, floatPtr(-1))
	}
	if got, _ := n.Node(node.ID); got.Effectiveness != 0 {
		t.Errorf("expected clamp at 0, got %d", got.Effectiveness)
	}
}

func TestNeedPredictionFromRecentWindow(t *testing.T) {
	n := NewNetwork()
	tagged := func(prompt, tag string) *Node {
		return n.AddExperience(prompt, "r", 50, Metadata{Tags: []string{tag}})
	}
	react1 := tagged("explain react hooks and state management basics", "react")
	react2 := tagged("optimize react component rendering with memoization tricks", "react")
	perf := tagged("profile slow database queries under heavy load", "performance")
	react3 := tagged("structure a large react application into feature folders", "react")
	api := tagged("design a versioned rest api for mobile clients", "api")

	for _, node := range []*Node{react1, react2, perf, react3, api} {
		n.RecordInteraction("u1", node.ID, nil)
	}

	profile := n.Profile("u1")
	if len(profile.PredictedNeeds) != 3 {
		t.Fatalf("expected 3 predicted needs, got %d", len(profile.PredictedNeeds))
	}
	top := profile.PredictedNeeds[0]
	if top.Tag != "react" {
		t.Errorf("expected top need react, got %q", top.Tag)
	}
	if top.Confidence != 0.6 {
		t.Errorf("expected confidence 0.6, got %f", top.Confidence)
	}
	if len(top.SuggestedNodeIDs) != 3 {
		t.Errorf("expected 3 suggested nodes for react, got %d", len(top.SuggestedNodeIDs))
	}
}

func TestEnhancePromptAppendsReference(t *testing.T) {
	n := NewNetwork()
	n.AddExperience("set up continuous integration for a go project", "r", 80,
		Metadata{Context: "github actions", Tags: []string{"ci", "go"}})

	enhanced := n.EnhancePrompt("set up continuous integration for a go project", "u1")
	if !strings.Contains(enhanced, "github actions") {
		t.Errorf("expected context in enhanced prompt, got %q", enhanced)
	}
	if !strings.Contains(enhanced, "ci, go") {
		t.Errorf("expected tags in enhanced prompt, got %q", enhanced)
	}

	// The match was recorded as an interaction without feedback.
	profile := n.Profile("u1")
	if len(profile.History) != 1 {
		t.Fatalf("expected one recorded interaction, got %d", len(profile.History))
	}
	if profile.History[0].Feedback != nil {
		t.Error("expected no feedback on enhancement interaction")
	}
}

func TestEnhancePromptWithoutMatchReturnsUnchanged(t *testing.T) {
	n := NewNetwork()
	prompt := "an entirely novel request"
	if got := n.EnhancePrompt(prompt, ""); got != prompt {
		t.Errorf("expected prompt unchanged, got %q", got)
	}
}

func TestSuggestPromptsDropsMissingNodes(t *testing.T) {
	n := NewNetwork()
	node := n.AddExperience("tune garbage collection settings for the jvm", "r", 80,
		Metadata{Tags: []string{"jvm"}})
	n.RecordInteraction("u1", node.ID, nil)

	suggestions := n.SuggestPrompts("u1")
	if len(suggestions) != 1 {
		t.Fatalf("expected one suggestion, got %d", len(suggestions))
	}
	// Confidence is need confidence (1.0, single-interaction window) times
	// effectiveness fraction (0.8).
	if suggestions[0].Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %f", suggestions[0].Confidence)
	}

	// A need referencing a vanished node yields no suggestion.
	empty := NewNetwork()
	empty.Import(&Snapshot{Profiles: []*Profile{{
		ID:             "u2",
		PredictedNeeds: []Need{{Tag: "ghost", Confidence: 1, SuggestedNodeIDs: []string{"gone"}}},
	}}})
	if got := empty.SuggestPrompts("u2"); len(got) != 0 {
		t.Errorf("expected no suggestions for missing node, got %d", len(got))
	}
}

func TestReport(t *testing.T) {
	n := NewNetwork()
	n.AddExperience("first wholly distinct prompt about kubernetes", "r", 90, Metadata{Tags: []string{"infra"}})
	n.AddExperience("second completely different text regarding billing", "r", 40, Metadata{Tags: []string{"infra", "billing"}})
	n.RecordInteraction("u1", "missing", nil)

	report := n.Report()
	if report.NodeCount != 2 || report.UserCount != 1 {
		t.Fatalf("expected 2 nodes and 1 user, got %d and %d", report.NodeCount, report.UserCount)
	}
	if report.TopNodes[0].Effectiveness != 90 {
		t.Errorf("expected most effective node first, got %d", report.TopNodes[0].Effectiveness)
	}
	if report.TopTags[0].Tag != "infra" || report.TopTags[0].Count != 2 {
		t.Errorf("expected infra tag first with count 2, got %+v", report.TopTags[0])
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	n := NewNetwork()
	node := n.AddExperience("document the deployment runbook for operators", "r", 70,
		Metadata{Provider: "anthropic", Model: "claude", Tags: []string{"ops"}})
	n.RecordInteraction("u1", node.ID, floatPtr(0.5))

	restored := NewNetwork()
	restored.Import(n.Export())

	got, ok := restored.Node(node.ID)
	if !ok {
		t.Fatal("expected node after import")
	}
	if got.Effectiveness != 73 { // 70 + round(0.5*5)
		t.Errorf("expected effectiveness 73, got %d", got.Effectiveness)
	}
	profile := restored.Profile("u1")
	if len(profile.History) != 1 {
		t.Errorf("expected history preserved, got %d entries", len(profile.History))
	}
}
