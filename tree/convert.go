package tree

import (
	"encoding/json"
	"math"
)

// Tree is a converted decision tree. It is immutable and safe for concurrent reads.
type Tree struct {
	Root         Node
	FeatureNames []string
	Depth        int

	nodes    map[int]Node
	features []string // features split on anywhere in the tree
}

// Convert builds the annotated node structure from a trained tree, starting at node 0.
// Node IDs are the source's array indices. Malformed sources are not checked here;
// Load validates exported files before they reach Convert.
func Convert(src Source, featureNames []string, decoders Decoders) *Tree {
	if decoders == nil {
		decoders = DefaultDecoders()
	}

	t := &Tree{
		FeatureNames: featureNames,
		nodes:        make(map[int]Node, src.NodeCount()),
	}

	used := make(map[string]bool)
	t.Root = t.convert(src, 0, 0, decoders, used)

	for _, name := range featureNames {
		if used[name] {
			t.features = append(t.features, name)
		}
	}

	return t
}

func (t *Tree) convert(src Source, id, depth int, decoders Decoders, used map[string]bool) Node {
	if depth > t.Depth {
		t.Depth = depth
	}

	died, survived := src.ClassCounts(id)
	stats := Stats{
		Samples:  src.Samples(id),
		Died:     int(math.Round(died)),
		Survived: int(math.Round(survived)),
	}

	featureIndex := src.Feature(id)
	if featureIndex == LeafFeature {
		leaf := &Leaf{ID: id, Stats: stats}
		t.nodes[id] = leaf
		return leaf
	}

	feature := t.FeatureNames[featureIndex]
	threshold := src.Threshold(id)
	used[feature] = true

	split := &Split{
		ID:        id,
		Stats:     stats,
		Feature:   feature,
		Threshold: threshold,
	}
	split.LeftLabel, split.RightLabel = branchLabels(feature, threshold, decoders)
	t.nodes[id] = split

	left, right := src.Children(id)
	split.Left = t.convert(src, left, depth+1, decoders, used)
	split.Right = t.convert(src, right, depth+1, decoders, used)

	return split
}

// Node returns the node with the given ID
func (t *Tree) Node(id int) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the tree
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Features returns the features the tree splits on, in FeatureNames order
func (t *Tree) Features() []string {
	out := make([]string, len(t.features))
	copy(out, t.features)
	return out
}

// Document returns the nested renderer document of the whole tree
func (t *Tree) Document() NodeDocument {
	return Document(t.Root)
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Document())
}
