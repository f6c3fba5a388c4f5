// Package tree converts trained decision trees into an annotated node structure and
// walks passenger profiles through it.
package tree

import (
	"encoding/json"
	"math"
)

// Predicted classes
const (
	Died     = 0
	Survived = 1
)

// Stats are the training samples that reached a node
type Stats struct {
	Samples  int
	Died     int
	Survived int
}

// PredictedClass returns the majority class; a tie goes to Survived
func (s Stats) PredictedClass() int {
	if s.Survived >= s.Died {
		return Survived
	}
	return Died
}

// SurvivalProbability returns the fraction of the node's samples that survived, 0 for an empty node
func (s Stats) SurvivalProbability() float64 {
	total := s.Died + s.Survived
	if total == 0 {
		return 0
	}
	return float64(s.Survived) / float64(total)
}

// Node is either a *Leaf or a *Split
type Node interface {
	NodeID() int
	NodeStats() Stats
	PredictedClass() int
	SurvivalProbability() float64
	// Description is the split rule of a Split or the prediction of a Leaf
	Description() string
	isNode()
}

// Leaf is a terminal node carrying only a prediction
type Leaf struct {
	ID int
	Stats
}

// Split routes profiles with Feature <= Threshold to Left and all others to Right
type Split struct {
	ID int
	Stats

	Feature   string
	Threshold float64
	Left      Node
	Right     Node

	LeftLabel  string
	RightLabel string
}

func (*Leaf) isNode()  {}
func (*Split) isNode() {}

func (l *Leaf) NodeID() int      { return l.ID }
func (l *Leaf) NodeStats() Stats { return l.Stats }

func (l *Leaf) Description() string {
	return "Predict: " + ClassLabel(l.PredictedClass())
}

func (s *Split) NodeID() int      { return s.ID }
func (s *Split) NodeStats() Stats { return s.Stats }

func (s *Split) Description() string {
	return splitRule(s.Feature, s.Threshold)
}

// Children returns the two branches, the <= branch first
func (s *Split) Children() [2]Node {
	return [2]Node{s.Left, s.Right}
}

// ClassLabel returns "Survived" or "Died"
func ClassLabel(class int) string {
	if class == Survived {
		return "Survived"
	}
	return "Died"
}

// NodeDocument is the serialized form of a node consumed by the tree renderer.
// Leaves carry null feature and threshold and no labels or children.
type NodeDocument struct {
	ID             int            `json:"id"`
	Feature        *string        `json:"feature"`
	Threshold      *float64       `json:"threshold"`
	Samples        int            `json:"samples"`
	Class0         int            `json:"class_0"`
	Class1         int            `json:"class_1"`
	PredictedClass int            `json:"predicted_class"`
	Probability    float64        `json:"probability"`
	IsLeaf         bool           `json:"is_leaf"`
	SplitRule      string         `json:"split_rule"`
	LeftLabel      string         `json:"left_label,omitempty"`
	RightLabel     string         `json:"right_label,omitempty"`
	Children       []NodeDocument `json:"children,omitempty"`
} // @name TreeNode

// Document builds the nested document rooted at n
func Document(n Node) NodeDocument {
	stats := n.NodeStats()
	doc := NodeDocument{
		ID:             n.NodeID(),
		Samples:        stats.Samples,
		Class0:         stats.Died,
		Class1:         stats.Survived,
		PredictedClass: n.PredictedClass(),
		Probability:    math.Round(n.SurvivalProbability()*1000) / 1000,
		SplitRule:      n.Description(),
	}

	switch node := n.(type) {
	case *Leaf:
		doc.IsLeaf = true
	case *Split:
		feature, threshold := node.Feature, node.Threshold
		doc.Feature = &feature
		doc.Threshold = &threshold
		doc.LeftLabel = node.LeftLabel
		doc.RightLabel = node.RightLabel
		doc.Children = []NodeDocument{Document(node.Left), Document(node.Right)}
	}

	return doc
}

func (l *Leaf) MarshalJSON() ([]byte, error) {
	return json.Marshal(Document(l))
}

func (s *Split) MarshalJSON() ([]byte, error) {
	return json.Marshal(Document(s))
}
