package tree

import (
	"errors"
	"fmt"
)

// ErrMissingFeature is returned when a profile lacks a feature the tree splits on
var ErrMissingFeature = errors.New("profile is missing a feature the tree splits on")

// Features supplies feature values by name. passenger.Profile implements it.
type Features interface {
	Feature(name string) (float64, bool)
}

// FeatureMap is a Features backed by a plain map
type FeatureMap map[string]float64

func (m FeatureMap) Feature(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

// Trace walks from root to a leaf and returns the IDs of the visited nodes, root first.
// A missing feature on the path fails instead of being defaulted.
func Trace(root Node, f Features) ([]int, error) {
	var path []int
	n := root
	for {
		path = append(path, n.NodeID())

		switch node := n.(type) {
		case *Leaf:
			return path, nil
		case *Split:
			v, ok := f.Feature(node.Feature)
			if !ok {
				return nil, fmt.Errorf("node %d splits on %s: %w", node.ID, node.Feature, ErrMissingFeature)
			}
			if v <= node.Threshold {
				n = node.Left
			} else {
				n = node.Right
			}
		default:
			return nil, fmt.Errorf("unexpected node type %T", n)
		}
	}
}

// Trace checks that the profile supplies every feature the tree splits on,
// including ones off the eventual path, then walks it
func (t *Tree) Trace(f Features) ([]int, error) {
	for _, name := range t.features {
		if _, ok := f.Feature(name); !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrMissingFeature)
		}
	}
	return Trace(t.Root, f)
}

// Prediction is the outcome of routing one profile through the tree
type Prediction struct {
	Prediction          int     `json:"prediction"`
	PredictionLabel     string  `json:"prediction_label"`
	ProbabilitySurvived float64 `json:"probability_survived"`
	ProbabilityDied     float64 `json:"probability_died"`
	LeafNodeID          int     `json:"leaf_node_id"`
	PathNodes           []int   `json:"path_nodes"`
}

// Predict traces the profile and reports the reached leaf's prediction
func (t *Tree) Predict(f Features) (*Prediction, error) {
	path, err := t.Trace(f)
	if err != nil {
		return nil, err
	}

	leafID := path[len(path)-1]
	leaf, ok := t.Node(leafID)
	if !ok {
		return nil, fmt.Errorf("trace reached unknown node %d", leafID)
	}

	p := leaf.SurvivalProbability()
	class := leaf.PredictedClass()
	return &Prediction{
		Prediction:          class,
		PredictionLabel:     ClassLabel(class),
		ProbabilitySurvived: p,
		ProbabilityDied:     1 - p,
		LeafNodeID:          leafID,
		PathNodes:           path,
	}, nil
}
