package tree

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Sentinels used by the trained model's flat arrays
const (
	// LeafFeature marks a node without a split
	LeafFeature = -2
	// NoChild marks the missing children of a leaf
	NoChild = -1
)

// Source is a trained binary decision tree exposed through its flat per-node arrays.
// Node indices are the model's own and are kept as node IDs by Convert.
type Source interface {
	NodeCount() int
	// Feature returns the index of the split feature, or LeafFeature
	Feature(node int) int
	Threshold(node int) float64
	Children(node int) (left, right int)
	// ClassCounts returns the training samples at the node per class, as raw counts
	ClassCounts(node int) (died, survived float64)
	Samples(node int) int
}

// Export is the JSON form of a trained tree written by the training job.
// Array i describes node i.
type Export struct {
	FeatureNames  []string    `json:"feature_names"`
	Features      []int       `json:"feature"`
	Thresholds    []float64   `json:"threshold"`
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Values        [][]float64 `json:"value"`
	NodeSamples   []int       `json:"n_node_samples"`
	MaxDepth      int         `json:"max_depth"`
	Categorical   Decoders    `json:"categorical,omitempty"`
}

func (e *Export) NodeCount() int { return len(e.Features) }

func (e *Export) Feature(node int) int { return e.Features[node] }

func (e *Export) Threshold(node int) float64 { return e.Thresholds[node] }

func (e *Export) Children(node int) (int, int) {
	return e.ChildrenLeft[node], e.ChildrenRight[node]
}

func (e *Export) ClassCounts(node int) (float64, float64) {
	return e.Values[node][0], e.Values[node][1]
}

func (e *Export) Samples(node int) int { return e.NodeSamples[node] }

// Load decodes an exported tree and checks that its arrays line up
func Load(r io.Reader) (*Export, error) {
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode tree export: %w", err)
	}
	if err := export.validate(); err != nil {
		return nil, err
	}
	return &export, nil
}

// LoadFile reads an exported tree from disk
func LoadFile(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree export: %w", err)
	}
	defer f.Close()

	export, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return export, nil
}

func (e *Export) validate() error {
	n := len(e.Features)
	if n == 0 {
		return fmt.Errorf("tree export has no nodes")
	}

	lengths := []struct {
		name string
		len  int
	}{
		{"threshold", len(e.Thresholds)},
		{"children_left", len(e.ChildrenLeft)},
		{"children_right", len(e.ChildrenRight)},
		{"value", len(e.Values)},
		{"n_node_samples", len(e.NodeSamples)},
	}
	for _, a := range lengths {
		if a.len != n {
			return fmt.Errorf("tree export array %s has %d entries, want %d", a.name, a.len, n)
		}
	}

	for i := 0; i < n; i++ {
		if len(e.Values[i]) != 2 {
			return fmt.Errorf("node %d has %d class counts, want 2", i, len(e.Values[i]))
		}
		if e.Features[i] == LeafFeature {
			continue
		}
		if e.Features[i] < 0 || e.Features[i] >= len(e.FeatureNames) {
			return fmt.Errorf("node %d splits on unknown feature index %d", i, e.Features[i])
		}
		if math.IsNaN(e.Thresholds[i]) {
			return fmt.Errorf("node %d has no threshold", i)
		}
		for _, child := range []int{e.ChildrenLeft[i], e.ChildrenRight[i]} {
			// children always come after their parent in the model's preorder numbering
			if child <= i || child >= n {
				return fmt.Errorf("node %d has invalid child index %d", i, child)
			}
		}
	}

	return nil
}
