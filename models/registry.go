// Package models holds the trained models shared by every request.
package models

import (
	"fmt"
	"sync"

	"github.com/liamcoop/titanic-whatif/passenger"
	"github.com/liamcoop/titanic-whatif/tree"
)

// DecisionTree is the converted interpretable model with its held-out scores
type DecisionTree struct {
	Tree *tree.Tree
	// Metrics is nil when no labelled test set is configured
	Metrics *tree.Metrics
}

// LoadDecisionTree reads and converts an exported tree.
// When testDataPath is set the tree is also scored against that labelled CSV.
func LoadDecisionTree(modelPath, testDataPath string) (*DecisionTree, error) {
	export, err := tree.LoadFile(modelPath)
	if err != nil {
		return nil, err
	}

	decoders := export.Categorical
	if len(decoders) == 0 {
		decoders = tree.DefaultDecoders()
	}

	names := export.FeatureNames
	if len(names) == 0 {
		names = passenger.FeatureNames
	}

	dt := &DecisionTree{Tree: tree.Convert(export, names, decoders)}

	if testDataPath != "" {
		rows, err := passenger.LoadLabelledFile(testDataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load test set: %w", err)
		}
		metrics, err := dt.Tree.Evaluate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate decision tree: %w", err)
		}
		dt.Metrics = &metrics
	}

	return dt, nil
}

// Registry loads the decision tree on first use and shares it afterwards.
// The load runs at most once, even when first requested concurrently;
// a failed load is remembered and returned to every caller.
type Registry struct {
	load func() (*DecisionTree, error)

	once  sync.Once
	model *DecisionTree
	err   error
}

// NewRegistry creates a registry around a load function
func NewRegistry(load func() (*DecisionTree, error)) *Registry {
	return &Registry{load: load}
}

// NewFileRegistry creates a registry that loads the tree export and test set from disk
func NewFileRegistry(modelPath, testDataPath string) *Registry {
	return NewRegistry(func() (*DecisionTree, error) {
		return LoadDecisionTree(modelPath, testDataPath)
	})
}

// DecisionTree returns the shared model, loading it on the first call
func (r *Registry) DecisionTree() (*DecisionTree, error) {
	r.once.Do(func() {
		r.model, r.err = r.load()
	})
	return r.model, r.err
}
