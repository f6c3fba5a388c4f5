package models

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/liamcoop/titanic-whatif/passenger"
)

var (
	treePath = filepath.Join("..", "data", "titanic_tree.json")
	testPath = filepath.Join("..", "data", "titanic_test.csv")
)

// TestLoadDecisionTree verifies the fixture loads, converts and is scored
func TestLoadDecisionTree(t *testing.T) {
	dt, err := LoadDecisionTree(treePath, testPath)
	if err != nil {
		t.Fatalf("LoadDecisionTree() failed: %v", err)
	}

	if dt.Tree.Len() != 17 {
		t.Errorf("tree has %d nodes, want 17", dt.Tree.Len())
	}
	if dt.Metrics == nil {
		t.Fatal("Metrics should be set when a test set is configured")
	}
	if dt.Metrics.Accuracy < 0.79 || dt.Metrics.Accuracy > 0.81 {
		t.Errorf("Accuracy = %v, want 0.8", dt.Metrics.Accuracy)
	}

	pred, err := dt.Tree.Predict(passenger.Profile{Sex: passenger.Female, Pclass: 1, Age: 30, Fare: 84})
	if err != nil {
		t.Fatalf("Predict() failed: %v", err)
	}
	if pred.LeafNodeID != 3 {
		t.Errorf("LeafNodeID = %d, want 3", pred.LeafNodeID)
	}
}

// TestLoadDecisionTreeWithoutTestSet verifies metrics are optional
func TestLoadDecisionTreeWithoutTestSet(t *testing.T) {
	dt, err := LoadDecisionTree(treePath, "")
	if err != nil {
		t.Fatalf("LoadDecisionTree() failed: %v", err)
	}
	if dt.Metrics != nil {
		t.Errorf("Metrics = %+v, want nil", dt.Metrics)
	}
}

// TestLoadDecisionTreeMissingFile verifies load errors are reported
func TestLoadDecisionTreeMissingFile(t *testing.T) {
	if _, err := LoadDecisionTree(filepath.Join(t.TempDir(), "none.json"), ""); err == nil {
		t.Error("LoadDecisionTree() should fail for a missing export")
	}
	if _, err := LoadDecisionTree(treePath, filepath.Join(t.TempDir(), "none.csv")); err == nil {
		t.Error("LoadDecisionTree() should fail for a missing test set")
	}
}

// TestRegistryLoadsOnce verifies concurrent first access triggers a single load
func TestRegistryLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	registry := NewRegistry(func() (*DecisionTree, error) {
		loads.Add(1)
		return LoadDecisionTree(treePath, "")
	})

	var wg sync.WaitGroup
	results := make([]*DecisionTree, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dt, err := registry.DecisionTree()
			if err != nil {
				t.Errorf("DecisionTree() failed: %v", err)
				return
			}
			results[i] = dt
		}(i)
	}
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Errorf("load ran %d times, want 1", n)
	}
	for i, dt := range results {
		if dt != results[0] {
			t.Errorf("caller %d got a different model instance", i)
		}
	}
}

// TestRegistryRemembersError verifies a failed load is not retried
func TestRegistryRemembersError(t *testing.T) {
	loadErr := errors.New("export unavailable")
	var loads atomic.Int32
	registry := NewRegistry(func() (*DecisionTree, error) {
		loads.Add(1)
		return nil, loadErr
	})

	for i := 0; i < 3; i++ {
		if _, err := registry.DecisionTree(); !errors.Is(err, loadErr) {
			t.Errorf("DecisionTree() error = %v, want %v", err, loadErr)
		}
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("load ran %d times, want 1", n)
	}
}
