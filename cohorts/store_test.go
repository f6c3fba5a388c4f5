package cohorts

import (
	"context"
	"sync"
	"testing"
)

// TestRuleStoreInterface verifies both stores satisfy RuleStore
func TestRuleStoreInterface(t *testing.T) {
	var _ RuleStore = (*InMemoryRuleStore)(nil)
	var _ RuleStore = (*PostgresRuleStore)(nil)
}

// TestInMemoryRuleStoreKeepsOrder verifies List returns rules in registration order
func TestInMemoryRuleStoreKeepsOrder(t *testing.T) {
	store := NewInMemoryRuleStore()
	for _, name := range []string{"c", "a", "b"} {
		if err := store.Add(&Rule{Name: name}); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}

	rules, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	for i, name := range []string{"c", "a", "b"} {
		if rules[i].Name != name {
			t.Errorf("List()[%d] = %s, want %s", i, rules[i].Name, name)
		}
	}
}

// TestInMemoryRuleStoreAddDuplicate verifies duplicate names are rejected
func TestInMemoryRuleStoreAddDuplicate(t *testing.T) {
	store := NewInMemoryRuleStore()
	if err := store.Add(&Rule{Name: Women}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := store.Add(&Rule{Name: Women}); err == nil {
		t.Error("Add() should reject a duplicate name")
	}
}

// TestInMemoryRuleStoreListIsACopy verifies callers cannot reorder the store
func TestInMemoryRuleStoreListIsACopy(t *testing.T) {
	store := NewDefaultRuleStore()

	first, _ := store.List(context.Background())
	first[0], first[1] = first[1], first[0]

	second, _ := store.List(context.Background())
	if second[0].Name != FirstClassChild {
		t.Errorf("List()[0] = %s after caller mutation, want %s", second[0].Name, FirstClassChild)
	}
}

// TestDefaultRuleStore verifies the built-in table is registered in order
func TestDefaultRuleStore(t *testing.T) {
	rules, err := NewDefaultRuleStore().List(context.Background())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	expected := []string{FirstClassChild, ThirdClassMale, Women, Men, FirstClass, ThirdClass}
	if len(rules) != len(expected) {
		t.Fatalf("List() returned %d rules, want %d", len(rules), len(expected))
	}
	for i, name := range expected {
		if rules[i].Name != name {
			t.Errorf("List()[%d] = %s, want %s", i, rules[i].Name, name)
		}
	}
}

// TestInMemoryRuleStoreConcurrentAdd verifies Add is safe under concurrent use
func TestInMemoryRuleStoreConcurrentAdd(t *testing.T) {
	store := NewInMemoryRuleStore()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Add(&Rule{Name: "same"})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("%d concurrent Add() calls succeeded, want 1", succeeded)
	}
}
