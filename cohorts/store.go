package cohorts

import (
	"context"
	"fmt"
	"sync"
)

// RuleStore supplies the cohort rule table in registration order
type RuleStore interface {
	// List returns every active rule, in the order the rules were registered
	List(ctx context.Context) ([]*Rule, error)
}

// InMemoryRuleStore implements RuleStore with an ordered slice
type InMemoryRuleStore struct {
	rules []*Rule
	names map[string]bool
	mu    sync.RWMutex
}

// NewInMemoryRuleStore creates an empty in-memory rule store
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		names: make(map[string]bool),
	}
}

// NewDefaultRuleStore returns a store holding the built-in cohort table
func NewDefaultRuleStore() *InMemoryRuleStore {
	s := NewInMemoryRuleStore()
	for _, rule := range DefaultRules() {
		// names in the built-in table are unique
		_ = s.Add(rule)
	}
	return s
}

// Add registers a rule after any rules already in the store
func (s *InMemoryRuleStore) Add(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.names[rule.Name] {
		return fmt.Errorf("cohort rule %s already exists", rule.Name)
	}

	s.names[rule.Name] = true
	s.rules = append(s.rules, rule)
	return nil
}

// List returns the registered rules in registration order
func (s *InMemoryRuleStore) List(ctx context.Context) ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]*Rule, len(s.rules))
	copy(rules, s.rules)
	return rules, nil
}
