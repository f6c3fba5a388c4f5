package cohorts

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/cel-go/cel"
	"github.com/liamcoop/titanic-whatif/passenger"
)

// Engine resolves passenger profiles to cohorts.
// The rule table is loaded and compiled once; after construction the engine is read-only
// and safe for concurrent use.
type Engine struct {
	env      *cel.Env
	ordered  []*compiledRule
	fallback *Rule
}

type compiledRule struct {
	rule     *Rule
	position int                 // registration order, the tie-break among equal priorities
	programs map[int]cel.Program // criteria index -> program, for Expr predicates
}

// NewEnv creates the CEL environment cohort conditions are compiled against.
// Profiles are exposed as a map of double-valued fields named after the model features.
func NewEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("Passenger", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEngine loads every rule from the store and orders them for matching
func NewEngine(ctx context.Context, store RuleStore) (*Engine, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}
	return NewEngineWithEnv(ctx, env, store)
}

// NewEngineWithEnv creates an engine that compiles conditions against a custom CEL environment
func NewEngineWithEnv(ctx context.Context, env *cel.Env, store RuleStore) (*Engine, error) {
	rules, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort rules: %w", err)
	}

	en := &Engine{
		env:      env,
		ordered:  make([]*compiledRule, 0, len(rules)),
		fallback: Fallback(),
	}

	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("cohort rule at position %d has no name", i)
		}
		if seen[rule.Name] {
			return nil, fmt.Errorf("cohort rule %s is defined more than once", rule.Name)
		}
		seen[rule.Name] = true

		compiled, err := en.compile(rule, i)
		if err != nil {
			return nil, fmt.Errorf("failed to compile cohort rule %s: %w", rule.Name, err)
		}
		en.ordered = append(en.ordered, compiled)
	}

	// Highest priority first; equal priorities keep registration order
	slices.SortFunc(en.ordered, func(a, b *compiledRule) int {
		if c := cmp.Compare(b.rule.Priority, a.rule.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.position, b.position)
	})

	return en, nil
}

// CompileCondition compiles a CEL condition and checks that it yields a boolean
func (en *Engine) CompileCondition(source string) (cel.Program, error) {
	ast, issues := en.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("condition %q must evaluate to bool, got %s", source, ast.OutputType())
	}

	// Cost limit keeps a hostile condition from stalling a chat turn
	prog, err := en.env.Program(ast, cel.CostLimit(1000000))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	return prog, nil
}

func (en *Engine) compile(rule *Rule, position int) (*compiledRule, error) {
	c := &compiledRule{
		rule:     rule,
		position: position,
		programs: make(map[int]cel.Program),
	}

	for i, p := range rule.Criteria {
		switch pred := p.(type) {
		case Exact:
			if _, ok := (passenger.Profile{}).Feature(pred.Field); !ok {
				return nil, fmt.Errorf("unknown field %q", pred.Field)
			}
		case Range:
			if _, ok := (passenger.Profile{}).Feature(pred.Field); !ok {
				return nil, fmt.Errorf("unknown field %q", pred.Field)
			}
			if pred.Min > pred.Max {
				return nil, fmt.Errorf("range on %s has min %v above max %v", pred.Field, pred.Min, pred.Max)
			}
		case Expr:
			prog, err := en.CompileCondition(pred.Source)
			if err != nil {
				return nil, err
			}
			c.programs[i] = prog
		default:
			return nil, fmt.Errorf("unsupported predicate %T", p)
		}
	}

	return c, nil
}

// Match returns the highest-priority rule whose criteria all hold for the profile,
// or the fallback when none does. Exactly one result is always produced.
func (en *Engine) Match(p passenger.Profile) Match {
	for _, c := range en.ordered {
		if c.matches(p) {
			return Match{Rule: c.rule}
		}
	}
	return Match{Rule: en.fallback, Fallback: true}
}

// Rules returns the rules in matching order
func (en *Engine) Rules() []*Rule {
	rules := make([]*Rule, len(en.ordered))
	for i, c := range en.ordered {
		rules[i] = c.rule
	}
	return rules
}

// Fallback returns the rule used when no cohort matches
func (en *Engine) Fallback() *Rule {
	return en.fallback
}

func (c *compiledRule) matches(p passenger.Profile) bool {
	for i, pred := range c.rule.Criteria {
		switch pred := pred.(type) {
		case Exact:
			v, ok := p.Feature(pred.Field)
			if !ok || v != pred.Value {
				return false
			}
		case Range:
			v, ok := p.Feature(pred.Field)
			if !ok || v < pred.Min || v > pred.Max {
				return false
			}
		case Expr:
			// Evaluation errors and non-boolean results count as no match
			out, _, err := c.programs[i].Eval(map[string]any{"Passenger": p.Facts()})
			if err != nil {
				return false
			}
			if matched, ok := out.Value().(bool); !ok || !matched {
				return false
			}
		default:
			return false
		}
	}
	return true
}
