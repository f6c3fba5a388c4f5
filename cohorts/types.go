package cohorts

import (
	"fmt"
	"strconv"
	"strings"
)

// PassengerDescPlaceholder is replaced with the passenger description when a narrative is rendered
const PassengerDescPlaceholder = "{passenger_desc}"

// Rule is a named passenger cohort with the narratives used to explain it
type Rule struct {
	Name     string
	Priority int
	Criteria []Predicate

	// Narrative is shown alongside the decision tree view
	Narrative string
	// ExplainerNarrative is shown alongside the SHAP view of the complex model
	ExplainerNarrative string
}

// Predicate is one constraint of a rule's criteria.
// The set of implementations is closed: Exact, Range and Expr.
type Predicate interface {
	// Expression renders the predicate as a CEL expression over Passenger
	Expression() string
	predicate()
}

// Exact requires a profile field to equal Value
type Exact struct {
	Field string
	Value float64
}

// Range requires a profile field to lie within [Min, Max], inclusive on both ends
type Range struct {
	Field string
	Min   float64
	Max   float64
}

// Expr is a free-form CEL condition over Passenger, e.g. `Passenger.fare > 100.0`
type Expr struct {
	Source string
}

func (Exact) predicate() {}
func (Range) predicate() {}
func (Expr) predicate()  {}

func (p Exact) Expression() string {
	return fmt.Sprintf("Passenger.%s == %s", p.Field, celDouble(p.Value))
}

func (p Range) Expression() string {
	return fmt.Sprintf("Passenger.%s >= %s && Passenger.%s <= %s",
		p.Field, celDouble(p.Min), p.Field, celDouble(p.Max))
}

func (p Expr) Expression() string {
	return p.Source
}

// Expression renders the whole conjunction; an empty criteria list is `true`
func (r *Rule) Expression() string {
	if len(r.Criteria) == 0 {
		return "true"
	}
	parts := make([]string, 0, len(r.Criteria))
	for _, p := range r.Criteria {
		parts = append(parts, "("+p.Expression()+")")
	}
	return strings.Join(parts, " && ")
}

// Match is the outcome of resolving a profile to a cohort
type Match struct {
	Rule     *Rule
	Fallback bool
}

// Name returns the cohort name, or "" for the fallback
func (m Match) Name() string {
	if m.Fallback || m.Rule == nil {
		return ""
	}
	return m.Rule.Name
}

// celDouble formats v as a CEL double literal so comparisons stay double-typed
func celDouble(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
