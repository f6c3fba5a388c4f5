package cohorts

import "github.com/liamcoop/titanic-whatif/passenger"

// Built-in cohort names
const (
	FirstClassChild = "first_class_child"
	ThirdClassMale  = "third_class_male"
	Women           = "women"
	Men             = "men"
	FirstClass      = "first_class"
	ThirdClass      = "third_class"
)

// Ages covered by the first_class_child cohort, inclusive
const (
	ChildMinAge = 0
	ChildMaxAge = 12
)

// DefaultRules returns the built-in cohort table in registration order.
// Each call returns fresh rules so callers cannot alter each other's tables.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			Name:     FirstClassChild,
			Priority: 3,
			Criteria: []Predicate{
				Exact{Field: passenger.FeaturePclass, Value: 1},
				Range{Field: passenger.FeatureAge, Min: ChildMinAge, Max: ChildMaxAge},
			},
			Narrative:          "First class children had the best odds. Children, especially in 1st and 2nd class, had high survival rates.",
			ExplainerNarrative: "First class children had the best odds. For the SHAP analysis, I'm using this passenger: {passenger_desc}. The XGBoost tab shows which features strongly pushed this passenger toward survival.",
		},
		{
			Name:     ThirdClassMale,
			Priority: 2,
			Criteria: []Predicate{
				Exact{Field: passenger.FeatureSex, Value: float64(passenger.Male)},
				Exact{Field: passenger.FeaturePclass, Value: 3},
			},
			Narrative:          "Third class males had the worst odds (24% survival rate). They were located furthest from lifeboats and had limited access to the deck.",
			ExplainerNarrative: "Third class males had the worst odds (24% survival rate). For the SHAP analysis, I'm using this passenger: {passenger_desc}. The XGBoost tab shows which features strongly pushed this passenger toward death.",
		},
		{
			Name:     Women,
			Priority: 1,
			Criteria: []Predicate{
				Exact{Field: passenger.FeatureSex, Value: float64(passenger.Female)},
			},
			Narrative:          "Women had a 74% survival rate. The 'women and children first' protocol was largely followed.",
			ExplainerNarrative: "Women had a 74% survival rate. For the SHAP analysis, I'm using this passenger: {passenger_desc}. The XGBoost tab shows which features pushed this passenger toward survival.",
		},
		{
			Name:     Men,
			Priority: 1,
			Criteria: []Predicate{
				Exact{Field: passenger.FeatureSex, Value: float64(passenger.Male)},
			},
			Narrative:          "Men had only a 19% survival rate (109 survived out of 577).",
			ExplainerNarrative: "Men had only a 19% survival rate (109 survived out of 577). For the SHAP analysis, I'm using this passenger: {passenger_desc}. The XGBoost tab shows which features pushed this passenger toward death.",
		},
		{
			Name:     FirstClass,
			Priority: 2,
			Criteria: []Predicate{
				Exact{Field: passenger.FeaturePclass, Value: 1},
			},
			Narrative:          "First class passengers had a 63% survival rate (136 survived out of 216). Wealth and proximity to lifeboats mattered.",
			ExplainerNarrative: "First class passengers had a 63% survival rate. Analyzing this passenger: {passenger_desc}.",
		},
		{
			Name:     ThirdClass,
			Priority: 2,
			Criteria: []Predicate{
				Exact{Field: passenger.FeaturePclass, Value: 3},
			},
			Narrative:          "Third class passengers had the worst odds (119 survived out of 491, 24% survival rate). They were located furthest from lifeboats.",
			ExplainerNarrative: "Third class passengers had the worst odds (24% survival rate). Analyzing this passenger: {passenger_desc}.",
		},
	}
}

// Fallback is the rule answered when no cohort matches.
// It has no name and no criteria.
func Fallback() *Rule {
	return &Rule{
		Narrative:          "Here's the analysis for this passenger profile.",
		ExplainerNarrative: "Analyzing this passenger: {passenger_desc}.",
	}
}
