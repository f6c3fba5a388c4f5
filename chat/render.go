// Package chat holds the conversational what-if state: transcripts, sessions and
// the narratives rendered for a matched cohort.
package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/liamcoop/titanic-whatif/cohorts"
	"github.com/liamcoop/titanic-whatif/passenger"
)

// View is the model view a session is looking at
type View string

const (
	// ViewTree shows the decision tree and uses the cohort narrative
	ViewTree View = "tree"
	// ViewXGBoost shows the SHAP breakdown and uses the explainer narrative
	ViewXGBoost View = "xgboost"
)

var ErrUnknownView = errors.New("unknown view")

// ParseView accepts "tree" or "xgboost"
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewTree, ViewXGBoost:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

// GuidanceMessage answers a query that names neither a sex nor a class
const GuidanceMessage = "I couldn't parse that query. Try asking about specific passengers like:\n" +
	"- 'show me a woman in 1st class'\n" +
	"- 'what about a young boy in 3rd'\n" +
	"- 'elderly man in second class'\n\n" +
	"Or use the preset buttons below!"

// WelcomeMessage opens every transcript
const WelcomeMessage = "Ask a question and I'll navigate the models for you.\n\n" +
	"Ask about any group or pattern, and I'll highlight the tree, surface cohort stats, " +
	"or compare the models' reasoning."

// Render fills the matched cohort's narrative for the active view with the passenger description
func Render(p passenger.Profile, m cohorts.Match, view View) string {
	if m.Rule == nil {
		return ""
	}
	template := m.Rule.Narrative
	if view == ViewXGBoost {
		template = m.Rule.ExplainerNarrative
	}
	return strings.ReplaceAll(template, cohorts.PassengerDescPlaceholder, passenger.Describe(p))
}
