// Package query turns free-text chat messages into passenger profiles.
//
// Parsing is keyword based and deliberately forgiving: a message only needs to
// mention a sex or a class, every other field falls back to a historical default.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/liamcoop/titanic-whatif/passenger"
)

// Ages assigned to categorical age terms
const (
	ChildAge   = 8
	ElderlyAge = 65
	AdultAge   = 35
	DefaultAge = 30
)

var (
	femaleTerms = []string{"woman", "women", "female", "lady", "ladies", "girl"}
	maleTerms   = []string{"man", "men", "male", "gentleman", "boy"}

	firstClassTerms  = []string{"1st class", "first class", "upper class", "wealthy", "rich"}
	secondClassTerms = []string{"2nd class", "second class", "middle class"}
	thirdClassTerms  = []string{"3rd class", "third class", "lower class", "poor", "cheap"}

	childTerms   = []string{"child", "children", "kid", "young", "baby", "infant"}
	elderlyTerms = []string{"elderly", "senior", "older", "old"}
	adultTerms   = []string{"adult", "middle-aged", "middle aged"}

	// bare ordinals, e.g. "a boy in 3rd"
	firstOrdinal  = regexp.MustCompile(`\b1st\b`)
	secondOrdinal = regexp.MustCompile(`\b2nd\b`)
	thirdOrdinal  = regexp.MustCompile(`\b3rd\b`)

	numericAge = regexp.MustCompile(`\b(\d+)[\s-]*(year|yr|y\.o\.|old)?\b`)
)

// Parse extracts a complete passenger profile from free text.
// It returns false when the text names neither a sex nor a class.
// Categorical age terms win over any number elsewhere in the text.
func Parse(text string) (passenger.Profile, bool) {
	lower := strings.ToLower(text)

	sex, sexKnown := parseSex(lower)
	class, classKnown := parseClass(lower)
	age := parseAge(lower)

	if !sexKnown && !classKnown {
		return passenger.Profile{}, false
	}

	if !sexKnown {
		sex = passenger.Female
	}

	fare := passenger.DefaultFare
	if classKnown {
		fare, _ = passenger.ClassFare(class)
	} else {
		class = passenger.SecondClass
	}

	return passenger.Profile{
		Sex:    sex,
		Pclass: class,
		Age:    age,
		Fare:   fare,
	}, true
}

func parseSex(text string) (passenger.Sex, bool) {
	switch {
	case containsAny(text, femaleTerms):
		return passenger.Female, true
	case containsAny(text, maleTerms):
		return passenger.Male, true
	default:
		return 0, false
	}
}

func parseClass(text string) (passenger.Class, bool) {
	switch {
	case containsAny(text, firstClassTerms):
		return passenger.FirstClass, true
	case containsAny(text, secondClassTerms):
		return passenger.SecondClass, true
	case containsAny(text, thirdClassTerms):
		return passenger.ThirdClass, true
	}

	// bare ordinals only count when no class phrase was found
	switch {
	case firstOrdinal.MatchString(text):
		return passenger.FirstClass, true
	case secondOrdinal.MatchString(text):
		return passenger.SecondClass, true
	case thirdOrdinal.MatchString(text):
		return passenger.ThirdClass, true
	default:
		return 0, false
	}
}

func parseAge(text string) float64 {
	switch {
	case containsAny(text, childTerms):
		return ChildAge
	case containsAny(text, elderlyTerms):
		return ElderlyAge
	case containsAny(text, adultTerms):
		return AdultAge
	}

	if m := numericAge.FindStringSubmatch(text); m != nil {
		// digits only, so the sole failure is overflow
		age, err := strconv.Atoi(m[1])
		if err != nil || age > passenger.MaxAge {
			return passenger.MaxAge
		}
		return float64(age)
	}

	return DefaultAge
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
