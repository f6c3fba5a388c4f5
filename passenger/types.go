package passenger

import "fmt"

// Sex is the label-encoded sex of a passenger (female=0, male=1)
type Sex int

const (
	Female Sex = 0
	Male   Sex = 1
)

// String returns the lowercase label used in descriptions and branch labels
func (s Sex) String() string {
	if s == Female {
		return "female"
	}
	return "male"
}

// UnmarshalCSV accepts both the raw dataset labels and their encoded values
func (s *Sex) UnmarshalCSV(value string) error {
	switch value {
	case "female", "0":
		*s = Female
	case "male", "1":
		*s = Male
	default:
		return fmt.Errorf("unknown sex %q", value)
	}
	return nil
}

// Class is the ticket class of a passenger (1, 2 or 3)
type Class int

const (
	FirstClass  Class = 1
	SecondClass Class = 2
	ThirdClass  Class = 3
)

// String returns the class label, e.g. "1st class"
func (c Class) String() string {
	switch c {
	case FirstClass:
		return "1st class"
	case SecondClass:
		return "2nd class"
	case ThirdClass:
		return "3rd class"
	default:
		return fmt.Sprintf("class %d", int(c))
	}
}

// Feature names in the column order the models were trained with
const (
	FeatureSex    = "sex"
	FeaturePclass = "pclass"
	FeatureAge    = "age"
	FeatureFare   = "fare"
)

// FeatureNames lists every model feature in training column order
var FeatureNames = []string{FeatureSex, FeaturePclass, FeatureAge, FeatureFare}

// Profile represents a hypothetical traveler.
// A Profile is a value: updating the what-if state means replacing it.
type Profile struct {
	Sex    Sex     `json:"sex"`
	Pclass Class   `json:"pclass"`
	Age    float64 `json:"age"`
	Fare   float64 `json:"fare"`
}

// Feature returns the value of a model feature by name.
// The second return value is false for names the profile does not carry.
func (p Profile) Feature(name string) (float64, bool) {
	switch name {
	case FeatureSex:
		return float64(p.Sex), true
	case FeaturePclass:
		return float64(p.Pclass), true
	case FeatureAge:
		return p.Age, true
	case FeatureFare:
		return p.Fare, true
	default:
		return 0, false
	}
}

// Row returns the profile as a feature vector in FeatureNames order
func (p Profile) Row() []float64 {
	return []float64{float64(p.Sex), float64(p.Pclass), p.Age, p.Fare}
}

// Facts returns the profile keyed by feature name, for expression evaluation
func (p Profile) Facts() map[string]any {
	return map[string]any{
		FeatureSex:    float64(p.Sex),
		FeaturePclass: float64(p.Pclass),
		FeatureAge:    p.Age,
		FeatureFare:   p.Fare,
	}
}
