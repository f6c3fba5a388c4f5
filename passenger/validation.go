package passenger

import "fmt"

// Bounds accepted at the API boundary
const (
	MinAge = 0
	MaxAge = 100
)

// ValidationError reports a single out-of-domain profile field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks that every field of a profile lies in the domain the models accept.
// It returns the first violation found, checking fields in FeatureNames order.
func Validate(p Profile) error {
	if p.Sex != Female && p.Sex != Male {
		return &ValidationError{Field: FeatureSex, Message: "sex must be 0 (female) or 1 (male)"}
	}

	if p.Pclass < FirstClass || p.Pclass > ThirdClass {
		return &ValidationError{Field: FeaturePclass, Message: "pclass must be 1, 2, or 3"}
	}

	if p.Age < MinAge {
		return &ValidationError{Field: FeatureAge, Message: "age must be >= 0"}
	}
	if p.Age > MaxAge {
		return &ValidationError{Field: FeatureAge, Message: fmt.Sprintf("age must be <= %d", MaxAge)}
	}

	if p.Fare < 0 {
		return &ValidationError{Field: FeatureFare, Message: "fare must be >= 0"}
	}

	return nil
}
