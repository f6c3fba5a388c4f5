package passenger

import (
	"fmt"
	"strconv"
)

// Describe renders a profile for chat responses,
// e.g. "30-year-old female in 2nd class, £20 fare".
func Describe(p Profile) string {
	age := strconv.FormatFloat(p.Age, 'f', -1, 64)
	return fmt.Sprintf("%s-year-old %s in %s, £%.0f fare", age, p.Sex, p.Pclass, p.Fare)
}
