package tree

import (
	"fmt"
	"strings"

	"github.com/liamcoop/titanic-whatif/passenger"
)

// Decoders maps a categorical feature to its level names, indexed by encoded value
type Decoders map[string][]string

// DefaultDecoders decodes the label-encoded sex feature
func DefaultDecoders() Decoders {
	return Decoders{
		passenger.FeatureSex: {passenger.Female.String(), passenger.Male.String()},
	}
}

func splitRule(feature string, threshold float64) string {
	return fmt.Sprintf("%s ≤ %.2f", feature, threshold)
}

// branchLabels returns the edge labels of a split, the <= branch first
func branchLabels(feature string, threshold float64, decoders Decoders) (string, string) {
	if levels, ok := decoders[feature]; ok && len(levels) > 0 {
		// a binary encoding can only split between its two levels
		if len(levels) == 2 {
			return levels[0], levels[1]
		}

		var left, right []string
		for code, level := range levels {
			if float64(code) <= threshold {
				left = append(left, level)
			} else {
				right = append(right, level)
			}
		}
		if len(left) > 0 && len(right) > 0 {
			return strings.Join(left, " & "), strings.Join(right, " & ")
		}
	}

	if feature == passenger.FeaturePclass {
		switch {
		case threshold <= 1.5:
			return "1st class", "2nd & 3rd class"
		case threshold <= 2.5:
			return "1st & 2nd class", "3rd class"
		}
	}

	return fmt.Sprintf("≤ %.1f", threshold), fmt.Sprintf("> %.1f", threshold)
}
