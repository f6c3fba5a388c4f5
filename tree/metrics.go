package tree

import (
	"fmt"

	"github.com/liamcoop/titanic-whatif/passenger"
)

// Metrics are binary classification scores with Survived as the positive class
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// Evaluate scores the tree against labelled passengers.
// Ratios with an empty denominator are reported as 0.
func (t *Tree) Evaluate(rows []passenger.Labelled) (Metrics, error) {
	if len(rows) == 0 {
		return Metrics{}, fmt.Errorf("no labelled passengers to evaluate")
	}

	var tp, fp, fn, correct int
	for i, row := range rows {
		pred, err := t.Predict(row.Profile())
		if err != nil {
			return Metrics{}, fmt.Errorf("row %d: %w", i, err)
		}

		actual := row.Survived
		if pred.Prediction == actual {
			correct++
		}
		switch {
		case pred.Prediction == Survived && actual == Survived:
			tp++
		case pred.Prediction == Survived && actual == Died:
			fp++
		case pred.Prediction == Died && actual == Survived:
			fn++
		}
	}

	m := Metrics{
		Accuracy:  float64(correct) / float64(len(rows)),
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
	}
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m, nil
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
