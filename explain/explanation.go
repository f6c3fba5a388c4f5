// Package explain wraps the SHAP explainer of the complex model.
//
// SHAP values are computed by an external service; this package shapes its
// contributions into the waterfall and importance lists the views consume.
package explain

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/liamcoop/titanic-whatif/passenger"
)

// Explainer returns per-feature SHAP contributions for one passenger
type Explainer interface {
	Explain(ctx context.Context, p passenger.Profile) (*Explanation, error)
}

// Sampler returns SHAP contributions computed over a sample of the test set
type Sampler interface {
	Sample(ctx context.Context) (*Sample, error)
}

// Sample is a matrix of SHAP values, one row per passenger, columns in FeatureNames order
type Sample struct {
	FeatureNames []string    `json:"feature_names"`
	Values       [][]float64 `json:"shap_values"`
}

// WaterfallStep is one bar of the waterfall chart, starting where the previous one ended
type WaterfallStep struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	FeatureValue float64 `json:"feature_value"`
}

// Explanation is the SHAP breakdown of one prediction in log-odds space
type Explanation struct {
	BaseValue       float64            `json:"base_value"`
	FinalPrediction float64            `json:"final_prediction"`
	ShapValues      map[string]float64 `json:"shap_values"`
	WaterfallData   []WaterfallStep    `json:"waterfall_data"`
}

// NewExplanation assembles an explanation from the explainer output.
// Running totals follow feature order; the steps are then sorted by |value|, largest first.
func NewExplanation(base float64, names []string, contributions, row []float64) (*Explanation, error) {
	if len(names) != len(contributions) || len(names) != len(row) {
		return nil, fmt.Errorf("got %d features, %d contributions and %d values", len(names), len(contributions), len(row))
	}

	e := &Explanation{
		BaseValue:     base,
		ShapValues:    make(map[string]float64, len(names)),
		WaterfallData: make([]WaterfallStep, 0, len(names)),
	}

	cumulative := base
	for i, name := range names {
		v := contributions[i]
		e.ShapValues[name] = v
		e.WaterfallData = append(e.WaterfallData, WaterfallStep{
			Feature:      name,
			Value:        v,
			Start:        cumulative,
			End:          cumulative + v,
			FeatureValue: row[i],
		})
		cumulative += v
	}
	e.FinalPrediction = cumulative

	slices.SortStableFunc(e.WaterfallData, func(a, b WaterfallStep) int {
		return cmp.Compare(math.Abs(b.Value), math.Abs(a.Value))
	})

	return e, nil
}

// Probability converts the final log-odds into a survival probability
func (e *Explanation) Probability() float64 {
	return 1 / (1 + math.Exp(-e.FinalPrediction))
}

// Prediction is the complex model's verdict for one passenger
type Prediction struct {
	Prediction          int     `json:"prediction"`
	PredictionLabel     string  `json:"prediction_label"`
	ProbabilitySurvived float64 `json:"probability_survived"`
	ProbabilityDied     float64 `json:"probability_died"`
}

// Prediction derives the class from the explanation, survived above 0.5
func (e *Explanation) Prediction() Prediction {
	p := e.Probability()
	pred := Prediction{
		Prediction:          0,
		PredictionLabel:     "Died",
		ProbabilitySurvived: p,
		ProbabilityDied:     1 - p,
	}
	if p > 0.5 {
		pred.Prediction = 1
		pred.PredictionLabel = "Survived"
	}
	return pred
}

// Importance is the mean absolute SHAP value of a feature
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// GlobalImportance ranks features by mean |SHAP| over the sample, most important first
func GlobalImportance(sample *Sample) ([]Importance, error) {
	if len(sample.Values) == 0 {
		return nil, fmt.Errorf("no SHAP rows to aggregate")
	}

	out := make([]Importance, 0, len(sample.FeatureNames))
	for col, name := range sample.FeatureNames {
		abs := make([]float64, 0, len(sample.Values))
		for i, row := range sample.Values {
			if len(row) != len(sample.FeatureNames) {
				return nil, fmt.Errorf("SHAP row %d has %d values, want %d", i, len(row), len(sample.FeatureNames))
			}
			abs = append(abs, math.Abs(row[col]))
		}

		mean, err := stats.Mean(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to average %s: %w", name, err)
		}
		out = append(out, Importance{Feature: name, Importance: mean})
	}

	slices.SortStableFunc(out, func(a, b Importance) int {
		return cmp.Compare(b.Importance, a.Importance)
	})
	return out, nil
}
