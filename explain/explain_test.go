package explain

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/liamcoop/titanic-whatif/passenger"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestNewExplanation verifies running totals and the |value| ordering of the waterfall
func TestNewExplanation(t *testing.T) {
	names := []string{"sex", "pclass", "age", "fare"}
	e, err := NewExplanation(-0.5, names, []float64{1.2, -0.3, 0.1, -0.6}, []float64{0, 3, 30, 13})
	if err != nil {
		t.Fatalf("NewExplanation() failed: %v", err)
	}

	if !almostEqual(e.FinalPrediction, -0.1) {
		t.Errorf("FinalPrediction = %v, want -0.1", e.FinalPrediction)
	}
	if e.ShapValues["pclass"] != -0.3 {
		t.Errorf("ShapValues[pclass] = %v, want -0.3", e.ShapValues["pclass"])
	}

	expectedOrder := []string{"sex", "fare", "pclass", "age"}
	for i, name := range expectedOrder {
		if e.WaterfallData[i].Feature != name {
			t.Errorf("WaterfallData[%d] = %s, want %s", i, e.WaterfallData[i].Feature, name)
		}
	}

	// steps keep the running totals of feature order
	fare := e.WaterfallData[1]
	if !almostEqual(fare.Start, 0.5) || !almostEqual(fare.End, -0.1) || fare.FeatureValue != 13 {
		t.Errorf("fare step = %+v, want start 0.5, end -0.1, value 13", fare)
	}
}

// TestNewExplanationLengthMismatch verifies misaligned explainer output is rejected
func TestNewExplanationLengthMismatch(t *testing.T) {
	if _, err := NewExplanation(0, []string{"sex", "age"}, []float64{1}, []float64{0, 30}); err == nil {
		t.Error("NewExplanation() should reject mismatched lengths")
	}
}

// TestPrediction verifies the sigmoid and 0.5 cut-off
func TestPrediction(t *testing.T) {
	testCases := []struct {
		margin   float64
		expected int
		prob     float64
	}{
		{0, 0, 0.5},
		{2, 1, 1 / (1 + math.Exp(-2))},
		{-2, 0, 1 / (1 + math.Exp(2))},
	}

	for _, tc := range testCases {
		e := &Explanation{FinalPrediction: tc.margin}
		p := e.Prediction()
		if p.Prediction != tc.expected {
			t.Errorf("margin %v: Prediction = %d, want %d", tc.margin, p.Prediction, tc.expected)
		}
		if !almostEqual(p.ProbabilitySurvived, tc.prob) || !almostEqual(p.ProbabilitySurvived+p.ProbabilityDied, 1) {
			t.Errorf("margin %v: probabilities = %v/%v", tc.margin, p.ProbabilitySurvived, p.ProbabilityDied)
		}
	}
}

// TestGlobalImportance verifies features are ranked by mean absolute SHAP value
func TestGlobalImportance(t *testing.T) {
	sample := &Sample{
		FeatureNames: []string{"sex", "pclass", "age", "fare"},
		Values: [][]float64{
			{1.0, -0.2, 0.1, 0.0},
			{-1.4, 0.4, -0.3, 0.2},
		},
	}

	got, err := GlobalImportance(sample)
	if err != nil {
		t.Fatalf("GlobalImportance() failed: %v", err)
	}

	expected := []Importance{
		{"sex", 1.2},
		{"pclass", 0.3},
		{"age", 0.2},
		{"fare", 0.1},
	}
	for i, want := range expected {
		if got[i].Feature != want.Feature || !almostEqual(got[i].Importance, want.Importance) {
			t.Errorf("GlobalImportance()[%d] = %+v, want %+v", i, got[i], want)
		}
	}

	if _, err := GlobalImportance(&Sample{FeatureNames: []string{"sex"}}); err == nil {
		t.Error("GlobalImportance() should fail without rows")
	}
	if _, err := GlobalImportance(&Sample{FeatureNames: []string{"sex"}, Values: [][]float64{{1, 2}}}); err == nil {
		t.Error("GlobalImportance() should fail on ragged rows")
	}
}

func newTestExplainer(url string) *HTTPExplainer {
	c := NewHTTPExplainer(url, time.Second, 3)
	c.backoff = time.Millisecond
	return c
}

// TestHTTPExplainerExplain verifies the request shape and response decoding
func TestHTTPExplainerExplain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/shap" {
			http.NotFound(w, r)
			return
		}
		var req explainRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Rows) != 1 || len(req.Rows[0]) != 4 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(explainResponse{
			BaseValue:  -0.4,
			ShapValues: [][]float64{{-1.1, -0.5, 0.2, -0.1}},
		})
	}))
	defer server.Close()

	e, err := newTestExplainer(server.URL).Explain(context.Background(),
		passenger.Profile{Sex: passenger.Male, Pclass: 3, Age: 40, Fare: 8})
	if err != nil {
		t.Fatalf("Explain() failed: %v", err)
	}

	if !almostEqual(e.FinalPrediction, -1.9) {
		t.Errorf("FinalPrediction = %v, want -1.9", e.FinalPrediction)
	}
	if e.WaterfallData[0].Feature != "sex" || e.WaterfallData[0].FeatureValue != 1 {
		t.Errorf("largest step = %+v, want sex", e.WaterfallData[0])
	}
	if e.Prediction().Prediction != 0 {
		t.Error("a negative margin should predict died")
	}
}

// TestHTTPExplainerRetries verifies 5xx responses are retried
func TestHTTPExplainerRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Sample{
			FeatureNames: []string{"sex"},
			Values:       [][]float64{{0.5}},
		})
	}))
	defer server.Close()

	sample, err := newTestExplainer(server.URL).Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() failed: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
	if len(sample.Values) != 1 {
		t.Errorf("Sample() returned %d rows, want 1", len(sample.Values))
	}
}

// TestHTTPExplainerGivesUp verifies the retry budget and 4xx handling
func TestHTTPExplainerGivesUp(t *testing.T) {
	var calls atomic.Int32
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	if _, err := newTestExplainer(failing.URL).Sample(context.Background()); err == nil {
		t.Error("Sample() should fail when every attempt fails")
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}

	calls.Store(0)
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown feature", http.StatusUnprocessableEntity)
	}))
	defer rejecting.Close()

	if _, err := newTestExplainer(rejecting.URL).Sample(context.Background()); err == nil {
		t.Error("Sample() should fail on a 4xx response")
	}
	if calls.Load() != 1 {
		t.Errorf("a 4xx response was retried %d times", calls.Load()-1)
	}
}

// TestHTTPExplainerContextCanceled verifies a canceled context stops the retries
func TestHTTPExplainerContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestExplainer(server.URL).Sample(ctx); err == nil {
		t.Error("Sample() should fail with a canceled context")
	}
}
