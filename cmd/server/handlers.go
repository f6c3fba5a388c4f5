package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/liamcoop/titanic-whatif/explain"
	"github.com/liamcoop/titanic-whatif/internal/logger"
	"github.com/liamcoop/titanic-whatif/models"
	"github.com/liamcoop/titanic-whatif/passenger"
	"github.com/liamcoop/titanic-whatif/tree"
)

var errExplainerDisabled = errors.New("EXPLAINER_URL is not configured")

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:       "healthy",
		Explainer:    s.explainer != nil,
		CohortSource: s.cohortSource,
		Sessions:     s.sessions.Len(),
		Counters:     logger.Counters(),
	}

	_, err := s.models.DecisionTree()
	resp.TreeLoaded = err == nil

	if err == nil && s.db != nil {
		err = s.db.PingContext(r.Context())
	}
	if err != nil {
		resp.Status = "unhealthy"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// decodePassenger reads and validates the profile in the request body.
// It writes the error response itself and returns false on failure.
func decodePassenger(w http.ResponseWriter, r *http.Request) (passenger.Profile, bool) {
	var req PassengerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return passenger.Profile{}, false
	}

	p, err := req.Profile()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid passenger", err)
		return passenger.Profile{}, false
	}
	return p, true
}

// decisionTree returns the shared model, answering 500 itself when it cannot be loaded
func (s *Server) decisionTree(w http.ResponseWriter) (*models.DecisionTree, bool) {
	dt, err := s.models.DecisionTree()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "decision tree unavailable", err)
		return nil, false
	}
	return dt, true
}

func (s *Server) predictTree(w http.ResponseWriter, p passenger.Profile) (*tree.Prediction, bool) {
	dt, ok := s.decisionTree(w)
	if !ok {
		return nil, false
	}

	pred, err := dt.Tree.Predict(p)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "prediction failed", err)
		return nil, false
	}
	return pred, true
}

func (s *Server) explainProfile(w http.ResponseWriter, r *http.Request, p passenger.Profile) (*explain.Explanation, bool) {
	if s.explainer == nil {
		respondError(w, http.StatusServiceUnavailable, "explainer unavailable", errExplainerDisabled)
		return nil, false
	}

	e, err := s.explainer.Explain(r.Context(), p)
	if err != nil {
		respondError(w, http.StatusBadGateway, "SHAP explanation failed", err)
		return nil, false
	}
	return e, true
}

// Short decision tree prediction handler
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePassenger(w, r)
	if !ok {
		return
	}

	pred, ok := s.predictTree(w, p)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, PredictResponse{
		Prediction:   pred.Prediction,
		Probability:  pred.ProbabilitySurvived,
		SurvivalRate: pred.ProbabilitySurvived * 100,
		LeafNodeID:   pred.LeafNodeID,
		PathNodes:    pred.PathNodes,
	})
}

func (s *Server) handlePredictDecisionTree(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePassenger(w, r)
	if !ok {
		return
	}

	pred, ok := s.predictTree(w, p)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, DecisionTreePredictionResponse{Prediction: *pred, Model: "decision_tree"})
}

func (s *Server) handlePredictXGBoost(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePassenger(w, r)
	if !ok {
		return
	}

	e, ok := s.explainProfile(w, r, p)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, XGBoostPredictionResponse{Prediction: e.Prediction(), Model: "xgboost"})
}

func (s *Server) handlePredictBoth(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePassenger(w, r)
	if !ok {
		return
	}

	pred, ok := s.predictTree(w, p)
	if !ok {
		return
	}
	e, ok := s.explainProfile(w, r, p)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, BothPredictionsResponse{
		DecisionTree: DecisionTreePredictionResponse{Prediction: *pred, Model: "decision_tree"},
		XGBoost:      XGBoostPredictionResponse{Prediction: e.Prediction(), Model: "xgboost"},
	})
}

// SHAP explanation handler
func (s *Server) handleExplainSHAP(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePassenger(w, r)
	if !ok {
		return
	}

	e, ok := s.explainProfile(w, r, p)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleGlobalImportance(w http.ResponseWriter, r *http.Request) {
	if s.sampler == nil {
		respondError(w, http.StatusServiceUnavailable, "explainer unavailable", errExplainerDisabled)
		return
	}

	sample, err := s.sampler.Sample(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to fetch SHAP sample", err)
		return
	}

	importance, err := explain.GlobalImportance(sample)
	if err != nil {
		respondError(w, http.StatusBadGateway, "feature importance calculation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, GlobalImportanceResponse{FeatureImportance: importance})
}

// Tree handler
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.decisionTree(w)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, TreeResponse{
		Tree:         dt.Tree.Document(),
		FeatureNames: dt.Tree.FeatureNames,
		ModelMetrics: dt.Metrics,
	})
}

func (s *Server) handleTreeStructure(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.decisionTree(w)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, TreeStructureResponse{
		Tree: dt.Tree.Document(),
		Metadata: TreeMetadata{
			MaxDepth: dt.Tree.Depth,
			Features: dt.Tree.FeatureNames,
			Classes:  []string{tree.ClassLabel(tree.Died), tree.ClassLabel(tree.Survived)},
		},
	})
}

// handleTreePath returns only the highlighted path for a profile
func (s *Server) handleTreePath(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePassenger(w, r)
	if !ok {
		return
	}

	dt, ok := s.decisionTree(w)
	if !ok {
		return
	}

	path, err := dt.Tree.Trace(p)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "path tracing failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"path_nodes": path,
	})
}

func (s *Server) handleDecisionTreeMetrics(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.decisionTree(w)
	if !ok {
		return
	}

	if dt.Metrics == nil {
		respondError(w, http.StatusNotFound, "no test set configured", errors.New("TEST_DATA_PATH is not set"))
		return
	}

	respondJSON(w, http.StatusOK, dt.Metrics)
}
