package main

import (
	"github.com/liamcoop/titanic-whatif/chat"
	"github.com/liamcoop/titanic-whatif/explain"
	"github.com/liamcoop/titanic-whatif/internal/logger"
	"github.com/liamcoop/titanic-whatif/passenger"
	"github.com/liamcoop/titanic-whatif/tree"
)

// API request and response models with Swagger annotations

// PassengerRequest is the profile every prediction endpoint accepts
type PassengerRequest struct {
	Sex    *int     `json:"sex" example:"0" jsonschema:"required,enum=0,enum=1,description=0 female or 1 male"`
	Pclass *int     `json:"pclass" example:"1" jsonschema:"required,enum=1,enum=2,enum=3"`
	Age    *float64 `json:"age" example:"30" jsonschema:"required,minimum=0,maximum=100"`
	Fare   *float64 `json:"fare" example:"84" jsonschema:"required,minimum=0"`
} // @name PassengerRequest

// PredictResponse is the short decision tree answer
type PredictResponse struct {
	Prediction   int     `json:"prediction" example:"1"`
	Probability  float64 `json:"probability" example:"0.957"`
	SurvivalRate float64 `json:"survival_rate" example:"95.7"`
	LeafNodeID   int     `json:"leaf_node_id" example:"3"`
	PathNodes    []int   `json:"path_nodes"`
} // @name PredictResponse

// DecisionTreePredictionResponse is a full decision tree prediction
type DecisionTreePredictionResponse struct {
	tree.Prediction
	Model string `json:"model" example:"decision_tree"`
} // @name DecisionTreePredictionResponse

// XGBoostPredictionResponse is a prediction of the complex model
type XGBoostPredictionResponse struct {
	explain.Prediction
	Model string `json:"model" example:"xgboost"`
} // @name XGBoostPredictionResponse

// BothPredictionsResponse compares the two models for one passenger
type BothPredictionsResponse struct {
	DecisionTree DecisionTreePredictionResponse `json:"decision_tree"`
	XGBoost      XGBoostPredictionResponse      `json:"xgboost"`
} // @name BothPredictionsResponse

// GlobalImportanceResponse ranks features by mean absolute SHAP value
type GlobalImportanceResponse struct {
	FeatureImportance []explain.Importance `json:"feature_importance"`
} // @name GlobalImportanceResponse

// TreeResponse is the converted tree with its scores
type TreeResponse struct {
	Tree         tree.NodeDocument `json:"tree"`
	FeatureNames []string          `json:"feature_names"`
	ModelMetrics *tree.Metrics     `json:"model_metrics"`
} // @name TreeResponse

// TreeMetadata describes the tree without its nodes
type TreeMetadata struct {
	MaxDepth int      `json:"max_depth" example:"4"`
	Features []string `json:"features"`
	Classes  []string `json:"classes"`
} // @name TreeMetadata

// TreeStructureResponse is the tree with its metadata
type TreeStructureResponse struct {
	Tree     tree.NodeDocument `json:"tree"`
	Metadata TreeMetadata      `json:"metadata"`
} // @name TreeStructureResponse

// CohortResponse is one entry of the cohort table
type CohortResponse struct {
	Name               string `json:"name" example:"first_class_child"`
	Priority           int    `json:"priority" example:"3"`
	Expression         string `json:"expression" example:"(Passenger.pclass == 1.0) && (Passenger.age >= 0.0 && Passenger.age <= 12.0)"`
	Narrative          string `json:"narrative"`
	ExplainerNarrative string `json:"explainer_narrative"`
} // @name CohortResponse

// CohortsListResponse lists cohorts in matching order
type CohortsListResponse struct {
	Cohorts  []CohortResponse `json:"cohorts"`
	Fallback CohortResponse   `json:"fallback"`
} // @name CohortsListResponse

// CohortMatchResponse names the cohort a profile falls into
type CohortMatchResponse struct {
	Cohort      string `json:"cohort" example:"women"`
	Fallback    bool   `json:"fallback" example:"false"`
	Description string `json:"description" example:"30-year-old female in 2nd class, £20 fare"`
	Narrative   string `json:"narrative"`
} // @name CohortMatchResponse

// PresetsListResponse lists the quick-pick scenarios
type PresetsListResponse struct {
	Presets []passenger.Preset `json:"presets"`
} // @name PresetsListResponse

// MessageRequest is a chat message
type MessageRequest struct {
	Text string `json:"text" example:"what about a young boy in 3rd" jsonschema:"required,maxLength=500"`
} // @name MessageRequest

// MessageResponse is the assistant's reply plus the session state after it
type MessageResponse struct {
	Reply   chat.Reply `json:"reply"`
	Session chat.State `json:"session"`
} // @name MessageResponse

// ViewRequest switches the model view of a session
type ViewRequest struct {
	View string `json:"view" example:"xgboost" jsonschema:"required,enum=tree,enum=xgboost"`
} // @name ViewRequest

// ClassRequest changes a session's ticket class; the fare resets to the class average
type ClassRequest struct {
	Pclass *int `json:"pclass" example:"1" jsonschema:"required,enum=1,enum=2,enum=3"`
} // @name ClassRequest

// ClassFareResponse is the average and typical fare span of one class
type ClassFareResponse struct {
	Pclass      int     `json:"pclass" example:"1"`
	Label       string  `json:"label" example:"1st class"`
	AverageFare float64 `json:"average_fare" example:"84"`
	MinFare     float64 `json:"min_fare" example:"30"`
	MaxFare     float64 `json:"max_fare" example:"500"`
} // @name ClassFareResponse

// FaresResponse lists fares for every class
type FaresResponse struct {
	Fares []ClassFareResponse `json:"fares"`
} // @name FaresResponse

// SessionsListResponse lists live session IDs
type SessionsListResponse struct {
	Sessions []string `json:"sessions"`
} // @name SessionsListResponse

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid passenger"`
	Details string `json:"details,omitempty" example:"invalid age: age must be <= 100"`
} // @name ErrorResponse

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string                 `json:"status" example:"healthy"`
	TreeLoaded   bool                   `json:"tree_loaded" example:"true"`
	Explainer    bool                   `json:"explainer" example:"false"`
	CohortSource string                 `json:"cohort_source" example:"builtin"`
	Sessions     int                    `json:"sessions" example:"2"`
	Counters     logger.CounterSnapshot `json:"counters"`
} // @name HealthResponse

// Profile converts the request into a validated passenger profile
func (r PassengerRequest) Profile() (passenger.Profile, error) {
	switch {
	case r.Sex == nil:
		return passenger.Profile{}, &passenger.ValidationError{Field: passenger.FeatureSex, Message: "sex is required"}
	case r.Pclass == nil:
		return passenger.Profile{}, &passenger.ValidationError{Field: passenger.FeaturePclass, Message: "pclass is required"}
	case r.Age == nil:
		return passenger.Profile{}, &passenger.ValidationError{Field: passenger.FeatureAge, Message: "age is required"}
	case r.Fare == nil:
		return passenger.Profile{}, &passenger.ValidationError{Field: passenger.FeatureFare, Message: "fare is required"}
	}

	p := passenger.Profile{
		Sex:    passenger.Sex(*r.Sex),
		Pclass: passenger.Class(*r.Pclass),
		Age:    *r.Age,
		Fare:   *r.Fare,
	}
	if err := passenger.Validate(p); err != nil {
		return passenger.Profile{}, err
	}
	return p, nil
}
