package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/invopop/jsonschema"

	"github.com/liamcoop/titanic-whatif/chat"
	"github.com/liamcoop/titanic-whatif/cohorts"
	"github.com/liamcoop/titanic-whatif/passenger"
	"github.com/liamcoop/titanic-whatif/tree"
)

func cohortResponse(rule *cohorts.Rule) CohortResponse {
	return CohortResponse{
		Name:               rule.Name,
		Priority:           rule.Priority,
		Expression:         rule.Expression(),
		Narrative:          rule.Narrative,
		ExplainerNarrative: rule.ExplainerNarrative,
	}
}

// List cohorts handler
func (s *Server) handleListCohorts(w http.ResponseWriter, r *http.Request) {
	rules := s.engine.Rules()
	resp := CohortsListResponse{
		Cohorts:  make([]CohortResponse, 0, len(rules)),
		Fallback: cohortResponse(s.engine.Fallback()),
	}
	for _, rule := range rules {
		resp.Cohorts = append(resp.Cohorts, cohortResponse(rule))
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleMatchCohort resolves a profile to its cohort; ?view=xgboost selects the explainer narrative
func (s *Server) handleMatchCohort(w http.ResponseWriter, r *http.Request) {
	view := chat.ViewTree
	if v := r.URL.Query().Get("view"); v != "" {
		parsed, err := chat.ParseView(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid view", err)
			return
		}
		view = parsed
	}

	p, ok := decodePassenger(w, r)
	if !ok {
		return
	}

	m := s.engine.Match(p)
	respondJSON(w, http.StatusOK, CohortMatchResponse{
		Cohort:      m.Name(),
		Fallback:    m.Fallback,
		Description: passenger.Describe(p),
		Narrative:   chat.Render(p, m, view),
	})
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, PresetsListResponse{Presets: passenger.Presets})
}

func (s *Server) handleListFares(w http.ResponseWriter, r *http.Request) {
	resp := FaresResponse{Fares: make([]ClassFareResponse, 0, len(passenger.Classes))}
	for _, c := range passenger.Classes {
		avg, _ := passenger.ClassFare(c)
		span, _ := passenger.TypicalFareRange(c)
		resp.Fares = append(resp.Fares, ClassFareResponse{
			Pclass:      int(c),
			Label:       span.Label,
			AverageFare: avg,
			MinFare:     span.Min,
			MaxFare:     span.Max,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// Schema handler: the JSON schema of a request or response body
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var schema *jsonschema.Schema
	switch name {
	case "profile":
		schema = inlineSchema(&PassengerRequest{})
	case "message":
		schema = inlineSchema(&MessageRequest{})
	case "view":
		schema = inlineSchema(&ViewRequest{})
	case "tree":
		// tree nodes nest, so they need $ref definitions
		reflector := jsonschema.Reflector{AllowAdditionalProperties: false}
		schema = reflector.Reflect(&tree.NodeDocument{})
	default:
		respondError(w, http.StatusNotFound, "schema not found", fmt.Errorf("unknown schema %q", name))
		return
	}

	obj, err := schemaToMap(schema)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render schema", err)
		return
	}

	respondJSON(w, http.StatusOK, obj)
}

func inlineSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	return reflector.Reflect(v)
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
