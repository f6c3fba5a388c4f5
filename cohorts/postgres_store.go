package cohorts

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/lib/pq"

	"github.com/liamcoop/titanic-whatif/passenger"
)

// PostgresRuleStore implements RuleStore backed by the cohort_rules table.
// The table is configuration: it is seeded by migrations and only ever read here.
type PostgresRuleStore struct {
	db *sql.DB
}

// NewPostgresRuleStore creates a new PostgreSQL-backed RuleStore
func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

// List returns all active cohort rules ordered by their registration position
func (s *PostgresRuleStore) List(ctx context.Context) ([]*Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, priority, sex, pclass, age_min, age_max, condition,
		       narrative, explainer_narrative
		FROM cohort_rules
		WHERE active = true
		ORDER BY position ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cohort rules: %w", err)
	}
	defer rows.Close()

	var rulesList []*Rule
	for rows.Next() {
		var (
			r              Rule
			sex, pclass    sql.NullInt64
			ageMin, ageMax sql.NullFloat64
			condition      sql.NullString
		)
		if err := rows.Scan(&r.Name, &r.Priority, &sex, &pclass, &ageMin, &ageMax, &condition,
			&r.Narrative, &r.ExplainerNarrative); err != nil {
			return nil, fmt.Errorf("failed to scan cohort rule: %w", err)
		}

		if sex.Valid {
			r.Criteria = append(r.Criteria, Exact{Field: passenger.FeatureSex, Value: float64(sex.Int64)})
		}
		if pclass.Valid {
			r.Criteria = append(r.Criteria, Exact{Field: passenger.FeaturePclass, Value: float64(pclass.Int64)})
		}
		if ageMin.Valid || ageMax.Valid {
			// an open end of the age range is unbounded
			ageRange := Range{Field: passenger.FeatureAge, Min: 0, Max: math.MaxFloat64}
			if ageMin.Valid {
				ageRange.Min = ageMin.Float64
			}
			if ageMax.Valid {
				ageRange.Max = ageMax.Float64
			}
			r.Criteria = append(r.Criteria, ageRange)
		}
		if condition.Valid && condition.String != "" {
			r.Criteria = append(r.Criteria, Expr{Source: condition.String})
		}

		rulesList = append(rulesList, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cohort rules: %w", err)
	}

	return rulesList, nil
}
