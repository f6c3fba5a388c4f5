//go:build integration
// +build integration

package cohorts_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/liamcoop/titanic-whatif/cohorts"
	"github.com/liamcoop/titanic-whatif/passenger"

	_ "github.com/lib/pq"
)

// setupTestDB creates a PostgreSQL container with the cohort table migrated and seeded
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "cohorts_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=test password=test dbname=cohorts_test sslmode=disable", host, port.Port())

	var db *sql.DB
	for i := 0; i < 30; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	migrationSQL, err := os.ReadFile(filepath.Join("..", "migrations", "000001_cohort_rules.up.sql"))
	if err != nil {
		t.Fatalf("Failed to read migration file: %v", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		postgresContainer.Terminate(ctx)
	}

	return db, cleanup
}

// TestPostgresRuleStoreMatchesDefaults verifies the seeded table is equivalent to the built-in one
func TestPostgresRuleStoreMatchesDefaults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	rules, err := cohorts.NewPostgresRuleStore(db).List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	defaults := cohorts.DefaultRules()
	if len(rules) != len(defaults) {
		t.Fatalf("List() returned %d rules, want %d", len(rules), len(defaults))
	}
	for i, want := range defaults {
		got := rules[i]
		if got.Name != want.Name || got.Priority != want.Priority {
			t.Errorf("rule %d = %s/%d, want %s/%d", i, got.Name, got.Priority, want.Name, want.Priority)
		}
		if got.Narrative != want.Narrative || got.ExplainerNarrative != want.ExplainerNarrative {
			t.Errorf("rule %s narratives differ from the built-in table", got.Name)
		}
	}

	fromDB, err := cohorts.NewEngine(ctx, cohorts.NewPostgresRuleStore(db))
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	builtIn, err := cohorts.NewEngine(ctx, cohorts.NewDefaultRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	for _, sex := range []passenger.Sex{passenger.Female, passenger.Male} {
		for class := passenger.FirstClass; class <= passenger.ThirdClass; class++ {
			for _, age := range []float64{0, 12, 13, 40, 80} {
				p := passenger.Profile{Sex: sex, Pclass: class, Age: age, Fare: 20}
				if a, b := fromDB.Match(p).Name(), builtIn.Match(p).Name(); a != b {
					t.Errorf("Match(%+v): postgres table = %s, built-in = %s", p, a, b)
				}
			}
		}
	}
}

// TestPostgresRuleStoreCondition verifies inactive rows are skipped and conditions load as CEL
func TestPostgresRuleStoreCondition(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.Exec(`
		INSERT INTO cohort_rules (name, position, priority, condition, narrative, explainer_narrative, active)
		VALUES ('big_spender', 7, 10, 'Passenger.fare > 100.0', 'Paid over £100.', 'Paid over £100: {passenger_desc}.', true),
		       ('retired', 8, 10, NULL, 'Retired.', 'Retired.', false)
	`)
	if err != nil {
		t.Fatalf("Failed to insert rules: %v", err)
	}

	engine, err := cohorts.NewEngine(context.Background(), cohorts.NewPostgresRuleStore(db))
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	if n := len(engine.Rules()); n != 7 {
		t.Errorf("engine has %d rules, want 7", n)
	}

	p := passenger.Profile{Sex: passenger.Male, Pclass: 3, Age: 40, Fare: 150}
	if got := engine.Match(p).Name(); got != "big_spender" {
		t.Errorf("Match(fare=150) = %s, want big_spender", got)
	}
}
