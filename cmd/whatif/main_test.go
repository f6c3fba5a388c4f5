package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/titanic-whatif/chat"
)

var testModel = filepath.Join("..", "..", "data", "titanic_tree.json")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--model", testModel))
	err := cmd.Execute()
	return out.String(), err
}

func TestAsk(t *testing.T) {
	out, err := execute(t, "ask", "what", "about", "a", "young", "boy", "in", "3rd", "--path")
	require.NoError(t, err)

	assert.Contains(t, out, "passenger: 8-year-old male in 3rd class, £13 fare")
	assert.Contains(t, out, "cohort:    third_class_male")
	assert.Contains(t, out, "Third class males had the worst odds")
	assert.Contains(t, out, "0 → 8 → 9 → 11")
}

func TestAskExplainerView(t *testing.T) {
	out, err := execute(t, "ask", "--view", "xgboost", "woman in second class")
	require.NoError(t, err)

	assert.Contains(t, out, "I'm using this passenger: 30-year-old female in 2nd class, £20 fare.")
}

func TestAskUnparsable(t *testing.T) {
	out, err := execute(t, "ask", "how cold was the water")
	require.NoError(t, err)
	assert.Equal(t, chat.GuidanceMessage+"\n", out)
}

func TestAskBadView(t *testing.T) {
	_, err := execute(t, "ask", "--view", "pie", "woman")
	assert.Error(t, err)
}

func TestTrace(t *testing.T) {
	out, err := execute(t, "trace", "1", "3", "40", "8")
	require.NoError(t, err)

	assert.Contains(t, out, "[ 0] sex ≤ 0.50")
	assert.Contains(t, out, "[16] Predict: Died")
	assert.Contains(t, out, "leaf 16")
}

func TestTraceRejectsBadProfiles(t *testing.T) {
	testCases := [][]string{
		{"2", "1", "30", "10"},
		{"0", "1.5", "30", "10"},
		{"0", "1", "old", "10"},
		{"0", "1", "30", "-5"},
	}

	for _, args := range testCases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := execute(t, append([]string{"trace"}, args...)...)
			assert.Error(t, err)
		})
	}
}

func TestTree(t *testing.T) {
	out, err := execute(t, "tree", "--test-data", filepath.Join("..", "..", "data", "titanic_test.csv"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "tree")
	assert.Contains(t, doc, "model_metrics")
	assert.Equal(t, []any{"sex", "pclass", "age", "fare"}, doc["feature_names"])
}

func TestCohorts(t *testing.T) {
	out, err := execute(t, "cohorts")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "first_class_child"))
	assert.True(t, strings.HasPrefix(lines[5], "men"))
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)

	assert.Contains(t, out, "woman_path")
	assert.Contains(t, out, "40-year-old male in 3rd class, £8 fare")
}
