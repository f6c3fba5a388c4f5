package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/liamcoop/titanic-whatif/chat"
	"github.com/liamcoop/titanic-whatif/cohorts"
	"github.com/liamcoop/titanic-whatif/internal/logger"
	"github.com/liamcoop/titanic-whatif/models"
	"github.com/liamcoop/titanic-whatif/passenger"
	"github.com/liamcoop/titanic-whatif/query"
)

type options struct {
	modelPath   string
	databaseURL string
}

func (o *options) engine(ctx context.Context) (*cohorts.Engine, func(), error) {
	if o.databaseURL == "" {
		engine, err := cohorts.NewEngine(ctx, cohorts.NewDefaultRuleStore())
		return engine, func() {}, err
	}

	db, err := sql.Open("postgres", o.databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	engine, err := cohorts.NewEngine(ctx, cohorts.NewPostgresRuleStore(db))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return engine, func() { db.Close() }, nil
}

func askCmd(opts *options) *cobra.Command {
	var view string
	var withPath bool

	cmd := &cobra.Command{
		Use:   "ask QUERY...",
		Short: "parse a question about a passenger and answer with the matching cohort",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			v, err := chat.ParseView(view)
			if err != nil {
				return err
			}

			p, ok := query.Parse(strings.Join(args, " "))
			if !ok {
				fmt.Fprintln(out, chat.GuidanceMessage)
				return nil
			}

			engine, closeFn, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			m := engine.Match(p)
			name := m.Name()
			if m.Fallback {
				name = "(none)"
			}
			fmt.Fprintf(out, "passenger: %s\ncohort:    %s\n\n%s\n", passenger.Describe(p), name, chat.Render(p, m, v))

			if withPath {
				dt, err := models.LoadDecisionTree(opts.modelPath, "")
				if err != nil {
					return err
				}
				pred, err := dt.Tree.Predict(p)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\ntree: %s (p=%.3f) via %s\n", pred.PredictionLabel, pred.ProbabilitySurvived, formatPath(pred.PathNodes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", string(chat.ViewTree), "narrative to use: tree or xgboost")
	cmd.Flags().BoolVar(&withPath, "path", false, "also trace the passenger through the decision tree")

	return cmd
}

func traceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trace SEX PCLASS AGE FARE",
		Short: "trace a passenger through the decision tree (sex: 0 female, 1 male)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProfile(args)
			if err != nil {
				return err
			}

			dt, err := models.LoadDecisionTree(opts.modelPath, "")
			if err != nil {
				return err
			}

			pred, err := dt.Tree.Predict(p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "passenger:  %s\n", passenger.Describe(p))
			for _, id := range pred.PathNodes {
				node, _ := dt.Tree.Node(id)
				fmt.Fprintf(out, "  [%2d] %s\n", id, node.Description())
			}
			fmt.Fprintf(out, "prediction: %s (survival probability %.3f, leaf %d)\n",
				pred.PredictionLabel, pred.ProbabilitySurvived, pred.LeafNodeID)
			return nil
		},
	}
}

func treeCmd(opts *options) *cobra.Command {
	var testData string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "print the converted decision tree as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := models.LoadDecisionTree(opts.modelPath, testData)
			if err != nil {
				return err
			}

			doc := map[string]any{
				"tree":          dt.Tree.Document(),
				"feature_names": dt.Tree.FeatureNames,
			}
			if dt.Metrics != nil {
				doc["model_metrics"] = dt.Metrics
			}
			return writeJSON(cmd.OutOrStdout(), doc)
		},
	}

	cmd.Flags().StringVar(&testData, "test-data", "", "labelled CSV to score the tree against")

	return cmd
}

func cohortsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cohorts",
		Short: "list the cohort rules in matching order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, closeFn, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			for _, rule := range engine.Rules() {
				fmt.Fprintf(out, "%-18s %d  %s\n", rule.Name, rule.Priority, rule.Expression())
			}
			return nil
		},
	}
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list the preset scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range passenger.Presets {
				fmt.Fprintf(out, "%-18s %-30s %s\n", p.Key, p.Label, passenger.Describe(p.Profile))
			}
			return nil
		},
	}
}

func parseProfile(args []string) (passenger.Profile, error) {
	var values [4]float64
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return passenger.Profile{}, fmt.Errorf("invalid %s %q: %w", passenger.FeatureNames[i], arg, err)
		}
		values[i] = v
	}

	p := passenger.Profile{
		Sex:    passenger.Sex(int(values[0])),
		Pclass: passenger.Class(int(values[1])),
		Age:    values[2],
		Fare:   values[3],
	}
	if float64(int(values[0])) != values[0] || float64(int(values[1])) != values[1] {
		return passenger.Profile{}, fmt.Errorf("sex and pclass must be whole numbers")
	}
	return p, passenger.Validate(p)
}

func formatPath(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " → ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "whatif",
		Short:         "explore Titanic survival what-if scenarios from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.modelPath, "model", "data/titanic_tree.json", "exported decision tree")
	rootCmd.PersistentFlags().StringVar(&opts.databaseURL, "database", os.Getenv("DATABASE_URL"), "load cohorts from Postgres instead of the built-in table")

	rootCmd.AddCommand(askCmd(opts))
	rootCmd.AddCommand(traceCmd(opts))
	rootCmd.AddCommand(treeCmd(opts))
	rootCmd.AddCommand(cohortsCmd(opts))
	rootCmd.AddCommand(presetsCmd())

	return rootCmd
}

func main() {
	fail(newRootCmd().Execute())
}

func fail(err error) {
	if err != nil {
		logger.Fatal("whatif failed", "error", err)
	}
}
