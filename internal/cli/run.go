package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/ontostore/internal/harness"
	"github.com/roach88/ontostore/internal/journal"
	"github.com/roach88/ontostore/internal/metrics"
	"github.com/roach88/ontostore/internal/notify"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Update  bool   // regenerate golden files
	Filter  string // scenario filter (glob pattern)
	Journal string // journal path; empty disables journaling
	Metrics string // metrics dump path; "-" for stderr
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Pass    bool     `json:"pass"`
	Changes int      `json:"changes"`
	Session string   `json:"session,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// RunResult holds the overall run result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
	Journal   string           `json:"journal,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario|dir>...",
		Short: "Run store scenarios",
		Long: `Run YAML store scenarios against fresh stores.

Each scenario's flow is executed and its assertions evaluated. When a
golden file exists at <scenario-dir>/golden/<name>.golden, the trace must
match it byte for byte.

With --journal, every delivered change is recorded into a SQLite journal,
one session per scenario. The default comes from ONTOSTORE_JOURNAL.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unwritable journal, etc.)

Examples:
  ontostore run ./scenarios
  ontostore run ./scenarios --filter "effect_*"
  ontostore run ./scenarios --update
  ontostore run ./scenarios --journal ./runs.db --metrics -`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("journal") {
				opts.Journal = opts.Config.Journal
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record deliveries into a SQLite journal")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "write a metrics dump to a file (- for stderr)")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	files, err := harness.ExtractScenarios(paths, "")
	if err != nil {
		var notFound *harness.ScenarioNotFoundError
		if errors.As(err, &notFound) {
			return NewExitError(ExitCommandError, notFound.Error())
		}
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	files, err = filterScenarioFiles(files, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
		Journal:   opts.Journal,
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	if len(files) == 0 {
		return formatter.Success(result, func(w io.Writer) {
			fmt.Fprintln(w, "No scenarios found.")
		})
	}

	hopts := []harness.Option{harness.WithLogger(opts.Logger)}

	// sessions maps scenario names to the journal session opened for them.
	sessions := make(map[string]string)
	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()

		ctx := cmd.Context()
		hopts = append(hopts, harness.WithSinkFactory(func(scenario, schemaHash string) (notify.Handler, error) {
			s, err := j.BeginSession(ctx, schemaHash, scenario)
			if err != nil {
				return nil, err
			}
			sessions[scenario] = s.ID()
			return s.Handler(ctx), nil
		}))
	}

	var registry *prometheus.Registry
	if opts.Metrics != "" {
		registry = prometheus.NewRegistry()
		hopts = append(hopts, harness.WithMetrics(metrics.New(registry)))
	}

	h := harness.New(hopts...)
	for _, file := range files {
		scenResult := runScenario(h, file, opts, cmd)
		scenResult.Session = sessions[scenResult.Name]
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if registry != nil {
		if err := writeMetrics(cmd, registry, opts.Metrics); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	return reportRun(formatter, result)
}

// filterScenarioFiles keeps files whose base name without extension
// matches the glob pattern. An empty pattern keeps everything.
func filterScenarioFiles(files []string, pattern string) ([]string, error) {
	if pattern == "" {
		return files, nil
	}
	var kept []string
	for _, file := range files {
		base := filepath.Base(file)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			kept = append(kept, file)
		}
	}
	return kept, nil
}

// runScenario executes a single scenario and returns the result.
func runScenario(h *harness.Harness, scenarioFile string, opts *RunOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, errs ...string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: name, Path: scenarioFile, Errors: errs}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return fail(filepath.Base(scenarioFile), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := h.Run(scenario)
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}
	changes := len(result.Changes())
	if text && opts.Verbose {
		for _, e := range result.Changes() {
			fmt.Fprintf(w, "    [%d] %s {%s}\n", e.Seq, e.Record, strings.Join(e.Properties, ", "))
		}
	}

	trace, err := harness.MarshalTrace(scenario.Name, result)
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("failed to marshal trace: %v", err))
	}
	goldenPath := goldenFilePath(scenarioFile)

	if opts.Update {
		if err := updateGoldenFile(goldenPath, trace); err != nil {
			return fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if !result.Pass {
			return fail(scenario.Name, result.Errors...)
		}
		if text {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", scenario.Name)
		}
		return ScenarioResult{Name: scenario.Name, Path: scenarioFile, Pass: true, Changes: changes}
	}

	errs := result.Errors
	golden, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// No golden file: assertions decide.
	case err != nil:
		errs = append(errs, fmt.Sprintf("golden comparison failed: %v", err))
	case !bytes.Equal(golden, trace):
		errs = append(errs, "trace does not match golden file (run with --update to regenerate)")
	}

	if len(errs) > 0 {
		r := fail(scenario.Name, errs...)
		r.Changes = changes
		return r
	}
	if text {
		fmt.Fprintf(w, "✓ %s\n", scenario.Name)
	}
	return ScenarioResult{Name: scenario.Name, Path: scenarioFile, Pass: true, Changes: changes}
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// updateGoldenFile writes the current trace as the golden file.
func updateGoldenFile(goldenPath string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, trace, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// writeMetrics dumps the run's metrics to path, or to stderr for "-" so
// JSON output on stdout stays parseable.
func writeMetrics(cmd *cobra.Command, g prometheus.Gatherer, path string) error {
	if path == "-" {
		return metrics.Dump(cmd.ErrOrStderr(), g)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := metrics.Dump(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// reportRun writes the run summary. Any failed scenario makes the command
// exit with ExitFailure after the full report is written.
func reportRun(formatter *OutputFormatter, result RunResult) error {
	if result.Failed == 0 {
		return formatter.Success(result, func(w io.Writer) {
			writeRunSummary(w, result)
			fmt.Fprintln(w, "✓ All scenarios passed")
		})
	}

	message := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if formatter.JSON() {
		if err := formatter.Failure(result, "E_RUN_FAILED", message); err != nil {
			return err
		}
	} else {
		writeRunSummary(formatter.Writer, result)
	}
	return NewExitError(ExitFailure, message)
}

func writeRunSummary(w io.Writer, result RunResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Journal != "" {
		fmt.Fprintf(w, "Journal: %s\n", result.Journal)
	}
}
