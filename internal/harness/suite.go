package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path         string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q does not exist (resolved to: %s)", e.Path, e.ResolvedPath)
}

// ExtractScenarios expands paths into scenario files.
// Directories contribute their *.yaml and *.yml files in name order; files
// are taken as given. Relative paths resolve against baseDir.
func ExtractScenarios(paths []string, baseDir string) ([]string, error) {
	var files []string
	for _, path := range paths {
		resolved := path
		if !filepath.IsAbs(resolved) && baseDir != "" {
			resolved = filepath.Join(baseDir, resolved)
		}

		info, err := os.Stat(resolved)
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Path: path, ResolvedPath: resolved}
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", resolved, err)
		}
		if !info.IsDir() {
			files = append(files, resolved)
			continue
		}

		entries, err := os.ReadDir(resolved)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", resolved, err)
		}
		var found []string
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(resolved, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// SuiteResult summarizes a batch of scenario runs.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
	Results  []ScenarioOutcome `json:"results"`
}

// ScenarioFailure describes one failed scenario.
type ScenarioFailure struct {
	Scenario string `json:"scenario"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// ScenarioOutcome pairs a scenario with its result.
// Result is nil when the scenario could not be loaded or executed.
type ScenarioOutcome struct {
	Scenario string  `json:"scenario"`
	Path     string  `json:"path"`
	Result   *Result `json:"result,omitempty"`
}

// RunFiles loads and runs each scenario file.
//
// For each file:
// 1. Load the scenario, resolving table paths against the file's directory
// 2. Run it
// 3. Collect the outcome
//
// Load and execution failures are collected, not returned; the error is
// reserved for inputs that prevent the batch from running at all.
func (h *Harness) RunFiles(paths []string) (*SuiteResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files")
	}

	suite := &SuiteResult{Results: []ScenarioOutcome{}}
	for _, path := range paths {
		suite.Total++
		outcome := ScenarioOutcome{Path: path}

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.fail(outcome, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}
		outcome.Scenario = scenario.Name

		result, err := h.Run(scenario)
		if err != nil {
			suite.fail(outcome, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		outcome.Result = result

		if !result.Pass {
			suite.fail(outcome, fmt.Sprintf("scenario assertions failed: %s", strings.Join(result.Errors, "; ")))
			continue
		}

		suite.Passed++
		suite.Results = append(suite.Results, outcome)
	}
	return suite, nil
}

func (s *SuiteResult) fail(outcome ScenarioOutcome, msg string) {
	s.Failed++
	s.Results = append(s.Results, outcome)
	s.Failures = append(s.Failures, ScenarioFailure{
		Scenario: outcome.Scenario,
		Path:     outcome.Path,
		Error:    msg,
	})
}
