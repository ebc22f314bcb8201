package models

import reasoning_models "github.com/askrepo/askrepo/reasoning/models"

// Result is the outcome of one query run. AnalyzedFiles lists the paths
// whose content backed the answer; FailedPaths lists selected paths that
// could not be read.
type Result struct {
	Action        reasoning_models.QueryAction
	Answer        string
	AnalyzedFiles []string
	FailedPaths   []string
	Iterations    int
	Confidence    reasoning_models.Confidence
}
