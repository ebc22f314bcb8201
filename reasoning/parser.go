package reasoning

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/askrepo/askrepo/reasoning/models"
)

// Small models wrap JSON in prose or code fences, so parsing is defensive:
// extract the first JSON object, fall back to keyword scanning, and degrade
// to the safest value when nothing parses.

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func extractJSONObject(response string) (string, bool) {
	match := jsonObjectPattern.FindString(response)
	return match, match != ""
}

// ParseClassification reads the routing decision. An unparseable response
// falls back to keyword scanning; the final default is SEARCH_CODE, the only
// route that can still reach the evidence.
func ParseClassification(response string) models.Classification {
	if raw, ok := extractJSONObject(response); ok {
		var classification models.Classification
		if err := json.Unmarshal([]byte(raw), &classification); err == nil {
			classification.Action = models.QueryAction(strings.ToUpper(strings.TrimSpace(string(classification.Action))))
			switch classification.Action {
			case models.ActionSearchCode, models.ActionUseMemory, models.ActionDirect:
				return classification
			}
		}
	}

	upper := strings.ToUpper(response)
	switch {
	case strings.Contains(upper, string(models.ActionUseMemory)):
		return models.Classification{Action: models.ActionUseMemory}
	case strings.Contains(upper, string(models.ActionDirect)):
		return models.Classification{Action: models.ActionDirect}
	default:
		return models.Classification{Action: models.ActionSearchCode}
	}
}

// ParseSelection reads one file-selection round, clamping the pick list to
// MaxFilesPerSelection. An unparseable response yields an empty, sufficient
// selection so the loop moves on instead of spinning.
func ParseSelection(response string) models.Selection {
	raw, ok := extractJSONObject(response)
	if !ok {
		return models.Selection{Sufficient: true}
	}

	var selection models.Selection
	if err := json.Unmarshal([]byte(raw), &selection); err != nil {
		return models.Selection{Sufficient: true}
	}

	cleaned := selection.Files[:0]
	for _, path := range selection.Files {
		path = strings.TrimSpace(path)
		if path != "" {
			cleaned = append(cleaned, path)
		}
	}
	selection.Files = cleaned

	if len(selection.Files) > MaxFilesPerSelection {
		selection.Files = selection.Files[:MaxFilesPerSelection]
	}
	return selection
}

// ParseAssessment reads the confidence grade. Anything unparseable or
// unrecognized grades LOW, so a garbled response can never stop the loop
// early with false confidence.
func ParseAssessment(response string) models.Assessment {
	if raw, ok := extractJSONObject(response); ok {
		var assessment models.Assessment
		if err := json.Unmarshal([]byte(raw), &assessment); err == nil {
			assessment.Confidence = models.Confidence(strings.ToUpper(strings.TrimSpace(string(assessment.Confidence))))
			switch assessment.Confidence {
			case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
				return assessment
			}
		}
	}

	upper := strings.ToUpper(response)
	switch {
	case strings.Contains(upper, string(models.ConfidenceHigh)):
		return models.Assessment{Confidence: models.ConfidenceHigh}
	case strings.Contains(upper, string(models.ConfidenceMedium)):
		return models.Assessment{Confidence: models.ConfidenceMedium}
	default:
		return models.Assessment{Confidence: models.ConfidenceLow}
	}
}
