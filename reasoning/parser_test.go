package reasoning

import (
	"testing"

	"github.com/askrepo/askrepo/reasoning/models"
	"github.com/stretchr/testify/assert"
)

func TestParseClassification_WellFormed(t *testing.T) {
	classification := ParseClassification(`{"action": "DIRECT", "reason": "general question"}`)

	assert.Equal(t, models.ActionDirect, classification.Action)
	assert.Equal(t, "general question", classification.Reason)
}

func TestParseClassification_JSONInsideProse(t *testing.T) {
	response := "Sure! Here is my decision:\n```json\n{\"action\": \"use_memory\", \"reason\": \"follow-up\"}\n```"

	classification := ParseClassification(response)

	assert.Equal(t, models.ActionUseMemory, classification.Action)
}

func TestParseClassification_KeywordFallback(t *testing.T) {
	classification := ParseClassification("The query should be answered with USE_MEMORY.")

	assert.Equal(t, models.ActionUseMemory, classification.Action)
}

func TestParseClassification_GarbageDefaultsToSearch(t *testing.T) {
	classification := ParseClassification("I am not sure what you mean.")

	assert.Equal(t, models.ActionSearchCode, classification.Action)
}

func TestParseSelection_ClampsToThreeFiles(t *testing.T) {
	response := `{"files": ["a.go", "b.go", "c.go", "d.go", "e.go"], "reasoning": "all of them", "sufficient": false}`

	selection := ParseSelection(response)

	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, selection.Files)
	assert.False(t, selection.Sufficient)
}

func TestParseSelection_DropsBlankPaths(t *testing.T) {
	selection := ParseSelection(`{"files": ["a.go", "", "  "], "sufficient": false}`)

	assert.Equal(t, []string{"a.go"}, selection.Files)
}

func TestParseSelection_GarbageIsSufficientAndEmpty(t *testing.T) {
	selection := ParseSelection("no JSON here at all")

	assert.Empty(t, selection.Files)
	assert.True(t, selection.Sufficient)
}

func TestParseAssessment_WellFormed(t *testing.T) {
	assessment := ParseAssessment(`{"confidence": "HIGH", "reason": "covers everything", "suggestion": null}`)

	assert.Equal(t, models.ConfidenceHigh, assessment.Confidence)
	assert.Empty(t, assessment.Suggestion)
}

func TestParseAssessment_LowercaseConfidence(t *testing.T) {
	assessment := ParseAssessment(`{"confidence": "medium", "reason": "partial"}`)

	assert.Equal(t, models.ConfidenceMedium, assessment.Confidence)
}

func TestParseAssessment_UnknownGradesLow(t *testing.T) {
	assessment := ParseAssessment(`{"confidence": "VERY_SURE", "reason": "?"}`)

	assert.Equal(t, models.ConfidenceLow, assessment.Confidence)
}

func TestParseAssessment_GarbageGradesLow(t *testing.T) {
	assessment := ParseAssessment("completely garbled output")

	assert.Equal(t, models.ConfidenceLow, assessment.Confidence)
}
