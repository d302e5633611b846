package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SynthesizedAnswer is the final artifact of a question round trip: prose,
// plus a chart spec when the model suggested one that survived validation.
type SynthesizedAnswer struct {
	Text    string
	Chart   *ChartSpec // nil when no chart was suggested or it failed validation
	Warning string     // non-empty when a suggested chart was rejected
}

type answerVisualization struct {
	ChartType *string `json:"chart_type"`
	Labels    *string `json:"labels"`
	Values    *string `json:"values"`
}

type answerResult struct {
	Answer        string              `json:"answer"`
	Visualization answerVisualization `json:"visualization"`
}

// AnswerSynthesizer turns a query result back into prose, with an optional
// chart suggestion validated against the result's columns.
type AnswerSynthesizer struct {
	client *GeminiClient
}

// NewAnswerSynthesizer builds the second-stage synthesizer.
func NewAnswerSynthesizer(client *GeminiClient) *AnswerSynthesizer {
	return &AnswerSynthesizer{client: client}
}

// Synthesize sends the serialized rows and the original question to the
// model and parses the structured answer. A suggested chart is accepted
// only when its kind is set and both named columns exist in the result;
// otherwise the chart is dropped with a warning and the prose survives.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, question string, result *QueryResult) (*SynthesizedAnswer, error) {
	rowsJSON, err := json.MarshalIndent(result.Rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query result: %w", err)
	}

	responseText, err := s.client.Generate(ctx, buildAnswerPrompt(question, string(rowsJSON)), answerResponseSchema())
	if err != nil {
		return nil, err
	}

	parsed, err := parseAnswer(responseText)
	if err != nil {
		return nil, err
	}

	answer := &SynthesizedAnswer{Text: strings.TrimSpace(parsed.Answer)}
	answer.Chart, answer.Warning = validateChart(result, parsed.Visualization)

	if logger != nil {
		logger.Info("Answer synthesized", "question", truncateString(question, 150),
			"has_chart", answer.Chart != nil, "rows", result.Len())
	}
	return answer, nil
}

func buildAnswerPrompt(question, rowsJSON string) string {
	return fmt.Sprintf(`You are an AI data analyst explaining query results to an e-commerce seller.

**Original Question:** "%s"

**Query Result (JSON rows):**
%s

**Task:** Answer the question in plain prose using only the data above, quoting the key numbers. Suggest a chart when the data suits one.

**Response Format (JSON only):**
{
  "answer": "plain prose answer",
  "visualization": {
    "chart_type": "bar, line, pie or doughnut - null when no chart fits",
    "labels": "result column to use for labels - null when no chart fits",
    "values": "result column to use for values - null when no chart fits"
  }
}

**Rules:**
- "answer" is plain text, no markdown tables
- "labels" and "values" must be column names that appear in the query result
- A single-number result needs no chart: set every visualization field to null

Return ONLY JSON, no other text.`, question, rowsJSON)
}

// answerResponseSchema constrains the response to the answer object shape.
func answerResponseSchema() *responseSchema {
	return &responseSchema{
		Type: "OBJECT",
		Properties: map[string]*responseSchema{
			"answer": {Type: "STRING"},
			"visualization": {
				Type: "OBJECT",
				Properties: map[string]*responseSchema{
					"chart_type": {Type: "STRING", Nullable: true},
					"labels":     {Type: "STRING", Nullable: true},
					"values":     {Type: "STRING", Nullable: true},
				},
				PropertyOrdering: []string{"chart_type", "labels", "values"},
			},
		},
		Required:         []string{"answer", "visualization"},
		PropertyOrdering: []string{"answer", "visualization"},
	}
}

// parseAnswer decodes the structured answer response.
func parseAnswer(responseText string) (*answerResult, error) {
	if strings.TrimSpace(responseText) == "" {
		return nil, &SynthesisError{Kind: EmptyResponse, Err: fmt.Errorf("model returned empty text")}
	}

	var parsed answerResult
	if err := json.Unmarshal([]byte(unfenceJSON(responseText)), &parsed); err != nil {
		if logger != nil {
			logger.Error("Failed to parse answer response as JSON",
				"error", err, "response_preview", truncateString(responseText, 200))
		}
		return nil, &SynthesisError{Kind: MalformedResponse,
			Err: fmt.Errorf("failed to parse answer response: %w", err)}
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return nil, &SynthesisError{Kind: MalformedResponse,
			Err: fmt.Errorf("answer field missing from response")}
	}
	return &parsed, nil
}

// validateChart applies the acceptance gate to a chart suggestion. No
// suggestion at all (null chart_type) is fine and carries no warning; a
// suggestion naming columns the result does not have is dropped with one.
func validateChart(result *QueryResult, viz answerVisualization) (*ChartSpec, string) {
	kind := ""
	if viz.ChartType != nil {
		kind = strings.ToLower(strings.TrimSpace(*viz.ChartType))
	}
	if kind == "" || kind == "null" || kind == "none" {
		return nil, ""
	}

	labels := ""
	if viz.Labels != nil {
		labels = strings.TrimSpace(*viz.Labels)
	}
	values := ""
	if viz.Values != nil {
		values = strings.TrimSpace(*viz.Values)
	}
	if labels == "" || values == "" {
		return nil, fmt.Sprintf("Chart suggestion dropped: %s chart did not name both a label and a value column.", kind)
	}

	hasColumn := func(name string) bool {
		for _, col := range result.Columns {
			if col == name {
				return true
			}
		}
		return false
	}
	if !hasColumn(labels) || !hasColumn(values) {
		if logger != nil {
			logger.Warn("Suggested chart references missing columns",
				"chart_type", kind, "labels", labels, "values", values)
		}
		return nil, fmt.Sprintf("Chart suggestion dropped: columns %q and %q are not both present in the result.", labels, values)
	}

	return &ChartSpec{Kind: kind, LabelColumn: labels, ValueColumn: values}, ""
}
