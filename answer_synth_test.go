package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

// TestAnswerSynthesizeProse tests a single-number answer without a chart
func TestAnswerSynthesizeProse(t *testing.T) {
	f := newFakeGemini(t)
	f.queueText(`{"answer": "Your total ad spend across all products is 1234.5.", "visualization": {"chart_type": null, "labels": null, "values": null}}`)

	result := MockResult([]string{"total_spend"}, []interface{}{1234.5})
	synth := NewAnswerSynthesizer(f.client(t))

	got, err := synth.Synthesize(context.Background(), "What is my total ad spend?", result)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if !strings.Contains(got.Text, "1234.5") {
		t.Errorf("Expected the key number in the answer, got %q", got.Text)
	}
	if got.Chart != nil {
		t.Error("Expected no chart for a single-number result")
	}
	if got.Warning != "" {
		t.Errorf("Expected no warning, got %q", got.Warning)
	}

	prompt := f.lastPrompt()
	if !strings.Contains(prompt, `"What is my total ad spend?"`) {
		t.Error("Expected the quoted question in the prompt")
	}
	if !strings.Contains(prompt, "total_spend") {
		t.Error("Expected the serialized rows in the prompt")
	}
}

// TestAnswerSynthesizeWithChart tests an accepted chart suggestion
func TestAnswerSynthesizeWithChart(t *testing.T) {
	f := newFakeGemini(t)
	f.queueText(`{"answer": "Item 23 has the highest CPC at 2.42.", "visualization": {"chart_type": "bar", "labels": "item_id", "values": "cpc"}}`)

	result := MockResult([]string{"item_id", "cpc"},
		[]interface{}{int64(11), 1.63},
		[]interface{}{int64(23), 2.42},
		[]interface{}{int64(42), 1.95},
	)
	synth := NewAnswerSynthesizer(f.client(t))

	got, err := synth.Synthesize(context.Background(), "Which item had the highest CPC?", result)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if got.Chart == nil {
		t.Fatal("Expected a chart spec")
	}
	if got.Chart.Kind != "bar" {
		t.Errorf("Expected bar chart, got %q", got.Chart.Kind)
	}
	if got.Chart.LabelColumn != "item_id" || got.Chart.ValueColumn != "cpc" {
		t.Errorf("Expected item_id/cpc columns, got %s/%s", got.Chart.LabelColumn, got.Chart.ValueColumn)
	}
	if got.Warning != "" {
		t.Errorf("Expected no warning, got %q", got.Warning)
	}
}

// TestAnswerChartDowngrade tests that a bad chart suggestion keeps the
// prose and drops the chart with a warning
func TestAnswerChartDowngrade(t *testing.T) {
	f := newFakeGemini(t)
	f.queueText(`{"answer": "Spend varies by day.", "visualization": {"chart_type": "bar", "labels": "day", "values": "spend"}}`)

	result := MockResult([]string{"date", "ad_spend"},
		[]interface{}{"2024-06-01", 200.0},
	)
	synth := NewAnswerSynthesizer(f.client(t))

	got, err := synth.Synthesize(context.Background(), "How does spend vary?", result)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if got.Text != "Spend varies by day." {
		t.Errorf("Expected prose to survive, got %q", got.Text)
	}
	if got.Chart != nil {
		t.Error("Expected the chart suggestion to be dropped")
	}
	if !strings.Contains(got.Warning, "not both present") {
		t.Errorf("Expected a missing-columns warning, got %q", got.Warning)
	}
}

// TestParseAnswerFailures tests malformed answer responses
func TestParseAnswerFailures(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		kind     SynthesisErrorKind
	}{
		{name: "Empty text", response: "", kind: EmptyResponse},
		{name: "Plain prose", response: "here is your answer", kind: MalformedResponse},
		{name: "Missing answer field", response: `{"visualization": {"chart_type": null, "labels": null, "values": null}}`, kind: MalformedResponse},
		{name: "Blank answer field", response: `{"answer": "  ", "visualization": {"chart_type": null, "labels": null, "values": null}}`, kind: MalformedResponse},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseAnswer(tc.response)
			if err == nil {
				t.Fatal("Expected parseAnswer to fail")
			}

			var synthErr *SynthesisError
			if !errors.As(err, &synthErr) {
				t.Fatalf("Expected SynthesisError, got %T", err)
			}
			if synthErr.Kind != tc.kind {
				t.Errorf("Expected %s kind, got %s", tc.kind, synthErr.Kind)
			}
		})
	}
}

// TestParseAnswerFenced tests that fenced answer JSON still parses
func TestParseAnswerFenced(t *testing.T) {
	got, err := parseAnswer("```json\n{\"answer\": \"fine\", \"visualization\": {\"chart_type\": null, \"labels\": null, \"values\": null}}\n```")
	if err != nil {
		t.Fatalf("parseAnswer failed: %v", err)
	}
	if got.Answer != "fine" {
		t.Errorf("Expected answer 'fine', got %q", got.Answer)
	}
}

// TestValidateChart tests the chart acceptance gate
func TestValidateChart(t *testing.T) {
	result := MockResult([]string{"item_id", "cpc"},
		[]interface{}{int64(11), 1.63},
	)

	testCases := []struct {
		name        string
		viz         answerVisualization
		expectChart bool
		warnPart    string
	}{
		{
			name: "Valid suggestion",
			viz: answerVisualization{
				ChartType: strPtr("bar"), Labels: strPtr("item_id"), Values: strPtr("cpc"),
			},
			expectChart: true,
		},
		{
			name: "Kind normalized to lowercase",
			viz: answerVisualization{
				ChartType: strPtr("  Pie "), Labels: strPtr("item_id"), Values: strPtr("cpc"),
			},
			expectChart: true,
		},
		{
			name: "Null chart type is no suggestion",
			viz:  answerVisualization{},
		},
		{
			name: "Literal null string is no suggestion",
			viz:  answerVisualization{ChartType: strPtr("null")},
		},
		{
			name:     "Missing value column name",
			viz:      answerVisualization{ChartType: strPtr("bar"), Labels: strPtr("item_id")},
			warnPart: "did not name both",
		},
		{
			name: "Unknown columns",
			viz: answerVisualization{
				ChartType: strPtr("bar"), Labels: strPtr("product"), Values: strPtr("cost"),
			},
			warnPart: "not both present",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec, warning := validateChart(result, tc.viz)

			if tc.expectChart {
				if spec == nil {
					t.Fatal("Expected a chart spec")
				}
				if warning != "" {
					t.Errorf("Expected no warning, got %q", warning)
				}
				return
			}

			if spec != nil {
				t.Errorf("Expected no chart spec, got %+v", spec)
			}
			if tc.warnPart == "" && warning != "" {
				t.Errorf("Expected silence, got warning %q", warning)
			}
			if tc.warnPart != "" && !strings.Contains(warning, tc.warnPart) {
				t.Errorf("Expected warning containing %q, got %q", tc.warnPart, warning)
			}
		})
	}
}
