package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"charm.land/fantasy"
)

// Session is the slice of the analytics session the agent tools need.
// Ask returns the answer text and the SQL the pipeline synthesized.
type Session interface {
	Ask(ctx context.Context, question string) (answer, sql string, err error)
	Query(ctx context.Context, sql string) ([]map[string]interface{}, error)
	SchemaText() string
	Status() string
}

// queryInput and askInput are the typed tool inputs; fantasy generates the
// JSON schema (property names, descriptions, required lists) from their tags.
type queryInput struct {
	SQL string `json:"sql" description:"SQL query over product_ad_sales_metrics, product_total_sales_metrics, or product_eligibility"`
}

type askInput struct {
	Question string `json:"question" description:"The question to answer from the loaded datasets"`
}

// BuildTools creates the Fantasy tools the chat agent can call.
func BuildTools(s Session) []fantasy.AgentTool {
	return []fantasy.AgentTool{
		statusTool(s),
		schemaTool(s),
		queryTool(s),
		askTool(s),
	}
}

func statusTool(s Session) fantasy.AgentTool {
	toolFunc := func(ctx context.Context, input struct{}, call fantasy.ToolCall) (fantasy.ToolResponse, error) {
		return fantasy.NewTextResponse(s.Status()), nil
	}

	return fantasy.NewAgentTool(
		"status",
		"Report which datasets are loaded and whether questions can be answered",
		toolFunc,
	)
}

func schemaTool(s Session) fantasy.AgentTool {
	toolFunc := func(ctx context.Context, input struct{}, call fantasy.ToolCall) (fantasy.ToolResponse, error) {
		return fantasy.NewTextResponse(s.SchemaText()), nil
	}

	return fantasy.NewAgentTool(
		"schema",
		"Show the tables and columns of the loaded ad and sales datasets",
		toolFunc,
	)
}

func queryTool(s Session) fantasy.AgentTool {
	toolFunc := func(ctx context.Context, input queryInput, call fantasy.ToolCall) (fantasy.ToolResponse, error) {
		sqlText := input.SQL
		if sqlText == "" {
			return fantasy.ToolResponse{}, fmt.Errorf("sql parameter is required")
		}

		rows, err := s.Query(ctx, sqlText)
		if err != nil {
			return fantasy.ToolResponse{}, fmt.Errorf("failed to execute query: %v", err)
		}

		// Convert result to JSON
		jsonBytes, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fantasy.ToolResponse{}, fmt.Errorf("failed to encode result as JSON: %v", err)
		}

		return fantasy.NewTextResponse(string(jsonBytes)), nil
	}

	return fantasy.NewAgentTool(
		"query",
		"Run a SQL query against the loaded datasets and return the rows as JSON",
		toolFunc,
	)
}

func askTool(s Session) fantasy.AgentTool {
	toolFunc := func(ctx context.Context, input askInput, call fantasy.ToolCall) (fantasy.ToolResponse, error) {
		question := input.Question
		if question == "" {
			return fantasy.ToolResponse{}, fmt.Errorf("question parameter is required")
		}

		answer, sqlText, err := s.Ask(ctx, question)
		if err != nil {
			return fantasy.ToolResponse{}, fmt.Errorf("failed to answer question: %v", err)
		}

		result := map[string]interface{}{
			"answer": answer,
		}
		if sqlText != "" {
			result["sql"] = sqlText
		}

		// Convert result to JSON
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fantasy.ToolResponse{}, fmt.Errorf("failed to encode result as JSON: %v", err)
		}

		return fantasy.NewTextResponse(string(jsonBytes)), nil
	}

	return fantasy.NewAgentTool(
		"ask",
		"Answer a natural-language question through the Gemini SQL pipeline",
		toolFunc,
	)
}
