package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// unanswerableSentinel is the marker the model returns in place of SQL when
// no query over the schema can answer the question.
const unanswerableSentinel = "NOT_POSSIBLE"

// SQLSynthesis is the outcome of one question-to-SQL round trip. Exactly
// one of SQL or Unanswerable is meaningful.
type SQLSynthesis struct {
	SQL          string
	Unanswerable bool
}

type sqlQueryResult struct {
	SQLQuery string `json:"sql_query"`
}

// QuerySynthesizer turns a natural-language question into one SQL statement
// via the language model. It performs no SQL validation beyond extraction;
// correctness is the executor's problem.
type QuerySynthesizer struct {
	client     *GeminiClient
	schemaText string
	dialect    string
}

// NewQuerySynthesizer builds a synthesizer for the registry schemas and the
// session's engine dialect.
func NewQuerySynthesizer(client *GeminiClient, schemas []DatasetSchema, engine Engine) *QuerySynthesizer {
	dialect := "SQLite (standard SQL syntax)"
	if engine == EngineDuckDB {
		dialect = "DuckDB (PostgreSQL-compatible syntax)"
	}
	return &QuerySynthesizer{
		client:     client,
		schemaText: SchemaPromptText(schemas),
		dialect:    dialect,
	}
}

// Synthesize asks the model for a statement answering the question.
func (s *QuerySynthesizer) Synthesize(ctx context.Context, question string) (*SQLSynthesis, error) {
	if logger != nil {
		logger.Info("Generating SQL for question", "question", truncateString(question, 150))
	}
	responseText, err := s.client.Generate(ctx, s.buildPrompt(question), sqlResponseSchema())
	if err != nil {
		return nil, err
	}
	return parseSynthesis(responseText)
}

// SynthesizeCorrection retries synthesis with the previous statement and the
// engine's error embedded so the model can fix its own SQL.
func (s *QuerySynthesizer) SynthesizeCorrection(ctx context.Context, question, previousSQL, sqlError string, attempt int) (*SQLSynthesis, error) {
	if logger != nil {
		logger.Info("Retrying SQL generation with error correction", "attempt", attempt, "previous_error", sqlError)
	}
	prompt := fmt.Sprintf(`%s

**IMPORTANT - SQL ERROR CORRECTION (Attempt %d):**

Your previous SQL query failed with an error. Analyze the error and generate a corrected query.

Previous SQL Query:
%s

Error Message:
%s

Fix the SQL query to resolve this error. Common issues:
- Column names must match the schema exactly
- Verify aggregate functions are used correctly with GROUP BY
- Check for syntax errors

Return ONLY the corrected JSON with the fixed sql_query field.`,
		s.buildPrompt(question), attempt, previousSQL, sqlError)

	responseText, err := s.client.Generate(ctx, prompt, sqlResponseSchema())
	if err != nil {
		return nil, err
	}
	return parseSynthesis(responseText)
}

func (s *QuerySynthesizer) buildPrompt(question string) string {
	return fmt.Sprintf(`You are an AI data analyst helping an e-commerce seller explore advertising and sales metrics stored in a local database.

**Database Schema:**

%s
**Derived Metrics:**
- CPC (cost per click) = ad_spend / clicks
- RoAS (return on ad spend) = ad_sales / ad_spend

**User Question:** "%s"

**Task:** Generate exactly one SQL SELECT statement that answers the question.

**Response Format (JSON only):**
{
  "sql_query": "SELECT ..."
}

**SQL Guidelines:**
- Use only the tables and columns from the schema
- Use proper aggregation functions (COUNT, AVG, SUM, MIN, MAX)
- Guard divisions with NULLIF to avoid divide-by-zero
- Boolean columns store 1 for true and 0 for false
- Database engine is %s
- If the question cannot be answered from this schema, set "sql_query" to exactly "%s"

**Examples:**

"What is my total ad spend?"
{"sql_query": "SELECT SUM(ad_spend) AS total_spend FROM product_ad_sales_metrics"}

"Which item had the highest cost per click?"
{"sql_query": "SELECT item_id, SUM(ad_spend) / NULLIF(SUM(clicks), 0) AS cpc FROM product_ad_sales_metrics GROUP BY item_id ORDER BY cpc DESC LIMIT 1"}

"What will the weather be tomorrow?"
{"sql_query": "%s"}

Return ONLY JSON, no other text.`,
		s.schemaText, question, s.dialect, unanswerableSentinel, unanswerableSentinel)
}

// sqlResponseSchema constrains the response to a one-field object.
func sqlResponseSchema() *responseSchema {
	return &responseSchema{
		Type: "OBJECT",
		Properties: map[string]*responseSchema{
			"sql_query": {Type: "STRING"},
		},
		Required:         []string{"sql_query"},
		PropertyOrdering: []string{"sql_query"},
	}
}

// parseSynthesis turns the model's response text into a synthesis outcome.
func parseSynthesis(responseText string) (*SQLSynthesis, error) {
	if strings.TrimSpace(responseText) == "" {
		return nil, &SynthesisError{Kind: EmptyResponse, Err: fmt.Errorf("model returned empty text")}
	}
	sqlText, err := extractSQL(responseText)
	if err != nil {
		return nil, err
	}
	if strings.Contains(sqlText, unanswerableSentinel) {
		return &SQLSynthesis{Unanswerable: true}, nil
	}
	return &SQLSynthesis{SQL: sqlText}, nil
}

// extractSQL pulls the statement out of a synthesis response. Strict path:
// the structured sql_query field, with markdown fences stripped if present.
// Lenient path: a fenced sql block. Both failing is one error kind.
func extractSQL(responseText string) (string, error) {
	var result sqlQueryResult
	if err := json.Unmarshal([]byte(unfenceJSON(responseText)), &result); err == nil {
		if q := strings.TrimSpace(result.SQLQuery); q != "" {
			return q, nil
		}
	}

	if start := strings.Index(responseText, "```sql"); start != -1 {
		start += 6
		end := strings.Index(responseText[start:], "```")
		if end > 0 {
			if q := strings.TrimSpace(responseText[start : start+end]); q != "" {
				return q, nil
			}
		}
	}

	if logger != nil {
		logger.Error("Failed to extract SQL from response", "response_preview", truncateString(responseText, 200))
	}
	return "", &SynthesisError{Kind: MalformedResponse,
		Err: fmt.Errorf("no sql_query field or fenced sql block in response")}
}

// unfenceJSON strips a markdown code fence wrapping a JSON payload. Text
// without fences passes through unchanged.
func unfenceJSON(responseText string) string {
	jsonStr := responseText
	if strings.Contains(responseText, "```json") {
		start := strings.Index(responseText, "```json") + 7
		end := strings.Index(responseText[start:], "```")
		if end > 0 {
			jsonStr = responseText[start : start+end]
		}
	} else if strings.Contains(responseText, "```") {
		start := strings.Index(responseText, "```") + 3
		end := strings.Index(responseText[start:], "```")
		if end > 0 {
			jsonStr = responseText[start : start+end]
		}
	}
	return strings.TrimSpace(jsonStr)
}
