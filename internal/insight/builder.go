// Copyright 2025 InsightAI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package insight

import (
	"fmt"
	"strings"

	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/your-org/insight-ai/internal/openai"
	"github.com/your-org/insight-ai/internal/schema"
)

const (
	// DefaultTemperature biases the completion toward deterministic,
	// schema-consistent SQL and data generation. A quality knob, not a
	// correctness guarantee.
	DefaultTemperature = 0.3
	// DefaultMaxTokens bounds the completion size
	DefaultMaxTokens = 2000
)

// systemInstruction fixes the assistant's role for insight generation.
const systemInstruction = `You are an expert Business Intelligence AI and SQL architect.
Your goal is to analyze user natural language queries, generate efficient MySQL queries based on the provided schema,
and provide synthetic data that accurately represents the result of that query for visualization purposes.
You must output valid JSON only.`

// BuildConfig holds tunables for insight request construction.
type BuildConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// DefaultBuildConfig returns the default request configuration.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// BuildRequest formats a user question and a table schema into a
// JSON-mode completion request carrying the structured-output contract.
// BuildRequest performs no I/O.
func BuildRequest(question string, tables []schema.Table, config BuildConfig) openai.ChatCompletionRequest {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = DefaultTemperature
	}

	return openai.ChatCompletionRequest{
		Model:       config.Model,
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		JSONMode:    true,
		Messages: []openaisdk.ChatCompletionMessage{
			{Role: openaisdk.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openaisdk.ChatMessageRoleUser, Content: buildPrompt(question, tables)},
		},
	}
}

// buildPrompt renders the schema description, the user question, and the
// formatting contract into a single prompt.
func buildPrompt(question string, tables []schema.Table) string {
	var b strings.Builder

	b.WriteString("Database Schema:\n")
	b.WriteString(DescribeSchema(tables))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "User Query: %q\n\n", question)

	b.WriteString("Task:\n")
	b.WriteString("1. Interpret the user's intent.\n")
	b.WriteString("2. Write a SQL query for MySQL compatible with the schema.\n")
	b.WriteString("3. Generate realistic data for the result set.\n")
	b.WriteString("   - Generate 5-15 realistic, internally consistent data points.\n")
	b.WriteString("   - Do not use placeholder values like 'User 1', 'User 2'. Use real-looking names or IDs.\n")
	b.WriteString("   - Return the data as a stringified JSON array in the field 'mockDataStr'.\n")
	b.WriteString("4. Configure a chart visualization: pick one chartType from bar, line, area, pie, scatter.\n\n")

	b.WriteString("Respond with a single JSON object containing exactly these fields, all required:\n")
	b.WriteString(`  "explanation":  string, a brief friendly explanation of the insights found` + "\n")
	b.WriteString(`  "sqlQuery":     string, the valid MySQL query that would generate this data` + "\n")
	b.WriteString(`  "chartType":    string, one of "bar", "line", "area", "pie", "scatter"` + "\n")
	b.WriteString(`  "chartTitle":   string, a concise title for the chart` + "\n")
	b.WriteString(`  "xAxisKey":     string, the key in the data objects to use for the X axis` + "\n")
	b.WriteString(`  "dataKeys":     array of strings, the keys in the data objects to plot` + "\n")
	b.WriteString(`  "mockDataStr":  string, a JSON-encoded array of row objects, e.g. "[{\"month\": \"Jan\", \"revenue\": 1000}]"` + "\n")

	return b.String()
}

// DescribeSchema renders tables as one line per table:
// Table '<name>' with columns: <comma list>
func DescribeSchema(tables []schema.Table) string {
	lines := make([]string, len(tables))
	for i, t := range tables {
		lines[i] = fmt.Sprintf("Table '%s' with columns: %s", t.Name, strings.Join(t.Columns, ", "))
	}
	return strings.Join(lines, "\n")
}
