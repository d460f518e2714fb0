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

// Package insight turns a natural-language question and a table schema
// into a simulated SQL analytics result paired with a chart
// configuration, via a structured LLM completion. The package covers
// request building, structured-reply mapping, and the generator that
// ties them to the completion client.
package insight

// ChartType identifies a chart layout supported by the rendering layer.
type ChartType string

const (
	ChartBar      ChartType = "bar"
	ChartLine     ChartType = "line"
	ChartArea     ChartType = "area"
	ChartPie      ChartType = "pie"
	ChartScatter  ChartType = "scatter"
	ChartComposed ChartType = "composed"
)

// Palette is the fixed color palette applied to every chart. It is a
// pipeline constant rather than part of the LLM output so that repeated
// queries render with consistent colors.
var Palette = []string{"#6366f1", "#8b5cf6", "#ec4899", "#10b981", "#f59e0b"}

// DataRow is one generated result row. Keys are column aliases produced
// by the simulated query; values are strings or numbers.
type DataRow map[string]interface{}

// ChartConfig describes how the rendering layer should visualize a query
// result. Produced once per AI turn and immutable afterwards.
type ChartConfig struct {
	Type     ChartType `json:"type"`
	Title    string    `json:"title"`
	XAxisKey string    `json:"xAxisKey"`
	DataKeys []string  `json:"dataKeys"`
	Colors   []string  `json:"colors"`
	Summary  string    `json:"summary"`
}

// SeriesColors assigns one palette color per data key, cycling by index
// modulo palette length when the series count exceeds the palette.
func (c ChartConfig) SeriesColors() []string {
	colors := make([]string, len(c.DataKeys))
	for i := range c.DataKeys {
		colors[i] = c.Colors[i%len(c.Colors)]
	}
	return colors
}

// QueryResult carries the generated SQL, its explanation, and the
// fabricated result rows.
type QueryResult struct {
	Query       string    `json:"query"`
	Explanation string    `json:"explanation"`
	Data        []DataRow `json:"data"`
}

// Insight is the paired output of one pipeline run. Query and Chart are
// always produced together; Chart.XAxisKey and Chart.DataKeys are
// expected, but not enforced, to exist as keys in each data row.
type Insight struct {
	Query QueryResult `json:"query_result"`
	Chart ChartConfig `json:"chart_config"`
}
