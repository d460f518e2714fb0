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
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// structuredReply mirrors the structured-output contract declared in the
// request builder. MockDataStr is a JSON-encoded string: the row shape is
// dynamic per query, so the rows are double-encoded rather than
// constrained by a fixed schema.
type structuredReply struct {
	Explanation string   `json:"explanation"`
	SQLQuery    string   `json:"sqlQuery"`
	ChartType   string   `json:"chartType"`
	ChartTitle  string   `json:"chartTitle"`
	XAxisKey    string   `json:"xAxisKey"`
	DataKeys    []string `json:"dataKeys"`
	MockDataStr string   `json:"mockDataStr"`
}

// MapReply validates and decodes a raw structured completion into an
// Insight. The outer object must parse and carry every contract field or
// the mapping fails with MalformedReplyError. A mockDataStr that fails
// its inner decode is non-fatal: the result degrades to an empty data
// set while explanation and SQL remain usable.
func MapReply(raw string, logger *zap.Logger) (*Insight, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &MalformedReplyError{Reason: "empty reply"}
	}

	var reply structuredReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, &MalformedReplyError{Reason: "reply is not a JSON object", Err: err}
	}

	if err := validateReply(reply); err != nil {
		return nil, err
	}

	data := decodeMockData(reply.MockDataStr, logger)

	chart := ChartConfig{
		Type:     ChartType(reply.ChartType),
		Title:    reply.ChartTitle,
		XAxisKey: reply.XAxisKey,
		DataKeys: reply.DataKeys,
		Colors:   Palette,
		Summary:  reply.Explanation,
	}

	result := QueryResult{
		Query:       reply.SQLQuery,
		Explanation: reply.Explanation,
		Data:        data,
	}

	return &Insight{Query: result, Chart: chart}, nil
}

// validateReply enforces presence of every contract field. Chart type is
// passed through verbatim; mismatches between dataKeys and actual row
// keys are a rendering-time concern, not a mapping error.
func validateReply(reply structuredReply) error {
	missing := func(field string) error {
		return &MalformedReplyError{Reason: "missing required field " + field}
	}

	switch {
	case strings.TrimSpace(reply.Explanation) == "":
		return missing("explanation")
	case strings.TrimSpace(reply.SQLQuery) == "":
		return missing("sqlQuery")
	case strings.TrimSpace(reply.ChartType) == "":
		return missing("chartType")
	case strings.TrimSpace(reply.ChartTitle) == "":
		return missing("chartTitle")
	case strings.TrimSpace(reply.XAxisKey) == "":
		return missing("xAxisKey")
	case len(reply.DataKeys) == 0:
		return missing("dataKeys")
	case reply.MockDataStr == "":
		return missing("mockDataStr")
	}

	return nil
}

// decodeMockData performs the second-stage decode of the embedded row
// payload. Failure yields an empty data set, never an error.
func decodeMockData(mockDataStr string, logger *zap.Logger) []DataRow {
	var rows []DataRow
	if err := json.Unmarshal([]byte(mockDataStr), &rows); err != nil {
		logger.Warn("Failed to decode embedded data payload, continuing with empty data",
			zap.Error(err),
			zap.Int("payload_length", len(mockDataStr)))
		return []DataRow{}
	}
	if rows == nil {
		rows = []DataRow{}
	}
	return rows
}
