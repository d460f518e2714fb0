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

// Package schema resolves the table schema for a simulated database
// connection. Resolution is deterministic where possible (catalog
// matching against known connection descriptors) with an LLM-backed
// inference fallback for unknown data sources.
package schema

import "strings"

// Table identifies one simulated table and its column list. Column order
// is display-relevant only; tables are immutable once produced.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// catalogTriggers are the literal substrings that identify the curated
// production catalog. Matching is case-insensitive containment; any one
// trigger is sufficient and all of them resolve to the same schema set.
var catalogTriggers = []string{
	"ai_boss",
	"47.113.229.134",
	"emote_user",
	"ai_draw_record",
}

// MatchCatalog maps a free-text connection descriptor (any mix of host,
// username, database name, and human description) to the curated schema
// set. The second return value reports whether a trigger matched; a miss
// is not an error. MatchCatalog never performs I/O.
func MatchCatalog(descriptor string) ([]Table, bool) {
	info := strings.ToLower(descriptor)

	for _, trigger := range catalogTriggers {
		if strings.Contains(info, trigger) {
			return catalogTables(), true
		}
	}

	return nil, false
}

// catalogTables returns the curated six-table schema for the ai_boss
// production database. A fresh copy is returned on every call so callers
// cannot mutate the catalog.
func catalogTables() []Table {
	return []Table{
		{
			Name: "sys_user",
			Columns: []string{
				"user_id", "username", "nickname", "mobile", "email", "avatar",
				"password", "salt", "status", "dept_id", "create_time",
				"balance", "vip_level", "vip_expire_time",
			},
		},
		{
			Name: "ai_draw_record",
			Columns: []string{
				"id", "user_id", "model_id", "prompt", "negative_prompt",
				"width", "height", "steps", "image_url", "cost_points",
				"status", "create_time", "finish_time",
			},
		},
		{
			Name: "ai_chat_record",
			Columns: []string{
				"id", "user_id", "session_id", "question", "answer",
				"tokens_input", "tokens_output", "total_tokens", "cost_points",
				"model_name", "create_time",
			},
		},
		{
			Name: "user_order",
			Columns: []string{
				"order_no", "user_id", "product_id", "product_name",
				"total_amount", "pay_amount", "pay_type", "status",
				"pay_time", "create_time", "transaction_id",
			},
		},
		{
			Name: "sys_model",
			Columns: []string{
				"model_id", "model_name", "model_type", "provider",
				"cost_per_token", "is_active", "description",
			},
		},
		{
			Name: "user_vip_log",
			Columns: []string{
				"id", "user_id", "old_level", "new_level", "change_type",
				"create_time", "remark",
			},
		},
	}
}

// DefaultTables returns the minimal built-in schema used when inference
// fails. It is always non-empty so the pipeline can proceed.
func DefaultTables() []Table {
	return []Table{
		{Name: "users", Columns: []string{"id", "name", "email", "signup_date", "country"}},
		{Name: "orders", Columns: []string{"id", "user_id", "total_amount", "status", "created_at"}},
	}
}

// Names returns the table names in declaration order.
func Names(tables []Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
