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

package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/your-org/insight-ai/internal/openai"
)

// CompletionClient is the subset of the OpenAI wrapper used for schema
// inference. Defined here so tests can substitute a stub.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// ResolverConfig holds tunables for the inference fallback completion.
type ResolverConfig struct {
	Model     string
	MaxTokens int
}

// Resolver resolves a connection descriptor to a table schema: catalog
// match first, LLM inference for unknown descriptors, and a built-in
// default when inference fails. Resolve never returns an error and never
// returns an empty schema.
type Resolver struct {
	client CompletionClient
	config ResolverConfig
	logger *zap.Logger
}

// NewResolver creates a schema resolver backed by the given completion client.
func NewResolver(client CompletionClient, config ResolverConfig, logger *zap.Logger) *Resolver {
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1000
	}
	return &Resolver{
		client: client,
		config: config,
		logger: logger,
	}
}

// Resolve maps a free-text connection descriptor to a non-empty table
// schema. Deterministic catalog matching wins; otherwise the LLM proposes
// a plausible schema, and any transport or decode failure there is
// replaced with the built-in default schema.
func (r *Resolver) Resolve(ctx context.Context, descriptor string) []Table {
	if tables, ok := MatchCatalog(descriptor); ok {
		r.logger.Info("Connection descriptor matched schema catalog",
			zap.Int("table_count", len(tables)))
		return tables
	}

	tables, err := r.infer(ctx, descriptor)
	if err != nil {
		r.logger.Warn("Schema inference failed, using default schema",
			zap.Error(err))
		return DefaultTables()
	}
	if len(tables) == 0 {
		r.logger.Warn("Schema inference returned no tables, using default schema")
		return DefaultTables()
	}

	r.logger.Info("Schema inferred from connection descriptor",
		zap.Int("table_count", len(tables)),
		zap.Strings("tables", Names(tables)))

	return tables
}

// inferredReply is the structured inference response. JSON mode requires
// a top-level object, so the prompt asks for a "tables" wrapper; a bare
// array is also accepted.
type inferredReply struct {
	Tables []Table `json:"tables"`
}

// infer asks the LLM to propose a plausible schema for the descriptor.
func (r *Resolver) infer(ctx context.Context, descriptor string) ([]Table, error) {
	prompt := buildInferencePrompt(descriptor)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.config.Model,
		MaxTokens: r.config.MaxTokens,
		Messages: []openaisdk.ChatCompletionMessage{
			{Role: openaisdk.ChatMessageRoleUser, Content: prompt},
		},
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("schema inference completion failed: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("schema inference returned empty reply")
	}

	return decodeInferredTables(resp.Content)
}

// buildInferencePrompt renders the schema proposal prompt for a descriptor.
func buildInferencePrompt(descriptor string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The user has provided this description for their data source: %q.\n", descriptor)
	b.WriteString("Generate a plausible database schema (tables and columns) relevant to this description.\n")
	b.WriteString(`If the description is vague or empty, generate a robust schema for a "SaaS E-commerce Platform" (Users, Orders, Products, Analytics).` + "\n")
	b.WriteString("Respond with a JSON object of the form ")
	b.WriteString(`{"tables": [{"name": "<table name>", "columns": ["<column>", ...]}, ...]}`)
	b.WriteString(" and nothing else.")

	return b.String()
}

// decodeInferredTables parses the inference reply, accepting either the
// object wrapper or a bare array.
func decodeInferredTables(content string) ([]Table, error) {
	var reply inferredReply
	if err := json.Unmarshal([]byte(content), &reply); err == nil && len(reply.Tables) > 0 {
		return validTables(reply.Tables), nil
	}

	var tables []Table
	if err := json.Unmarshal([]byte(content), &tables); err != nil {
		return nil, fmt.Errorf("failed to decode inferred schema: %w", err)
	}

	return validTables(tables), nil
}

// validTables drops entries with no name or no columns.
func validTables(tables []Table) []Table {
	var valid []Table
	for _, t := range tables {
		if strings.TrimSpace(t.Name) == "" || len(t.Columns) == 0 {
			continue
		}
		valid = append(valid, t)
	}
	return valid
}
