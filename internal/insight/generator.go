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
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/insight-ai/internal/openai"
	"github.com/your-org/insight-ai/internal/schema"
)

// CompletionClient is the subset of the OpenAI wrapper the generator
// depends on. Tests substitute a stub.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// Generator runs the insight pipeline end to end: build the structured
// request, await the completion, and map the reply.
type Generator struct {
	client CompletionClient
	config BuildConfig
	logger *zap.Logger
}

// NewGenerator creates an insight generator backed by the given completion client.
func NewGenerator(client CompletionClient, config BuildConfig, logger *zap.Logger) *Generator {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = DefaultTemperature
	}
	return &Generator{
		client: client,
		config: config,
		logger: logger,
	}
}

// Generate produces an Insight for a question against the given schema.
// Completion failures are returned as TransportError; undecodable or
// incomplete replies as MalformedReplyError. Both are caught at the
// orchestrator boundary and surfaced as an apology turn.
func (g *Generator) Generate(ctx context.Context, question string, tables []schema.Table) (*Insight, error) {
	start := time.Now()
	req := BuildRequest(question, tables, g.config)

	g.logger.Debug("Requesting insight completion",
		zap.String("question", question),
		zap.Int("table_count", len(tables)))

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp == nil || resp.Content == "" {
		return nil, &MalformedReplyError{Reason: "completion returned no content"}
	}

	result, err := MapReply(resp.Content, g.logger)
	if err != nil {
		g.logger.Error("Failed to map insight reply",
			zap.Error(err),
			zap.Int("reply_length", len(resp.Content)))
		return nil, err
	}

	g.logger.Info("Insight generated",
		zap.String("chart_type", string(result.Chart.Type)),
		zap.Int("data_rows", len(result.Query.Data)),
		zap.Int("data_keys", len(result.Chart.DataKeys)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}
