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
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/your-org/insight-ai/internal/openai"
)

// stubClient returns canned completion replies and records call counts
type stubClient struct {
	content string
	err     error
	calls   int
	lastReq openai.ChatCompletionRequest
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &openai.ChatCompletionResponse{Content: s.content, FinishReason: "stop"}, nil
}

func TestResolveCatalogMatchSkipsInference(t *testing.T) {
	client := &stubClient{content: `{"tables": []}`}
	resolver := NewResolver(client, ResolverConfig{}, zaptest.NewLogger(t))

	tables := resolver.Resolve(context.Background(), "Database: ai_boss")
	if len(tables) != 6 {
		t.Fatalf("expected 6 catalog tables, got %d", len(tables))
	}
	if client.calls != 0 {
		t.Errorf("expected no LLM call on catalog match, got %d", client.calls)
	}
}

func TestResolveInfersUnknownDescriptor(t *testing.T) {
	client := &stubClient{content: `{"tables": [
		{"name": "patients", "columns": ["id", "name", "dob"]},
		{"name": "appointments", "columns": ["id", "patient_id", "scheduled_at"]}
	]}`}
	resolver := NewResolver(client, ResolverConfig{Model: "gpt-4o"}, zaptest.NewLogger(t))

	tables := resolver.Resolve(context.Background(), "clinic management system")
	if client.calls != 1 {
		t.Fatalf("expected exactly one LLM call, got %d", client.calls)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 inferred tables, got %d", len(tables))
	}
	if tables[0].Name != "patients" || tables[1].Name != "appointments" {
		t.Errorf("unexpected table names: %v", Names(tables))
	}

	if !client.lastReq.JSONMode {
		t.Error("inference request should use JSON mode")
	}
	prompt := client.lastReq.Messages[0].Content
	if !strings.Contains(prompt, "clinic management system") {
		t.Error("prompt should embed the descriptor")
	}
	if !strings.Contains(prompt, "SaaS E-commerce Platform") {
		t.Error("prompt should carry the vague-descriptor default instruction")
	}
}

func TestResolveAcceptsBareArrayReply(t *testing.T) {
	client := &stubClient{content: `[{"name": "events", "columns": ["id", "kind"]}]`}
	resolver := NewResolver(client, ResolverConfig{}, zaptest.NewLogger(t))

	tables := resolver.Resolve(context.Background(), "event tracker")
	if len(tables) != 1 || tables[0].Name != "events" {
		t.Errorf("expected bare-array reply to decode, got %v", tables)
	}
}

func TestResolveFallsBackOnTransportError(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("connection refused")}
	resolver := NewResolver(client, ResolverConfig{}, zaptest.NewLogger(t))

	tables := resolver.Resolve(context.Background(), "mystery database")
	if len(tables) != 2 {
		t.Fatalf("expected default schema on transport error, got %d tables", len(tables))
	}
	if tables[0].Name != "users" || tables[1].Name != "orders" {
		t.Errorf("unexpected fallback tables: %v", Names(tables))
	}
}

func TestResolveFallsBackOnMalformedReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "here is your schema: users(id)"},
		{name: "empty reply", content: ""},
		{name: "empty tables", content: `{"tables": []}`},
		{name: "tables missing columns", content: `{"tables": [{"name": "ghost", "columns": []}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{content: tt.content}
			resolver := NewResolver(client, ResolverConfig{}, zaptest.NewLogger(t))

			tables := resolver.Resolve(context.Background(), "mystery database")
			if len(tables) == 0 {
				t.Fatal("resolve must never return an empty schema")
			}
			if tables[0].Name != "users" {
				t.Errorf("expected default schema, got %v", Names(tables))
			}
		})
	}
}
