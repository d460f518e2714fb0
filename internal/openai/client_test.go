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

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap/zaptest"
)

// mockCompletionServer creates a mock OpenAI server returning a fixed chat response
func mockCompletionServer(_ testing.TB, statusCode int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}))
}

// createMockChatResponse wraps content into a chat completion payload
func createMockChatResponse(content string) string {
	payload := map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     25,
			"completion_tokens": 50,
			"total_tokens":      75,
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestNewClient(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name        string
		apiKey      string
		expectError bool
	}{
		{name: "valid key", apiKey: "sk-test-key-1234", expectError: false},
		{name: "empty key", apiKey: "", expectError: true},
		{name: "malformed key", apiKey: "not-a-key", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.apiKey, "", logger)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if client.model != DefaultModel {
				t.Errorf("expected default model %q, got %q", DefaultModel, client.model)
			}
		})
	}
}

func TestCreateChatCompletion(t *testing.T) {
	logger := zaptest.NewLogger(t)

	server := mockCompletionServer(t, http.StatusOK, createMockChatResponse(`{"answer": 42}`))
	defer server.Close()

	client := NewClientWithBaseURL("sk-test", "gpt-4o", server.URL, logger)

	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "test"},
		},
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != `{"answer": 42}` {
		t.Errorf("unexpected content: %s", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("unexpected finish reason: %s", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 75 {
		t.Errorf("unexpected token usage: %d", resp.Usage.TotalTokens)
	}
}

func TestCreateChatCompletionNonRetryableError(t *testing.T) {
	logger := zaptest.NewLogger(t)

	server := mockCompletionServer(t, http.StatusUnauthorized,
		`{"error": {"message": "bad key", "type": "invalid_request_error"}}`)
	defer server.Close()

	client := NewClientWithBaseURL("sk-test", "", server.URL, logger)

	_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "test"},
		},
	})
	if err == nil {
		t.Fatal("expected error for unauthorized response")
	}
}

func TestCreateChatCompletionEmptyChoices(t *testing.T) {
	logger := zaptest.NewLogger(t)

	server := mockCompletionServer(t, http.StatusOK,
		`{"id": "chatcmpl-test", "object": "chat.completion", "choices": [], "usage": {}}`)
	defer server.Close()

	client := NewClientWithBaseURL("sk-test", "", server.URL, logger)

	_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "test"},
		},
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestRetryableErrorMessage(t *testing.T) {
	err := &RetryableError{StatusCode: 429, Message: "rate limited"}
	if err.Error() != "retryable error (status 429): rate limited" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}
