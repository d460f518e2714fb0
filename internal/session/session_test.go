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

package session

import (
	"testing"

	"github.com/your-org/insight-ai/internal/insight"
	"github.com/your-org/insight-ai/internal/schema"
)

func TestSessionAppendOrder(t *testing.T) {
	s := New()
	s.Append(NewUserTurn("first"))
	s.Append(NewSystemTurn("second"), NewAITurn("third"))

	turns := s.Transcript()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Content != "first" || turns[1].Content != "second" || turns[2].Content != "third" {
		t.Error("turns must be appended strictly in call order")
	}
}

func TestSessionTranscriptIsCopy(t *testing.T) {
	s := New()
	s.Append(NewUserTurn("hello"))

	turns := s.Transcript()
	turns[0].Content = "mutated"

	if s.Transcript()[0].Content != "hello" {
		t.Error("transcript copies must not alias internal state")
	}
}

func TestSessionConnectionLifecycle(t *testing.T) {
	s := New()
	if s.Connected() {
		t.Error("new session should start disconnected")
	}

	s.SetConnection(Connection{
		Host:      "47.113.229.134",
		User:      "emote_user",
		Database:  "ai_boss",
		Connected: true,
		Tables:    schema.DefaultTables(),
	})

	if !s.Connected() {
		t.Error("session should report connected")
	}
	conn := s.Connection()
	if conn.Database != "ai_boss" || len(conn.Tables) != 2 {
		t.Errorf("unexpected connection state: %+v", conn)
	}

	// Reconnect replaces wholesale, no merge
	s.SetConnection(Connection{Database: "other", Connected: true})
	if len(s.Connection().Tables) != 0 {
		t.Error("reconnect must discard the previous table set")
	}
}

func TestClearTranscriptKeepsConnection(t *testing.T) {
	s := New()
	s.SetConnection(Connection{Database: "ai_boss", Connected: true, Tables: schema.DefaultTables()})
	s.Append(NewUserTurn("a"), NewAITurn("b"))

	s.ClearTranscript()

	if s.Len() != 0 {
		t.Errorf("expected empty transcript, got %d turns", s.Len())
	}
	if !s.Connected() {
		t.Error("clearing the transcript must not drop the connection")
	}
	if len(s.Connection().Tables) != 2 {
		t.Error("clearing the transcript must not drop the table set")
	}
}

func TestNewInsightTurn(t *testing.T) {
	result := &insight.Insight{
		Query: insight.QueryResult{
			Query:       "SELECT 1",
			Explanation: "Trivial insight.",
			Data:        []insight.DataRow{{"n": 1}},
		},
		Chart: insight.ChartConfig{Type: insight.ChartBar, Title: "T", XAxisKey: "n", DataKeys: []string{"n"}},
	}

	turn := NewInsightTurn(result)
	if turn.Role != RoleAI {
		t.Errorf("expected ai role, got %s", turn.Role)
	}
	if turn.Content != "Trivial insight." {
		t.Error("display text must be the explanation, not the SQL")
	}
	if turn.QueryResult == nil || turn.ChartConfig == nil {
		t.Fatal("insight turn must carry both rich fields")
	}
	if !ValidateTurnID(turn.ID) {
		t.Errorf("invalid turn ID: %s", turn.ID)
	}
}

func TestPlainTurnsCarryNoRichFields(t *testing.T) {
	for _, turn := range []Turn{NewUserTurn("u"), NewSystemTurn("s"), NewAITurn("a")} {
		if turn.QueryResult != nil || turn.ChartConfig != nil {
			t.Errorf("%s turn should not carry rich fields", turn.Role)
		}
	}
}
