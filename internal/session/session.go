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

// Package session models the single active analysis session: the
// append-only conversation transcript and the simulated database
// connection it is bound to. The session is owned exclusively by the
// orchestrator; no other component mutates it.
package session

import (
	"sync"
	"time"

	"github.com/your-org/insight-ai/internal/insight"
	"github.com/your-org/insight-ai/internal/schema"
)

// Role represents the author of a conversation turn
type Role string

const (
	// RoleUser indicates a turn typed by the user
	RoleUser Role = "user"
	// RoleAI indicates an assistant reply
	RoleAI Role = "ai"
	// RoleSystem indicates a system notice
	RoleSystem Role = "system"
)

// Turn is one entry in the conversation transcript. Turns are never
// mutated after creation. QueryResult and ChartConfig are present
// together or absent together.
type Turn struct {
	ID          string               `json:"id"`
	Role        Role                 `json:"role"`
	Content     string               `json:"content"`
	Timestamp   time.Time            `json:"timestamp"`
	QueryResult *insight.QueryResult `json:"query_result,omitempty"`
	ChartConfig *insight.ChartConfig `json:"chart_config,omitempty"`
}

// Connection represents the single active simulated data source.
// Replacing it discards the previous one entirely.
type Connection struct {
	Host      string         `json:"host"`
	User      string         `json:"user"`
	Database  string         `json:"database"`
	Connected bool           `json:"connected"`
	Tables    []schema.Table `json:"tables"`
}

// Session holds the transcript and the active connection. All methods
// are safe for concurrent use, though the orchestrator serializes writes.
type Session struct {
	mu    sync.RWMutex
	turns []Turn
	conn  Connection
}

// New creates an empty, disconnected session.
func New() *Session {
	return &Session{}
}

// Append adds turns to the transcript in call order.
func (s *Session) Append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

// Transcript returns a copy of the transcript.
func (s *Session) Transcript() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Len returns the number of turns in the transcript.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// SetConnection replaces the active connection wholesale.
func (s *Session) SetConnection(conn Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}

// Connection returns the active connection.
func (s *Session) Connection() Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// Connected reports whether a data source is attached.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn.Connected
}

// ClearTranscript truncates the transcript wholesale. The connection is
// left untouched: starting a new analysis keeps the data source and
// discards only the history.
func (s *Session) ClearTranscript() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// NewUserTurn creates a user turn with a fresh ID and timestamp.
func NewUserTurn(content string) Turn {
	return Turn{
		ID:        GenerateTurnID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewSystemTurn creates a system notice turn.
func NewSystemTurn(content string) Turn {
	return Turn{
		ID:        GenerateTurnID(),
		Role:      RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAITurn creates a plain assistant turn without rich fields.
func NewAITurn(content string) Turn {
	return Turn{
		ID:        GenerateTurnID(),
		Role:      RoleAI,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewInsightTurn creates an assistant turn carrying a generated insight.
// The display text is the explanation, not the raw SQL.
func NewInsightTurn(result *insight.Insight) Turn {
	query := result.Query
	chart := result.Chart
	return Turn{
		ID:          GenerateTurnID(),
		Role:        RoleAI,
		Content:     query.Explanation,
		Timestamp:   time.Now(),
		QueryResult: &query,
		ChartConfig: &chart,
	}
}
