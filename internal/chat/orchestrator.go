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

// Package chat coordinates the conversation lifecycle: connecting to a
// database, routing user questions through the insight pipeline, and
// keeping the transcript consistent under concurrent callers.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/insight-ai/internal/audit"
	"github.com/your-org/insight-ai/internal/insight"
	"github.com/your-org/insight-ai/internal/schema"
	"github.com/your-org/insight-ai/internal/session"
)

// State describes where the conversation currently is.
type State string

const (
	StateDisconnected    State = "disconnected"
	StateConnected       State = "connected"
	StateAwaitingInsight State = "awaiting_insight"
)

const (
	// DefaultNudgeDelay is how long the orchestrator waits before nudging
	// a disconnected user toward the connection form.
	DefaultNudgeDelay = 500 * time.Millisecond

	disconnectedNudge = "Please connect to a database first so I can analyze your data."
	apologyMessage    = "I'm sorry, I couldn't generate an insight for that query. Could you try rephrasing it?"
)

// SchemaResolver resolves a connection descriptor to a table schema.
type SchemaResolver interface {
	Resolve(ctx context.Context, descriptor string) []schema.Table
}

// InsightGenerator turns a question plus schema into an insight.
type InsightGenerator interface {
	Generate(ctx context.Context, question string, tables []schema.Table) (*insight.Insight, error)
}

// Auditor records pipeline invocations for operational review.
type Auditor interface {
	LogInsight(record audit.Record) error
}

// ConnectRequest carries the connection form fields.
type ConnectRequest struct {
	Host        string `json:"host"`
	User        string `json:"user"`
	Database    string `json:"database"`
	Description string `json:"description"`
}

// Descriptor renders the request in the canonical form fed to schema
// resolution. Catalog trigger matching depends on this exact shape.
func (r ConnectRequest) Descriptor() string {
	return fmt.Sprintf("Host: %s, User: %s, Database: %s, Description: %s",
		r.Host, r.User, r.Database, r.Description)
}

// Reply is the outcome of a single SendMessage call.
type Reply struct {
	Turn               session.Turn
	ConnectionRequired bool
}

// Orchestrator drives the conversation state machine. All transcript
// mutations go through it; SendMessage calls are strictly serialized so
// turns land in the order questions were asked.
type Orchestrator struct {
	mu         sync.Mutex
	session    *session.Session
	resolver   SchemaResolver
	generator  InsightGenerator
	auditor    Auditor
	logger     *zap.Logger
	state      State
	tables     []schema.Table
	nudgeDelay time.Duration
}

// Option customizes orchestrator behavior.
type Option func(*Orchestrator)

// WithNudgeDelay overrides the disconnected-nudge delay. Tests use a
// zero delay to keep runs fast.
func WithNudgeDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.nudgeDelay = d
	}
}

// WithAuditor attaches an audit sink. The orchestrator works without one.
func WithAuditor(a Auditor) Option {
	return func(o *Orchestrator) {
		o.auditor = a
	}
}

// NewOrchestrator creates an orchestrator in the disconnected state.
func NewOrchestrator(resolver SchemaResolver, generator InsightGenerator, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:    session.New(),
		resolver:   resolver,
		generator:  generator,
		logger:     logger,
		state:      StateDisconnected,
		nudgeDelay: DefaultNudgeDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Connect resolves the schema for the given connection details, records
// the connection on the session, and appends a welcome turn listing the
// detected tables. Reconnecting replaces the previous connection.
func (o *Orchestrator) Connect(ctx context.Context, req ConnectRequest) (session.Turn, error) {
	if strings.TrimSpace(req.Database) == "" {
		return session.Turn{}, fmt.Errorf("database name is required")
	}

	descriptor := req.Descriptor()
	tables := o.resolver.Resolve(ctx, descriptor)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.tables = tables
	o.session.SetConnection(session.Connection{
		Host:      req.Host,
		User:      req.User,
		Database:  req.Database,
		Connected: true,
		Tables:    tables,
	})
	o.state = StateConnected

	welcome := session.NewSystemTurn(welcomeMessage(req.Database, tables))
	o.session.Append(welcome)

	o.logger.Info("Database connected",
		zap.String("database", req.Database),
		zap.String("host", req.Host),
		zap.Int("table_count", len(tables)))

	return welcome, nil
}

func welcomeMessage(database string, tables []schema.Table) string {
	names := strings.Join(schema.Names(tables), ", ")
	return fmt.Sprintf("Connected to %s successfully.\nI've detected the following tables: %s.\n\n"+
		`Try asking: "Show me total orders by month" or "Which users have the highest spend?"`,
		database, names)
}

// SendMessage appends the user's question to the transcript and produces
// a reply turn. While disconnected the reply is a nudge toward the
// connection form; otherwise the question runs through the insight
// pipeline. Calls are serialized, so concurrent sends resolve one at a
// time in arrival order.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) (Reply, error) {
	sanitized := session.SanitizeUserInput(text)
	if sanitized == "" {
		return Reply{}, fmt.Errorf("message is empty")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.session.Append(session.NewUserTurn(sanitized))

	if o.state == StateDisconnected {
		return o.nudgeToConnect(ctx)
	}

	o.state = StateAwaitingInsight
	defer func() { o.state = StateConnected }()

	start := time.Now()
	result, err := o.generator.Generate(ctx, sanitized, o.tables)
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Warn("Insight pipeline failed",
			zap.String("question", sanitized),
			zap.Bool("transport", insight.IsTransport(err)),
			zap.Bool("malformed", insight.IsMalformedReply(err)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		o.recordAudit(audit.Record{
			Question:  sanitized,
			Outcome:   audit.OutcomeFailure,
			LatencyMs: elapsed.Milliseconds(),
		})
		apology := session.NewAITurn(apologyMessage)
		o.session.Append(apology)
		return Reply{Turn: apology}, nil
	}

	o.recordAudit(audit.Record{
		Question:  sanitized,
		SQL:       result.Query.Query,
		ChartType: string(result.Chart.Type),
		RowCount:  len(result.Query.Data),
		Outcome:   audit.OutcomeSuccess,
		LatencyMs: elapsed.Milliseconds(),
	})

	turn := session.NewInsightTurn(result)
	o.session.Append(turn)
	return Reply{Turn: turn}, nil
}

// nudgeToConnect waits briefly so the nudge lands after the user turn in
// the UI, then appends the system reminder. Caller holds the mutex.
func (o *Orchestrator) nudgeToConnect(ctx context.Context) (Reply, error) {
	if o.nudgeDelay > 0 {
		select {
		case <-time.After(o.nudgeDelay):
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		}
	}
	turn := session.NewSystemTurn(disconnectedNudge)
	o.session.Append(turn)
	return Reply{Turn: turn, ConnectionRequired: true}, nil
}

func (o *Orchestrator) recordAudit(record audit.Record) {
	if o.auditor == nil {
		return
	}
	if err := o.auditor.LogInsight(record); err != nil {
		o.logger.Warn("Failed to write audit record", zap.Error(err))
	}
}

// Reset clears the transcript but keeps the active connection, so the
// user can start a fresh conversation against the same database.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.session.ClearTranscript()
	o.logger.Info("Conversation reset",
		zap.Bool("connected", o.session.Connected()))
}

// State reports the current conversation state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Transcript returns a copy of the conversation so far.
func (o *Orchestrator) Transcript() []session.Turn {
	return o.session.Transcript()
}

// Connection returns the current connection details.
func (o *Orchestrator) Connection() session.Connection {
	return o.session.Connection()
}
