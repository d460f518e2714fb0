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

// Package audit records every insight pipeline invocation for
// operational review. It supports both file-based and SQLite storage.
package audit

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	StorageTypeFile   = "file"
	StorageTypeSQLite = "sqlite"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Record represents a single pipeline invocation.
type Record struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	SQL       string    `json:"sql,omitempty"`
	ChartType string    `json:"chart_type,omitempty"`
	RowCount  int       `json:"row_count"`
	Outcome   string    `json:"outcome"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds configuration for audit logging.
type Config struct {
	StorageType string `json:"storage_type"` // StorageTypeFile or StorageTypeSQLite
	FilePath    string `json:"file_path"`    // Path for file storage
	DBPath      string `json:"db_path"`      // Path for SQLite database
}

// Logger writes audit records to the configured storage backend.
type Logger struct {
	config Config
	logger *zap.Logger
	db     *sql.DB
	mu     sync.RWMutex
}

// NewLogger creates an audit logger and initializes its backend.
func NewLogger(config Config, logger *zap.Logger) (*Logger, error) {
	al := &Logger{
		config: config,
		logger: logger,
	}

	switch config.StorageType {
	case StorageTypeFile:
		if err := al.initFileStorage(); err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
	case StorageTypeSQLite:
		if err := al.initSQLiteStorage(); err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.StorageType)
	}

	return al, nil
}

func (al *Logger) initFileStorage() error {
	dir := filepath.Dir(al.config.FilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	if _, err := os.Stat(al.config.FilePath); os.IsNotExist(err) {
		file, err := os.Create(al.config.FilePath)
		if err != nil {
			return fmt.Errorf("failed to create audit file: %w", err)
		}
		_ = file.Close()
	}

	return nil
}

func (al *Logger) initSQLiteStorage() error {
	dir := filepath.Dir(al.config.DBPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create audit database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", al.config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS insight_audit (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			sql_query TEXT,
			chart_type TEXT,
			row_count INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create audit table: %w", err)
	}

	al.db = db
	return nil
}

// LogInsight records one pipeline invocation. The record's ID and
// timestamp are assigned here.
func (al *Logger) LogInsight(record Record) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	record.ID = generateAuditID()
	record.Timestamp = time.Now()

	switch al.config.StorageType {
	case StorageTypeFile:
		return al.logToFile(record)
	case StorageTypeSQLite:
		return al.logToSQLite(record)
	default:
		return fmt.Errorf("unsupported storage type: %s", al.config.StorageType)
	}
}

func (al *Logger) logToFile(record Record) error {
	file, err := os.OpenFile(al.config.FilePath, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer func() { _ = file.Close() }()

	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	if _, err := file.WriteString(string(jsonData) + "\n"); err != nil {
		return fmt.Errorf("failed to write audit record to file: %w", err)
	}

	al.logger.Info("Audit record logged to file",
		zap.String("id", record.ID),
		zap.String("outcome", record.Outcome),
		zap.String("chart_type", record.ChartType))

	return nil
}

func (al *Logger) logToSQLite(record Record) error {
	if al.db == nil {
		return fmt.Errorf("SQLite database not initialized")
	}

	insertSQL := `
		INSERT INTO insight_audit (id, question, sql_query, chart_type, row_count, outcome, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := al.db.Exec(insertSQL,
		record.ID,
		record.Question,
		record.SQL,
		record.ChartType,
		record.RowCount,
		record.Outcome,
		record.LatencyMs,
		record.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit record into SQLite: %w", err)
	}

	al.logger.Info("Audit record logged to SQLite",
		zap.String("id", record.ID),
		zap.String("outcome", record.Outcome),
		zap.String("chart_type", record.ChartType))

	return nil
}

// RecentRecords retrieves the most recent audit records (SQLite only).
func (al *Logger) RecentRecords(limit int) ([]Record, error) {
	if al.config.StorageType != StorageTypeSQLite {
		return nil, fmt.Errorf("RecentRecords only supported for SQLite storage")
	}

	if al.db == nil {
		return nil, fmt.Errorf("SQLite database not initialized")
	}

	al.mu.RLock()
	defer al.mu.RUnlock()

	query := `
		SELECT id, question, sql_query, chart_type, row_count, outcome, latency_ms, timestamp
		FROM insight_audit
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := al.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var record Record
		var sqlQuery, chartType sql.NullString

		err := rows.Scan(
			&record.ID,
			&record.Question,
			&sqlQuery,
			&chartType,
			&record.RowCount,
			&record.Outcome,
			&record.LatencyMs,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}

		record.SQL = sqlQuery.String
		record.ChartType = chartType.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit records: %w", err)
	}

	return records, nil
}

// Close releases the storage backend.
func (al *Logger) Close() error {
	if al.db != nil {
		return al.db.Close()
	}
	return nil
}

func generateAuditID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("audit_%d", time.Now().UnixNano())
	}
	return "audit_" + hex.EncodeToString(bytes)
}
