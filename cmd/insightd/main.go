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

// Package main provides the insight generation service. It exposes the
// conversational pipeline over HTTP: connect to a database, ask
// questions in natural language, receive simulated query results with
// chart configurations.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/insight-ai/internal/audit"
	"github.com/your-org/insight-ai/internal/chat"
	"github.com/your-org/insight-ai/internal/config"
	"github.com/your-org/insight-ai/internal/health"
	"github.com/your-org/insight-ai/internal/insight"
	internalopenai "github.com/your-org/insight-ai/internal/openai"
	"github.com/your-org/insight-ai/internal/schema"
	"github.com/your-org/insight-ai/internal/session"
)

const (
	// ServiceName identifies this service in health responses
	ServiceName = "insightd"
	// ServiceVersion is reported by the health endpoint
	ServiceVersion = "1.0.0"
	// RequestTimeout bounds a single pipeline invocation
	RequestTimeout = 30 * time.Second
)

// ChatRequest represents an incoming chat message
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse represents the reply to a chat message
type ChatResponse struct {
	Turn               session.Turn `json:"turn"`
	ConnectionRequired bool         `json:"connection_required,omitempty"`
	Error              string       `json:"error,omitempty"`
}

// ConnectResponse represents the result of a connection attempt
type ConnectResponse struct {
	Turn       session.Turn       `json:"turn"`
	Connection session.Connection `json:"connection"`
	Error      string             `json:"error,omitempty"`
}

// Server wires the conversation orchestrator into HTTP handlers
type Server struct {
	config        *config.Config
	logger        *zap.Logger
	orchestrator  *chat.Orchestrator
	healthManager *health.Manager
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	openaiClient, err := internalopenai.NewClient(cfg.OpenAI.APIKey, cfg.Insight.Model, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OpenAI client", zap.Error(err))
	}

	maskedConfig := cfg.MaskSensitiveValues()
	logger.Info("Configuration loaded successfully",
		zap.String("service", ServiceName),
		zap.String("environment", os.Getenv("ENVIRONMENT")),
		zap.String("insight_model", maskedConfig.Insight.Model),
		zap.Int("max_tokens", maskedConfig.Insight.MaxTokens),
		zap.Float64("temperature", maskedConfig.Insight.Temperature),
		zap.String("openai_endpoint", maskedConfig.OpenAI.Endpoint),
		zap.String("openai_api_key", maskedConfig.OpenAI.APIKey),
	)

	auditLogger, err := audit.NewLogger(audit.Config{
		StorageType: cfg.Audit.StorageType,
		FilePath:    cfg.Audit.FilePath,
		DBPath:      cfg.Audit.DBPath,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize audit logger", zap.Error(err))
	}
	defer func() { _ = auditLogger.Close() }()

	resolver := schema.NewResolver(openaiClient, schema.ResolverConfig{
		Model:     cfg.Inference.Model,
		MaxTokens: cfg.Inference.MaxTokens,
	}, logger)

	generator := insight.NewGenerator(openaiClient, insight.BuildConfig{
		Model:       cfg.Insight.Model,
		MaxTokens:   cfg.Insight.MaxTokens,
		Temperature: float32(cfg.Insight.Temperature),
	}, logger)

	orchestrator := chat.NewOrchestrator(resolver, generator, logger,
		chat.WithAuditor(auditLogger),
		chat.WithNudgeDelay(time.Duration(cfg.Chat.NudgeDelayMs)*time.Millisecond),
	)

	healthManager := health.NewManager(ServiceName, ServiceVersion)
	healthManager.AddChecker("openai", health.APIKeyChecker(cfg.OpenAI.APIKey))
	auditPath := cfg.Audit.FilePath
	if cfg.Audit.StorageType == audit.StorageTypeSQLite {
		auditPath = cfg.Audit.DBPath
	}
	healthManager.AddChecker("audit_store", health.AuditStoreChecker(auditPath))

	server := &Server{
		config:        cfg,
		logger:        logger,
		orchestrator:  orchestrator,
		healthManager: healthManager,
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.setupRouter()

	port := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting insight service",
		zap.String("port", port),
		zap.String("service", ServiceName),
	)

	if err := router.Run(port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.POST("/api/connect", s.handleConnect)
	router.POST("/api/chat", s.handleChat)
	router.POST("/api/reset", s.handleReset)
	router.GET("/api/transcript", s.handleTranscript)
	router.GET("/api/connection", s.handleConnection)

	return router
}

// handleHealth returns the aggregated health status
func (s *Server) handleHealth(c *gin.Context) {
	result := s.healthManager.Check(c.Request.Context())

	statusCode := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, result)
}

// handleConnect establishes a database connection and resolves its schema
func (s *Server) handleConnect(c *gin.Context) {
	var req chat.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ConnectResponse{Error: "Invalid request format"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), RequestTimeout)
	defer cancel()

	welcome, err := s.orchestrator.Connect(ctx, req)
	if err != nil {
		s.logger.Warn("Connection attempt rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, ConnectResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ConnectResponse{
		Turn:       welcome,
		Connection: s.orchestrator.Connection(),
	})
}

// handleChat routes a user question through the insight pipeline
func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ChatResponse{Error: "Invalid request format"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), RequestTimeout)
	defer cancel()

	reply, err := s.orchestrator.SendMessage(ctx, req.Message)
	if err != nil {
		s.logger.Error("Failed to process message", zap.Error(err))
		c.JSON(http.StatusBadRequest, ChatResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Turn:               reply.Turn,
		ConnectionRequired: reply.ConnectionRequired,
	})
}

// handleReset clears the transcript while keeping the connection
func (s *Server) handleReset(c *gin.Context) {
	s.orchestrator.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// handleTranscript returns the conversation so far
func (s *Server) handleTranscript(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"turns": s.orchestrator.Transcript()})
}

// handleConnection returns the current connection details
func (s *Server) handleConnection(c *gin.Context) {
	c.JSON(http.StatusOK, s.orchestrator.Connection())
}

// initializeLogger creates a logger based on configuration settings
func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch cfg.Logging.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	if cfg.Logging.Output == "file" {
		zapConfig.OutputPaths = []string{"insightd.log"}
		zapConfig.ErrorOutputPaths = []string{"insightd.log"}
	} else {
		zapConfig.OutputPaths = []string{"stdout"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	}

	return zapConfig.Build()
}
