// Package server provides the HTTP boundary of the MyDocta chat gateway: it
// accepts multimodal chat submissions, drives them through the session
// pipeline, and serves the conversation and the latest extracted report.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mydocta/docta/pkg/chat"
	"github.com/mydocta/docta/pkg/gemini"
	"github.com/mydocta/docta/pkg/prompt"
	"github.com/mydocta/docta/pkg/session"
	"github.com/mydocta/docta/pkg/store"
)

// Server is the chat gateway. It owns the session controller and its
// storage, and exposes the JSON API consumed by the browser client and
// doctactl.
type Server struct {
	config     Config
	controller *session.Controller
	storer     store.Storer
	gateway    *gemini.Client
	logger     *zap.Logger
	app        *fiber.App
}

// New creates a new Server.
func New(cfg Config, logger *zap.Logger) (*Server, error) {
	var storer store.Storer
	var err error

	if cfg.DBPath != "" {
		storer, err = store.NewSQLiteStorer(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		logger.Info("using SQLite storage", zap.String("path", cfg.DBPath))
	} else {
		storer = store.NewMemoryStorer()
		logger.Info("using in-memory storage")
	}

	gateway, err := gemini.New(context.Background(), gemini.Config{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Params: cfg.Params,
		Safety: cfg.Safety,
	}, logger)
	if err != nil {
		storer.Close()
		return nil, fmt.Errorf("failed to create model gateway: %w", err)
	}

	slot := cfg.Slot
	if slot == "" {
		slot = store.DefaultSlot
	}

	controller := session.New(gateway, storer, slot, logger)
	if err := controller.Hydrate(context.Background()); err != nil {
		logger.Warn("failed to restore persisted conversation", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Data URLs for images and audio make request bodies large
		BodyLimit: 32 * 1024 * 1024,
	})

	s := &Server{
		config:     cfg,
		controller: controller,
		storer:     storer,
		gateway:    gateway,
		logger:     logger,
		app:        app,
	}

	s.registerRoutes(app)

	return s, nil
}

func (s *Server) registerRoutes(app *fiber.App) {
	app.Post("/api/chat", s.handleChat)
	app.Get("/api/history", s.handleHistory)
	app.Get("/api/report", s.handleReport)
	app.Post("/api/session/reset", s.handleReset)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// Run starts the gateway server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting gateway server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("model", s.config.Model),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// Close shuts down the gateway and releases resources.
func (s *Server) Close() error {
	if s.gateway != nil {
		if err := s.gateway.Close(); err != nil {
			s.logger.Warn("model gateway close error", zap.Error(err))
		}
	}

	return s.storer.Close()
}

type chatRequest struct {
	Prompt       string         `json:"prompt"`
	ImageDataURL string         `json:"imageDataUrl"`
	AudioDataURL string         `json:"audioDataUrl"`
	History      []chat.Message `json:"history"`
}

type chatResponse struct {
	Response string `json:"response"`
	Report   string `json:"report,omitempty"`
}

type historyResponse struct {
	Messages []chat.Message `json:"messages"`
	Count    int            `json:"count"`
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// handleChat runs one user turn through the session pipeline.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse chat request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	s.logger.Debug("received chat request",
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Bool("has_image", req.ImageDataURL != ""),
		zap.Bool("has_audio", req.AudioDataURL != ""),
		zap.Int("client_history", len(req.History)),
	)

	// The browser client mirrors the conversation locally; adopt its copy
	// only when this gateway has nothing stored (e.g. after a restart).
	if len(req.History) > 0 && s.controller.Seed(c.Context(), req.History) {
		s.logger.Info("rehydrated conversation from client history",
			zap.Int("message_count", len(req.History)))
	}

	outcome, err := s.controller.Submit(c.Context(), prompt.Input{
		Text:         req.Prompt,
		ImageDataURL: req.ImageDataURL,
		AudioDataURL: req.AudioDataURL,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	resp := chatResponse{Response: outcome.Response}
	if outcome.Report != nil {
		resp.Report = outcome.Report.Body
	}

	return c.JSON(resp)
}

// handleHistory returns the stored conversation in display order.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	msgs := s.controller.History()
	if msgs == nil {
		msgs = []chat.Message{}
	}

	return c.JSON(historyResponse{Messages: msgs, Count: len(msgs)})
}

// handleReport returns the report extracted from the latest reply.
func (s *Server) handleReport(c *fiber.Ctx) error {
	report := s.controller.CurrentReport()
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "no report available"})
	}

	return c.JSON(report)
}

// handleReset starts a new session, discarding the conversation and report.
func (s *Server) handleReset(c *fiber.Ctx) error {
	if err := s.controller.Reset(c.Context()); err != nil {
		s.logger.Error("failed to reset session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to reset session"})
	}

	s.logger.Info("session reset")

	return c.JSON(map[string]string{"status": "ok"})
}

// writeError maps pipeline failures onto the HTTP contract: 400 for bad
// input and content blocks, 403 for rejected credentials, 404 for an
// unavailable model, 409 for a submission already in flight, 500 for
// configuration, transport, and empty-response failures.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, session.ErrBusy):
		status = fiber.StatusConflict
	case errors.Is(err, prompt.ErrNoContent),
		errors.Is(err, prompt.ErrBadMedia),
		errors.Is(err, gemini.ErrContentBlocked):
		status = fiber.StatusBadRequest
	case errors.Is(err, gemini.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, gemini.ErrModelNotFound):
		status = fiber.StatusNotFound
	}

	if status == fiber.StatusInternalServerError {
		s.logger.Error("chat request failed", zap.Error(err))
	} else {
		s.logger.Debug("chat request rejected", zap.Int("status", status), zap.Error(err))
	}

	return c.Status(status).JSON(errorResponse{Error: err.Error()})
}
