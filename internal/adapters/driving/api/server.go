package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
	"github.com/custodia-labs/planscout/internal/logger"
)

// ErrMissingIndex is returned when the plan index is not provided.
var ErrMissingIndex = errors.New("api: plan index is required")

// Server serves the HTTP API.
type Server struct {
	index  driving.PlanIndex
	ingest driving.IngestionService
	log    *logger.Logger
	app    *fiber.App
}

// NewServer creates the server and registers its routes. ingest may be nil,
// in which case the ingest route is not registered.
func NewServer(index driving.PlanIndex, ingest driving.IngestionService, log *logger.Logger) (*Server, error) {
	if index == nil {
		return nil, ErrMissingIndex
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		index:  index,
		ingest: ingest,
		log:    log.Named("http"),
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "planscout",
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.logRequests)
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/search", s.handleSearch)
	s.app.Get("/stats", s.handleStats)

	providers := s.app.Group("/providers")
	providers.Get("/:provider/plans", s.handleProviderPlans)
	providers.Delete("/:provider/plans", s.handleRemoveProvider)

	if s.ingest != nil {
		s.app.Post("/ingest/:provider", s.handleIngest)
	}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()
	s.log.Info("HTTP API listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

// logRequests logs each request at debug level.
func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug("%s %s -> %d (%s)", c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
	return err
}

// handleError renders errors as JSON. Domain errors are mapped by kind.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.log.Error("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if errors.Is(err, domain.ErrIngestInProgress) {
		return fiber.StatusConflict
	}
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
