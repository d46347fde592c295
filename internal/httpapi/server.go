// Package httpapi serves the pull API: a thin authenticated read-through over
// the registered extractors, plus operator endpoints for status, logs, and
// the sync triggers.
package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/internal/etl"
	"github.com/Mousaahmad63636/DataSyncService/internal/status"
	"github.com/Mousaahmad63636/DataSyncService/internal/worker"
)

const (
	defaultPullLimit = 100
	maxPullLimit     = 500
)

// Puller is the engine surface the pull endpoints read from.
type Puller interface {
	Lookup(entity string) (etl.Registration, bool)
}

// Controls is the scheduler surface the operator endpoints drive.
type Controls interface {
	Enable()
	Disable()
	TryRunNow() error
}

// Config wires the server to the rest of the service.
type Config struct {
	Auth      *Auth
	Engine    Puller
	Scheduler Controls
	Status    *status.Registry
	Ring      *status.Ring
	Log       *logrus.Entry

	// DefaultWindow backs the pull cursor when the caller sends no `after`.
	DefaultWindow time.Duration

	// QueryTimeout bounds one pull's source query.
	QueryTimeout time.Duration
}

type Server struct {
	app *fiber.App
	cfg Config
}

func NewServer(cfg Config) *Server {
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = 30 * 24 * time.Hour
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = time.Minute
	}

	app := fiber.New(fiber.Config{
		AppName: "datasync",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())

	s := &Server{app: app, cfg: cfg}

	app.Get("/healthz", s.handleHealth)

	api := app.Group("/api/v1", cfg.Auth.Middleware())
	api.Get("/pull/:entity", s.handlePull)
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleLogs)
	api.Post("/scheduler/enable", s.handleSchedulerEnable)
	api.Post("/scheduler/disable", s.handleSchedulerDisable)
	api.Post("/sync/run", s.handleSyncRun)

	return s
}

// App exposes the fiber app for in-process request tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving the API until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr, fiber.ListenConfig{})
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	snap := s.cfg.Status.Snapshot()
	return c.JSON(fiber.Map{
		"status":       "ok",
		"serverStatus": snap.ServerStatus,
		"source":       snap.ConnectionStatus,
		"target":       snap.TargetStatus,
	})
}

// pullResponse is one page of documents for a pulling device. NextAfter and
// NextAfterID address the first row the client has not acknowledged yet and
// feed straight back into the next request.
type pullResponse struct {
	Entity      string         `json:"entity"`
	Items       []etl.Document `json:"items"`
	Count       int            `json:"count"`
	HasMore     bool           `json:"hasMore"`
	NextAfter   string         `json:"nextAfter"`
	NextAfterID int64          `json:"nextAfterId"`
}

func (s *Server) handlePull(c fiber.Ctx) error {
	entity := c.Params("entity")
	reg, ok := s.cfg.Engine.Lookup(entity)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown entity: "+entity)
	}

	cur := etl.Cursor{Since: time.Now().UTC().Add(-s.cfg.DefaultWindow)}
	if raw := c.Query("after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "after must be an RFC3339 timestamp")
		}
		cur.Since = t.UTC()
	}
	if raw := c.Query("afterId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "afterId must be a non-negative integer")
		}
		cur.AfterID = id
	}

	limit := defaultPullLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPullLimit {
		limit = maxPullLimit
	}

	ctx, cancel := context.WithTimeout(c.Context(), s.cfg.QueryTimeout)
	defer cancel()
	page, err := reg.Extractor.ChangedPage(ctx, cur, limit)
	if err != nil {
		s.cfg.Log.WithError(err).WithFields(logrus.Fields{
			"entity": entity,
			"device": Device(c),
		}).Error("Pull query failed")
		return fiber.NewError(fiber.StatusBadGateway, "source query failed")
	}

	items := page.Docs
	if items == nil {
		items = []etl.Document{}
	}
	return c.JSON(pullResponse{
		Entity:      entity,
		Items:       items,
		Count:       len(items),
		HasMore:     page.HasMore,
		NextAfter:   page.Next.Since.UTC().Format(time.RFC3339Nano),
		NextAfterID: page.Next.AfterID,
	})
}

func (s *Server) handleStatus(c fiber.Ctx) error {
	return c.JSON(s.cfg.Status.Snapshot())
}

func (s *Server) handleLogs(c fiber.Ctx) error {
	lines := s.cfg.Ring.Lines()
	return c.JSON(fiber.Map{"count": len(lines), "lines": lines})
}

func (s *Server) handleSchedulerEnable(c fiber.Ctx) error {
	s.cfg.Scheduler.Enable()
	return c.JSON(fiber.Map{"autoSyncEnabled": true})
}

func (s *Server) handleSchedulerDisable(c fiber.Ctx) error {
	s.cfg.Scheduler.Disable()
	return c.JSON(fiber.Map{"autoSyncEnabled": false})
}

func (s *Server) handleSyncRun(c fiber.Ctx) error {
	if err := s.cfg.Scheduler.TryRunNow(); err != nil {
		if errors.Is(err, worker.ErrStopped) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"started": true})
}
