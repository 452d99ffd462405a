package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"task-tracker/internal/service"
)

// Deps carries the collaborators of the HTTP API.
type Deps struct {
	Lists        *service.ListService
	Tasks        *service.TaskService
	Stats        *service.StatsService
	Tokens       *Tokens
	Clock        service.Clock
	DeletePolicy service.DeletePolicy
	AccessLog    bool
}

// Server exposes the tracker over JSON/HTTP.
type Server struct {
	app          *fiber.App
	lists        *service.ListService
	tasks        *service.TaskService
	stats        *service.StatsService
	tokens       *Tokens
	clock        service.Clock
	deletePolicy service.DeletePolicy
}

func New(deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = service.SystemClock
	}
	if deps.DeletePolicy == "" {
		deps.DeletePolicy = service.DeleteCascade
	}

	s := &Server{
		lists:        deps.Lists,
		tasks:        deps.Tasks,
		stats:        deps.Stats,
		tokens:       deps.Tokens,
		clock:        deps.Clock,
		deletePolicy: deps.DeletePolicy,
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	if deps.AccessLog {
		s.app.Use(logger.New())
	}
	s.setupRoutes()
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown waits for in-flight requests or ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(healthResponse{Status: "healthy"})
	})

	api := s.app.Group("/api/v1", requireOwner(s.tokens))

	lists := api.Group("/lists")
	lists.Post("/", s.createList)
	lists.Get("/", s.listLists)
	lists.Get("/summary", s.listSummaries)
	lists.Get("/:id", s.getList)
	lists.Patch("/:id", s.updateList)
	lists.Delete("/:id", s.deleteList)

	tasks := api.Group("/tasks")
	tasks.Post("/", s.createTask)
	tasks.Get("/", s.queryTasks)
	tasks.Get("/:id", s.getTask)
	tasks.Patch("/:id", s.updateTask)
	tasks.Delete("/:id", s.deleteTask)

	api.Get("/stats", s.statistics)
}

func (s *Server) now() time.Time {
	return s.clock.Now()
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(errorResponse{
		Error:   "http_error",
		Message: err.Error(),
	})
}
