package main

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Alp4ka/gotable"
	"github.com/Alp4ka/gotable/auth"
	"github.com/Alp4ka/gotable/metrics"
)

// Server serves the registered tables over HTTP.
type Server struct {
	app    *fiber.App
	cfg    *Config
	guard  *auth.Guard
	logger *slog.Logger
}

func NewServer(cfg *Config, registry *gotable.Registry, logger *slog.Logger) (*Server, error) {
	guard, err := newGuard(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	dispatcher := &gotable.Dispatcher{
		Registry: registry,
		Auth:     guard,
		Tokens:   guard,
		Logger:   logger,
	}
	if cfg.Server.Metrics {
		dispatcher.Observer = metrics.NewCollector(reg)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	s := &Server{
		app:    app,
		cfg:    cfg,
		guard:  guard,
		logger: logger,
	}
	s.setupRoutes(dispatcher, reg)

	return s, nil
}

func newGuard(cfg AuthConfig, logger *slog.Logger) (*auth.Guard, error) {
	var opts []auth.TokenOption
	opts = append(opts, auth.WithLifetime(cfg.TokenTTL))
	if cfg.SingleUse {
		opts = append(opts, auth.WithSingleUse())
	}

	guard := &auth.Guard{Logger: logger}

	if cfg.Secret != "" {
		tokens, err := auth.NewTokens([]byte(cfg.Secret), opts...)
		if err != nil {
			return nil, err
		}
		guard.Tokens = tokens
	} else {
		logger.Warn("no auth secret configured, exports and fragments are disabled")
	}

	perms, err := auth.NewPermissions()
	if err != nil {
		return nil, err
	}
	for _, admin := range cfg.Admins {
		if err := perms.Assign(admin, auth.RoleAdministrator); err != nil {
			return nil, err
		}
	}
	guard.Permissions = perms

	return guard, nil
}

func (s *Server) setupRoutes(dispatcher *gotable.Dispatcher, reg *prometheus.Registry) {
	path := "/" + strings.Trim(s.cfg.Server.Path, "/")

	if s.cfg.Server.Metrics {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := s.app.Group("/api")
	api.Get("/token", s.handleToken)

	handler := adaptor.HTTPHandler(dispatcher)
	s.app.Get(path, handler)
	s.app.Post(path, handler)
}

// handleToken issues a token for a client side fragment refresh or export.
func (s *Server) handleToken(c *fiber.Ctx) error {
	action := c.Query("action", gotable.ActionFragment)
	if action != gotable.ActionFragment && action != gotable.ActionExport {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown action"})
	}

	subject := c.Get(auth.HeaderUser)
	allowed, err := s.guard.Permissions.Can(subject, auth.PermissionManage)
	if err != nil {
		s.logger.Error("cannot check permission", "subject", subject, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
	}
	if s.guard.Tokens == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "tokens are disabled"})
	}

	token, err := s.guard.Tokens.Issue(subject, action)
	if err != nil {
		s.logger.Error("cannot issue token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	return c.JSON(fiber.Map{"token": token, "action": action})
}

func (s *Server) Listen() error {
	s.logger.Info("listening", "addr", s.cfg.Server.Addr, "path", s.cfg.Server.Path)
	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
