package denoiseapi

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rs/zerolog/log"
)

var whitelistedRoutes = []string{"/health"}

// NewServer creates a new denoise server
func NewServer(serverConfig *ServerConfig) *Server {
	if serverConfig == nil {
		serverConfig = &ServerConfig{}
	}
	if serverConfig.Host == "" {
		serverConfig.Host = DefaultServerHost
	}
	if serverConfig.Port == 0 {
		serverConfig.Port = DefaultServerPort
	}
	if serverConfig.BodyLimit == 0 {
		serverConfig.BodyLimit = DefaultBodyLimit
	}

	log.Info().
		Str("host", serverConfig.Host).
		Int("port", serverConfig.Port).
		Int("body_limit", serverConfig.BodyLimit).
		Bool("auth_enabled", serverConfig.APIToken != "").
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:               false,
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             serverConfig.BodyLimit,
	})

	app.Use(recover.New()) // add panic recovery
	app.Use(TokenMiddleware(serverConfig.APIToken, whitelistedRoutes))
	app.Use(ZstdMiddleware(whitelistedRoutes, serverConfig.BodyLimit))

	server := &Server{
		App:    app,
		config: serverConfig,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(createResponse(HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().Unix(),
		}, nil))
	})

	return server
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	code := statusFor(err)

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]interface{}{}, err))
}

// ServeRoute registers handler under POST /<request type name>.
func ServeRoute[Req, Resp any](s *Server, handler RouterHandler[Req, Resp]) {
	var zero Req
	typeName := reflect.TypeOf(zero).Name()

	s.App.Post("/"+typeName, func(c *fiber.Ctx) error {
		var req Req
		if err := c.BodyParser(&req); err != nil {
			log.Error().
				Err(err).
				Str("route", "/"+typeName).
				Msg("Failed to parse request body")
			return c.Status(fiber.StatusBadRequest).
				JSON(createResponse(map[string]interface{}{}, err))
		}

		resp, err := handler(c, req)
		if err != nil {
			code := statusFor(err)
			log.Error().
				Err(err).
				Int("status_code", code).
				Str("route", "/"+typeName).
				Msg("Handler returned error")
			var zero Resp
			return c.Status(code).JSON(createResponse(zero, err))
		}

		return c.JSON(createResponse(resp, nil))
	})
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start blocks until the listener stops.
func (s *Server) Start() error {
	log.Info().Str("address", s.Address()).Msg("Starting denoise server")
	return s.App.Listen(s.Address())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}
