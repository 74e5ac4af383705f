package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/realtime"
)

// Server is the echo adapter for the router and the realtime endpoint
type Server struct {
	echo   *echo.Echo
	router *Router
	logger *zap.Logger
}

// NewServer builds the echo instance and mounts every route
func NewServer(router *Router, ws *realtime.Handler, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, router: router, logger: logger}

	e.Use(Recovery(logger))
	e.Use(RequestID())
	e.Use(Logger(logger))

	if ws != nil {
		ws.RegisterRoutes(e.Group(""))
		if router.prefix != "" {
			ws.RegisterRoutes(e.Group(router.prefix))
		}
	}
	e.Any("/*", s.handle)
	e.Any("/", s.handle)

	return s
}

// Handler exposes the echo instance as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handle(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	query := make(map[string]string)
	for key, values := range c.QueryParams() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	resp := s.router.Dispatch(req.Context(), Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  query,
		Body:   body,
	})

	for k, v := range resp.Headers {
		c.Response().Header().Set(k, v)
	}
	return c.Blob(resp.StatusCode, echo.MIMEApplicationJSON, resp.Body)
}

// RegisterLifecycle starts and stops the HTTP listener with the fx app
func (s *Server) RegisterLifecycle(lc fx.Lifecycle, port int) {
	addr := fmt.Sprintf(":%d", port)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Error("http server stopped", zap.Error(err))
				}
			}()
			s.logger.Info("http server started", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := s.echo.Shutdown(ctx); err != nil {
				s.logger.Error("failed to shut down http server", zap.Error(err))
				return err
			}
			s.logger.Info("http server stopped")
			return nil
		},
	})
}
