package api

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/logging"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's request id or generates one
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}

// Logger writes one access log line per request
func Logger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			reqLogger := logging.WithRequestID(logger, rid)
			if err != nil {
				reqLogger.Error("request", append(fields, zap.Error(err))...)
			} else {
				reqLogger.Info("request", fields...)
			}

			return err
		}
	}
}

// Recovery turns a panic into a 500 envelope
func Recovery(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					logger.Error("panic recovered",
						zap.String("request_id", fmt.Sprintf("%v", c.Get("request_id"))),
						zap.String("panic", fmt.Sprintf("%v", r)),
						zap.String("stack", string(stack[:n])),
					)

					for k, v := range corsHeaders() {
						c.Response().Header().Set(k, v)
					}
					err = c.JSON(http.StatusInternalServerError, Envelope{
						Success: false,
						Message: "Internal Server Error",
						Error:   fmt.Sprintf("%v", r),
					})
				}
			}()
			return next(c)
		}
	}
}
