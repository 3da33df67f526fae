package middleware

import (
	"net/http"
	"strings"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

const (
	AuthorizationHeader = "Authorization"
	bearer              = "Bearer "
)

type AuthConfig struct {
	JWTKey string `envconfig:"JWT_KEY"`
	// TrustHeaders accepts X-User-Id / X-User-Staff set by an upstream gateway
	// when no bearer token is present.
	TrustHeaders bool `envconfig:"AUTH_TRUST_HEADERS" default:"false"`
}

// Authentication resolves the caller into an auth.Principal stored on the
// request context.
func Authentication(cfg AuthConfig) echo.MiddlewareFunc {
	key := []byte(cfg.JWTKey)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var (
				p   auth.Principal
				err error
			)
			switch authorization := req.Header.Get(AuthorizationHeader); {
			case authorization != "":
				if !strings.HasPrefix(authorization, bearer) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization Header")
				}
				if len(key) == 0 {
					return echo.NewHTTPError(http.StatusUnauthorized, "JwtAccessDenied")
				}
				p, err = auth.ParseToken(strings.TrimPrefix(authorization, bearer), key)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "JwtAccessDenied")
				}
			case cfg.TrustHeaders:
				p, err = auth.FromHeaders(req.Header.Get(auth.XUserIDHeader), req.Header.Get(auth.XUserStaffHeader))
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "user-id is empty")
				}
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "No Authorization Header")
			}

			c.SetRequest(req.WithContext(auth.SetAuthContext(req.Context(), p)))
			return next(c)
		}
	}
}

func NewRateLimiter(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}

func RequestLoggerConfig(log *zap.Logger) middleware.RequestLoggerConfig {
	log = log.Named("echo")
	c := middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			if v.Error != nil {
				level = zapcore.ErrorLevel
			}
			log.Log(level, "request",
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}
	return c
}
