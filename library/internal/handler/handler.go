package handler

import (
	"net/http"
	"strconv"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
	md "github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/middleware"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/validate"
	_ "github.com/bohdan-yatsyna/Nearby-Lib-API/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	librarySvc LibraryService
	authCfg    md.AuthConfig
	log        *zap.Logger
}

func New(librarySvc LibraryService, authCfg md.AuthConfig, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		authCfg:    authCfg,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/books", h.GetBooks)
	api.GET("/books/:id", h.GetBook)

	authed := api.Group("", md.Authentication(h.authCfg))
	authed.POST("/books", h.CreateBook)
	authed.DELETE("/books/:id", h.DeleteBook)

	authed.GET("/users/me", h.Me)
	authed.PUT("/users/me", h.UpdateMe)
	authed.PATCH("/users/me", h.UpdateMe)

	authed.POST("/borrowings", h.CreateBorrowing)
	authed.GET("/borrowings", h.GetBorrowings)
	authed.GET("/borrowings/:id", h.GetBorrowing)
	authed.POST("/borrowings/:id/return", h.ReturnBorrowing)

	authed.GET("/payments", h.GetPayments)
	authed.GET("/payments/:id", h.GetPayment)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps domain errors onto HTTP statuses.
func (h *Handler) httpError(err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrUnavailable),
		errors.Is(err, errs.ErrInvalidDate),
		errors.Is(err, errs.ErrAlreadyReturned),
		errors.Is(err, errs.ErrInvalidBook),
		errors.Is(err, errs.ErrInvalidUser):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrProtected),
		errors.Is(err, errs.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrTransient):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	h.log.Error("internal", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func principal(c echo.Context) (auth.Principal, error) {
	p, err := auth.FromContext(c.Request().Context())
	if err != nil {
		return auth.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return p, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is invalid")
	}
	return id, nil
}

func paging(c echo.Context) (page, size int, err error) {
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil || page < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil || size < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "size is invalid")
		}
	}
	return page, size, nil
}
