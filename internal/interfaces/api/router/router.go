package router

import (
	"fmt"
	"net/http"
	"reminder/internal/interfaces/api/handler"
	"reminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the dependencies for the router.
type Config struct {
	ReminderHandler *handler.ReminderHandler
	LineHandler     *handler.LineHandler // nil when LINE is not configured
	Logger          logger.Logger
	Gatherer        prometheus.Gatherer // nil disables /metrics
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	log := logger.OrNop(cfg.Logger)
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Line-Signature"},
		MaxAge:       300,
	}))

	// Routes
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	rh := cfg.ReminderHandler
	reminders := e.Group("/reminders")
	reminders.GET("", rh.List)
	reminders.POST("", rh.Create)
	reminders.DELETE("", rh.DeleteAll)
	reminders.DELETE("/expired", rh.DeleteExpired)
	reminders.GET("/:id", rh.Get)
	reminders.PUT("/:id", rh.Replace)
	reminders.DELETE("/:id", rh.Delete)

	e.GET("/notifications", rh.Notifications)
	e.POST("/notifications/opened", rh.NotificationOpened)
	e.GET("/status", rh.Status)

	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// LINE Webhook Endpoint
	if cfg.LineHandler != nil {
		e.POST("/callback", cfg.LineHandler.HandleWebhook)
	}

	log.Info("Router initialized with routes.")
	return e
}
