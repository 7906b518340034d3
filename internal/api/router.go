// Package api exposes the dependency engine over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/rparkin1/wealthNavigator-sub000/internal/engine"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
	"github.com/rparkin1/wealthNavigator-sub000/internal/metrics"
)

const serviceName = "goalgraph"

// RouterConfig holds the optional collaborators of the router.
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics. The route is omitted when nil.
	Gatherer       prometheus.Gatherer
	TracerProvider trace.TracerProvider
}

type handler struct {
	svc    *engine.Service
	logger *slog.Logger
}

var registerOnce sync.Once

// registerValidators adds the dependency_type tag to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("dependency_type", func(fl validator.FieldLevel) bool {
				_, err := goal.ParseDependencyType(fl.Field().String())
				return err == nil
			})
		}
	})
}

// NewRouter returns the gin engine serving every route.
func NewRouter(svc *engine.Service, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracerProvider != nil {
		r.Use(otelgin.Middleware(serviceName, otelgin.WithTracerProvider(cfg.TracerProvider)))
	}
	r.Use(requestLogger(cfg.Logger, cfg.Metrics))

	h := &handler{svc: svc, logger: cfg.Logger}

	r.GET("/health", h.health)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	deps := r.Group("/dependencies")
	{
		deps.POST("", h.createEdge)
		deps.GET("", h.listEdges)
		deps.GET("/goal/:goalId", h.edgesForGoal)
		deps.PATCH("/:id", h.updateEdge)
		deps.DELETE("/:id", h.deleteEdge)
		deps.POST("/validate", h.validate)
		deps.POST("/timeline", h.timeline)
		deps.POST("/optimize", h.optimize)
	}
	return r
}

// requestLogger logs one line per request and records request metrics.
func requestLogger(logger *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.ObserveRequest(route, strconv.Itoa(status), elapsed)

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
			slog.String("request_id", id),
		)
	}
}
