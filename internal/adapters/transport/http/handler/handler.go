package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/middleware"
	authsvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/auth/service"
	chatsvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/chat/service"
	tasksvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/task/service"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/config"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handler struct {
	auth    authsvc.Service
	tasks   tasksvc.Service
	chat    chatsvc.Service
	cfg     *config.Config
	metrics *metrics.Metrics
	log     *zap.Logger

	upgrader websocket.Upgrader
}

func New(
	auth authsvc.Service,
	tasks tasksvc.Service,
	chat chatsvc.Service,
	cfg *config.Config,
	m *metrics.Metrics,
	log *zap.Logger,
) *Handler {
	h := &Handler{auth: auth, tasks: tasks, chat: chat, cfg: cfg, metrics: m, log: log}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(h.log))
	router.Use(middleware.Metrics(h.metrics))

	if len(h.cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: h.cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type", "Accept",
				"X-Requested-With",
			},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: h.cfg.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	limited := router.Group("/", middleware.NewHTTPRateLimitPerIP(
		float64(h.cfg.RateLimitRPS), h.cfg.RateLimitBurst, 10_000, time.Hour,
	))
	limited.POST("/register", h.register)
	limited.POST("/login", h.login)
	limited.POST("/refresh", h.refresh)

	router.POST("/logout", h.logout)
	router.GET("/messages", h.messages)
	router.GET("/ws", h.chatSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))

	authed := router.Group("/", middleware.RequireAccount(h.auth))
	authed.GET("/user/username", h.getDisplayName)
	authed.POST("/user/username", h.setDisplayName)
	authed.GET("/chat/online", h.online)

	tasks := authed.Group("/tasks")
	tasks.POST("/", h.createTask)
	tasks.GET("/", h.listTasks)
	tasks.PUT("/:id/toggle", h.toggleTask)
	tasks.DELETE("/:id", h.deleteTask)

	return router
}

// checkOrigin accepts non-browser clients, configured origins and same-host
// pages.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}
