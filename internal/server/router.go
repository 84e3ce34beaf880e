package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/api/handler"
	"github.com/zapify/zapify/internal/api/middleware"
	"github.com/zapify/zapify/internal/realtime"
)

type Options struct {
	Env         string
	AuthSecret  string
	FrontendURL string

	HealthHandler       *handler.HealthHandler
	AuthHandler         *handler.AuthHandler
	ContactHandler      *handler.ContactHandler
	ConversationHandler *handler.ConversationHandler
	MessageHandler      *handler.MessageHandler
	AutoReplyHandler    *handler.AutoReplyHandler
	FlowHandler         *handler.FlowHandler
	TemplateHandler     *handler.TemplateHandler
	CampaignHandler     *handler.CampaignHandler
	ConfigHandler       *handler.ConfigHandler
	StatsHandler        *handler.StatsHandler

	Hub       *realtime.Hub
	RateLimit middleware.RateLimitOption
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	origins := []string{"*"}
	if opts.FrontendURL != "" {
		origins = []string{opts.FrontendURL}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		MaxAge:       12 * time.Hour,
	}))

	api := router.Group("/api")

	opts.HealthHandler.Register(api)
	opts.AuthHandler.RegisterPublic(api)

	if opts.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			opts.Hub.ServeWS(c.Writer, c.Request)
		})
	}

	protected := api.Group("")
	if opts.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(opts.RateLimit))
	}
	protected.Use(middleware.Auth(opts.AuthSecret))

	opts.AuthHandler.RegisterProtected(protected)
	opts.ContactHandler.Register(protected)
	opts.ConversationHandler.Register(protected)
	opts.MessageHandler.Register(protected)
	opts.AutoReplyHandler.Register(protected)
	opts.FlowHandler.Register(protected)
	opts.TemplateHandler.Register(protected)
	opts.CampaignHandler.Register(protected)
	opts.ConfigHandler.Register(protected)
	opts.StatsHandler.Register(protected)

	return router
}
