package api

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/api/handler"
	"github.com/nexoraai/nexora_server/internal/api/middleware"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
)

type Router struct {
	authHandler       *handler.AuthHandler
	profileHandler    *handler.ProfileHandler
	generationHandler *handler.GenerationHandler
	checkoutHandler   *handler.CheckoutHandler
	metaHandler       *handler.MetaHandler
	historyHandler    *handler.HistoryHandler
	websocketHandler  *handler.WebSocketHandler
	healthHandler     *handler.HealthHandler
	provider          identity.Provider
	plans             middleware.PlanChecker
	cfg               *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	generationHandler *handler.GenerationHandler,
	checkoutHandler *handler.CheckoutHandler,
	metaHandler *handler.MetaHandler,
	historyHandler *handler.HistoryHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	provider identity.Provider,
	plans middleware.PlanChecker,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:       authHandler,
		profileHandler:    profileHandler,
		generationHandler: generationHandler,
		checkoutHandler:   checkoutHandler,
		metaHandler:       metaHandler,
		historyHandler:    historyHandler,
		websocketHandler:  websocketHandler,
		healthHandler:     healthHandler,
		provider:          provider,
		plans:             plans,
		cfg:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.CORS(r.cfg.CORS))
	engine.MaxMultipartMemory = 8 << 20

	engine.GET("/health", r.healthHandler.Health)

	optional := middleware.OptionalAuth(r.provider)
	required := middleware.Auth(r.provider)

	// panel auth and Meta login
	auth := engine.Group("/auth")
	{
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)
		auth.GET("/plan", required, r.authHandler.Plan)
		auth.GET("/meta/start", optional, r.metaHandler.Start)
		auth.GET("/meta/callback", r.metaHandler.Callback)
	}

	api := engine.Group("/api")
	{
		api.GET("/ws", r.websocketHandler.Handle)

		limiter := middleware.NewRateLimiter(r.cfg.Generation.RatePerMinute)
		generation := api.Group("")
		generation.Use(optional, limiter.Middleware())
		{
			generation.POST("/generate-post",
				r.generationHandler.Prepare,
				middleware.RequirePlan(r.plans, r.cfg.Generation.RequirePlan),
				r.generationHandler.GeneratePost,
			)
			generation.POST("/templates/ig-flyer", r.generationHandler.IGFlyer)
		}

		meta := api.Group("/meta")
		meta.Use(optional)
		{
			meta.GET("/pages", r.metaHandler.Pages)
			meta.POST("/select-page", r.metaHandler.SelectPage)
			meta.POST("/sync-instagram", r.metaHandler.SyncInstagram)
		}

		checkout := api.Group("/checkout")
		{
			checkout.GET("/plans", r.checkoutHandler.Plans)
			checkout.POST("/preference", required, r.checkoutHandler.Preference)
			checkout.POST("/webhook", r.checkoutHandler.Webhook)
		}

		authenticated := api.Group("")
		authenticated.Use(required)
		{
			authenticated.GET("/profile", r.profileHandler.GetProfile)
			authenticated.PUT("/profile", r.profileHandler.UpdateProfile)

			authenticated.GET("/history", r.historyHandler.List)
			authenticated.POST("/history", r.historyHandler.Add)
			authenticated.DELETE("/history", r.historyHandler.Clear)
		}
	}

	r.setupStatic(engine)
	return engine
}

// setupStatic serves the landing page, the panel and their assets.
func (r *Router) setupStatic(engine *gin.Engine) {
	dir := r.cfg.Server.StaticDir
	if dir == "" {
		return
	}

	engine.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(dir, "index.html"))
	})
	engine.GET("/app", func(c *gin.Context) {
		c.File(filepath.Join(dir, "painel.html"))
	})
	engine.NoRoute(func(c *gin.Context) {
		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+c.Request.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			c.File(name)
			return
		}
		response.NotFoundError(c, "")
	})
}
