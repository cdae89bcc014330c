package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/dietsupport/internal/api/handler"
	"github.com/timmy/dietsupport/internal/api/middleware"
	"github.com/timmy/dietsupport/internal/logger"
)

// RouterConfig carries everything SetupRouter wires together.
type RouterConfig struct {
	Mode   string
	CORS   middleware.CORSConfig
	Logger *logger.Logger
	Tokens middleware.TokenValidator
	Health *handler.HealthHandler
	Fridge *handler.FridgeHandler
	User   *handler.UserHandler
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg RouterConfig) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	health := cfg.Health
	if health == nil {
		health = handler.NewHealthHandler(nil)
	}
	r.GET("/health", health.Health)

	if cfg.User != nil {
		r.POST("/register", cfg.User.Register)
	}

	if cfg.Fridge != nil {
		authed := r.Group("/", middleware.Auth(cfg.Tokens))
		{
			authed.POST("/analyze", cfg.Fridge.Analyze)
			authed.GET("/fridge", cfg.Fridge.Current)
			authed.GET("/intake", cfg.Fridge.Intake)
		}
	}

	return r
}
