package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/reanalysis-maps/internal/usecase"
)

// SetupRouter creates and configures the Gin router.
// An empty allowedOrigins list allows all origins.
func SetupRouter(mapUC *usecase.MapUseCase, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	router.SetHTMLTemplate(pageTemplate)

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(mapUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/maps/:variant/:date", handler.GetMap)
	v1.GET("/grids/:variant/:date", handler.GetGrid)
	v1.GET("/grids/:variant/:date/point", handler.GetPoint)
	v1.GET("/dates", handler.GetDates)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	// Pages.
	router.GET("/", handler.Index)
	router.GET("/:variant", handler.Page)

	return router
}
