package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/feeds/:file", handler.GetFeed)
	r.GET("/health", handler.GetHealth)

	if apiAccessKey == "" {
		slog.Info("API endpoints disabled (API_ACCESS_KEY not set)")
		return
	}

	api := r.Group("/api")
	api.Use(authMiddleware(apiAccessKey))
	{
		api.GET("/templates", handler.APIListTemplates)
		api.POST("/templates", handler.APICreateTemplate)
		api.GET("/templates/:name", handler.APIGetTemplate)
		api.PUT("/templates/:name", handler.APIUpdateTemplate)
		api.DELETE("/templates/:name", handler.APIDeleteTemplate)
		api.POST("/templates/:name/reload", handler.APIReloadTemplate)
		api.POST("/templates/:name/generate", handler.APIGenerateTemplate)
		api.POST("/templates/:name/schedule", handler.APIScheduleTemplate)

		api.POST("/templates/:name/mappings", handler.APIAddMapping)
		api.PUT("/templates/:name/mappings/:id", handler.APIUpdateMapping)
		api.DELETE("/templates/:name/mappings/:id", handler.APIDeleteMapping)
		api.POST("/templates/:name/google-fields", handler.APIAddGoogleFields)

		api.GET("/google-fields", handler.APIListGoogleFields)
		api.GET("/transformations", handler.APIListTransformations)
		api.GET("/products/fields", handler.APIProductFields)

		api.GET("/history", handler.APIListHistory)
		api.GET("/history/:id", handler.APIGetHistory)
		api.DELETE("/history/:id", handler.APIDeleteHistory)

		api.GET("/rates", handler.APIListRates)
		api.PUT("/rates/:base/:target", handler.APIPutRate)
		api.DELETE("/rates/:base/:target", handler.APIDeleteRate)
	}
	slog.Info("API endpoints enabled with authentication")
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
