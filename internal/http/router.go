package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	healthStatusOK        = "ok"
	healthStatusUnhealthy = "unhealthy"
)

type HealthChecker interface {
	Health() error
}

func RegisterRoutes(router *gin.Engine, handler *Handler, checkers ...HealthChecker) {
	products := router.Group("/products")
	products.GET("", handler.ListProducts)
	products.POST("", handler.CreateProduct)
	products.GET("/all", handler.AllProducts)
	products.GET("/search", handler.SearchProducts)
	products.GET("/semantic", handler.SemanticSearch)
	products.POST("/generate-description", handler.GenerateDescription)
	products.POST("/generate-image", handler.GenerateImage)
	products.GET("/:id", handler.GetProduct)
	products.PUT("/:id", handler.UpdateProduct)
	products.DELETE("/:id", handler.DeleteProduct)
	products.GET("/:id/image", handler.ProductImage)
	products.POST("/:id/restock", handler.RestockProduct)

	router.POST("/orders", handler.PlaceOrder)
	router.GET("/orders", handler.ListOrders)
	router.GET("/orders/:orderId", handler.GetOrder)

	router.GET("/chat/ask", handler.Ask)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		for _, checker := range checkers {
			if err := checker.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": healthStatusUnhealthy})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": healthStatusOK})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
