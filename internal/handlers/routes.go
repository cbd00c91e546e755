package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the registry API under /api/v1 and the health probes at the root.
func RegisterRoutes(router gin.IRouter, properties *PropertyHandler, transfers *TransferHandler, health *HealthHandler) {
	router.GET("/health", health.Health)
	router.GET("/health/ready", health.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", health.Info)

		props := v1.Group("/properties")
		{
			props.POST("", properties.Register)
			props.GET("", properties.List)
			props.GET("/:propertyId", properties.Get)
			props.GET("/:propertyId/transfers", properties.Transfers)
		}

		xfers := v1.Group("/transfers")
		{
			xfers.POST("", transfers.Create)
			xfers.GET("", transfers.List)
		}
	}
}
