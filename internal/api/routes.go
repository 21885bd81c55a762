package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/status", handler.GetStatus)
		api.GET("/segments", handler.GetSegments)
		api.GET("/metrics", handler.GetAllMetrics)
		api.GET("/metrics/:code", handler.GetSegmentMetric)
		api.GET("/outpacing", handler.GetOutpacing)
		api.GET("/report", handler.GetReport)
		api.GET("/sales/adjusted/:code", handler.GetAdjustedSales)
		api.POST("/ingest", handler.IngestSales)
		api.POST("/reviews", handler.ReviewSale)
	}
}
