// controllers/report.go
package controllers

import (
	"net/http"

	"salonbook-backend/services"

	"github.com/gin-gonic/gin"
)

// ReportController handles all reporting functions
type ReportController struct {
	Insights *services.InsightService
}

// GetReportAnalytics returns revenue and service popularity figures
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	summary, err := rc.Insights.Analytics(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
