package controllers

import (
	"net/http"
	"time"

	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
)

// DashboardController serves the owner's day view, the payments tracker and
// the appointment calendar.
type DashboardController struct {
	Insights *services.InsightService
}

// dayParam reads a YYYY-MM-DD query value. ok is false when the value was
// present but malformed; a response has already been written in that case.
func (dc *DashboardController) dayParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	day, err := utils.ParseDay(raw, dc.Insights.Location())
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" date, expected YYYY-MM-DD")
		return nil, false
	}
	return &day, true
}

// GetDaySchedule returns visits for ?date= (default today) with paid/unpaid totals
func (dc *DashboardController) GetDaySchedule(c *gin.Context) {
	day, ok := dc.dayParam(c, "date")
	if !ok {
		return
	}
	if day == nil {
		now := time.Now().In(dc.Insights.Location())
		day = &now
	}

	schedule, err := dc.Insights.DaySchedule(c.Request.Context(), *day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// GetPayments splits visits in the optional ?from=&to= range into paid and unpaid
func (dc *DashboardController) GetPayments(c *gin.Context) {
	from, ok := dc.dayParam(c, "from")
	if !ok {
		return
	}
	to, ok := dc.dayParam(c, "to")
	if !ok {
		return
	}
	if from == nil && to != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "A to date requires a from date")
		return
	}

	overview, err := dc.Insights.Payments(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetCalendar returns visits and upcoming appointments per day. Defaults to
// the current month.
func (dc *DashboardController) GetCalendar(c *gin.Context) {
	from, ok := dc.dayParam(c, "from")
	if !ok {
		return
	}
	to, ok := dc.dayParam(c, "to")
	if !ok {
		return
	}

	now := time.Now().In(dc.Insights.Location())
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if from != nil {
		start = *from
	}
	end := start.AddDate(0, 1, -1)
	if to != nil {
		end = *to
	}

	days, err := dc.Insights.Calendar(c.Request.Context(), start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from": start.Format("2006-01-02"),
		"to":   end.Format("2006-01-02"),
		"days": days,
	})
}
