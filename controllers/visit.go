package controllers

import (
	"net/http"
	"time"

	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
)

// AddVisitInput defines the expected JSON structure for recording a visit
type AddVisitInput struct {
	Date      time.Time  `json:"date"`
	Services  []string   `json:"services" binding:"required,min=1"`
	Amount    float64    `json:"amount" binding:"min=0"`
	Paid      bool       `json:"paid"`
	Notes     string     `json:"notes"`
	NextVisit *time.Time `json:"nextVisit"`
}

type PaymentStatusInput struct {
	Paid *bool `json:"paid" binding:"required"`
}

type VisitController struct {
	Visits *services.VisitMutator
}

// AddVisit records a visit for a client
func (vc *VisitController) AddVisit(c *gin.Context) {
	var input AddVisitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	client, err := vc.Visits.AddVisit(c.Request.Context(), c.Param("id"), services.VisitInput{
		Date:      input.Date,
		Services:  input.Services,
		Amount:    input.Amount,
		Paid:      input.Paid,
		Notes:     input.Notes,
		NextVisit: input.NextVisit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, presentClient(c, client))
}

// UpdatePaymentStatus marks a visit paid or unpaid
func (vc *VisitController) UpdatePaymentStatus(c *gin.Context) {
	var input PaymentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	visit, err := vc.Visits.UpdateVisitPaymentStatus(c.Request.Context(), c.Param("id"), c.Param("visitId"), *input.Paid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, visit)
}

// DeleteVisit removes a visit; deleting an unknown visit id succeeds
func (vc *VisitController) DeleteVisit(c *gin.Context) {
	if err := vc.Visits.DeleteVisit(c.Request.Context(), c.Param("id"), c.Param("visitId")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
