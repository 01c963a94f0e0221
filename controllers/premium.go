package controllers

import (
	"net/http"

	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
)

type PremiumRequestInput struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,min=10"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type PremiumController struct {
	Premium *services.PremiumService
}

// CreatePremiumRequest records an upgrade contact request. No session needed.
func (pc *PremiumController) CreatePremiumRequest(c *gin.Context) {
	var input PremiumRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	req, err := pc.Premium.AddPremiumRequest(c.Request.Context(), services.PremiumRequestInput{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: input.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}
