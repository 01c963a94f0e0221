package controllers

import (
	"errors"
	"net/http"

	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var storeErr *services.StoreError
	switch {
	case errors.Is(err, services.ErrAuthRequired):
		utils.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, capitalize(err.Error()))
	case errors.Is(err, services.ErrInvalidInput):
		utils.RespondWithError(c, http.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, services.ErrTransactionConflict):
		utils.RespondWithError(c, http.StatusConflict, "The record changed concurrently, please try again")
	case errors.As(err, &storeErr):
		utils.RespondWithError(c, http.StatusServiceUnavailable, capitalize(storeErr.Msg))
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
