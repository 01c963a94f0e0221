package controllers

import (
	"net/http"

	"salonbook-backend/models"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
)

// CreateClientInput defines the expected JSON structure for creating a client
type CreateClientInput struct {
	Name  string `json:"name" binding:"required,min=2"`
	Phone string `json:"phone" binding:"required"`
}

// UpdateClientInput defines the expected JSON structure for updating a client
type UpdateClientInput struct {
	Name  *string `json:"name" binding:"omitempty,min=2"`
	Phone *string `json:"phone"`
}

type ClientController struct {
	Clients *services.ClientService
}

// presentClient withholds visit history from assistants.
func presentClient(c *gin.Context, client models.Client) models.Client {
	if models.Role(c.GetString("role")) == models.RoleOwner {
		return client
	}
	client.Visits = []models.Visit{}
	client.HistoryHidden = true
	return client
}

// CreateClient creates a new client and allocates its display id
func (cc *ClientController) CreateClient(c *gin.Context) {
	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate phone format
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	client, err := cc.Clients.AddClient(c.Request.Context(), input.Name, input.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, presentClient(c, client))
}

// GetClients lists the clients, newest first
func (cc *ClientController) GetClients(c *gin.Context) {
	clients, err := cc.Clients.ListClients(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]models.Client, 0, len(clients))
	for _, client := range clients {
		out = append(out, presentClient(c, client))
	}
	c.JSON(http.StatusOK, out)
}

// GetClient retrieves a specific client by ID
func (cc *ClientController) GetClient(c *gin.Context) {
	client, err := cc.Clients.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentClient(c, client))
}

// UpdateClient changes a client's name and/or phone
func (cc *ClientController) UpdateClient(c *gin.Context) {
	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Phone != nil && !utils.ValidatePhone(*input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	client, err := cc.Clients.UpdateClient(c.Request.Context(), c.Param("id"), services.ClientUpdate{
		Name:  input.Name,
		Phone: input.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentClient(c, client))
}

// DeleteClient removes a client and all of its visits
func (cc *ClientController) DeleteClient(c *gin.Context) {
	if err := cc.Clients.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckDuplicate reports an existing client with the same name or phone.
// The result is advisory; creation is never blocked by it.
func (cc *ClientController) CheckDuplicate(c *gin.Context) {
	dup, err := cc.Clients.FindDuplicate(c.Request.Context(), c.Query("name"), c.Query("phone"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if dup == nil {
		c.JSON(http.StatusOK, gin.H{"duplicate": nil})
		return
	}

	dup.Client = presentClient(c, dup.Client)
	c.JSON(http.StatusOK, gin.H{"duplicate": dup})
}
