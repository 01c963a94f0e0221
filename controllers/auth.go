package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	OwnerPin string `json:"ownerPin" binding:"omitempty,numeric,len=4"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SelectRoleInput struct {
	Role string `json:"role" binding:"required,oneof=owner assistant"`
	Pin  string `json:"pin"`
}

// AuthController handles accounts, sessions and role selection.
type AuthController struct {
	DB              *gorm.DB
	Log             *zap.Logger
	Tokens          utils.TokenIssuer
	DefaultOwnerPin string
	SecureCookies   bool
}

func (ac *AuthController) setSession(c *gin.Context, token string) {
	c.SetCookie(
		utils.SessionCookie,
		token,
		int(utils.SessionMaxAge/time.Second),
		"/",
		"",
		ac.SecureCookies,
		true,
	)
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	}
}

func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput

	// Bind and validate input
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Check if email already exists
	var existingUser models.User
	result := ac.DB.Where("email = ?", email).First(&existingUser)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	pin := input.OwnerPin
	if pin == "" {
		pin = ac.DefaultOwnerPin
	}

	newUser := models.User{
		Email:    email,
		Name:     strings.TrimSpace(input.Name),
		Password: input.Password, // Will be hashed in BeforeCreate hook
		OwnerPin: pin,
	}
	if err := ac.DB.Create(&newUser).Error; err != nil {
		ac.Log.Error("create user", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := ac.Tokens.Generate(newUser.ID.String(), "")
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	ac.setSession(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userResponse(newUser),
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	result := ac.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// The role is chosen afterwards through SelectRole
	token, err := ac.Tokens.Generate(user.ID.String(), "")
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	if err := ac.DB.Model(&user).Update("last_login", &now).Error; err != nil {
		ac.Log.Warn("update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	ac.setSession(c, token)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// SelectRole reissues the session with a role. The owner role needs the PIN.
func (ac *AuthController) SelectRole(c *gin.Context) {
	userID := c.GetString("userId")

	var input SelectRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := ac.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	role := models.Role(input.Role)
	if role == models.RoleOwner && !utils.CheckPasswordHash(input.Pin, user.OwnerPin) {
		utils.RespondWithError(c, http.StatusForbidden, "Incorrect PIN")
		return
	}

	token, err := ac.Tokens.Generate(user.ID.String(), string(role))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	ac.setSession(c, token)

	c.JSON(http.StatusOK, gin.H{"token": token, "role": role})
}

func (ac *AuthController) Me(c *gin.Context) {
	userID := c.GetString("userId")

	var user models.User
	if err := ac.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
		"role": c.GetString("role"),
	})
}

// Logout clears the session cookie.
func (ac *AuthController) Logout(c *gin.Context) {
	c.SetCookie(utils.SessionCookie, "", -1, "/", "", ac.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
