package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cmdgate/internal/admin"
	"cmdgate/internal/auth"
	"cmdgate/internal/models"
)

// ListUsers returns all identities with balances and submission counts
// (admin only).
func ListUsers(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := adm.ListUsers(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
	}
}

// CreateUser creates an identity with an initial balance (admin only).
// The generated API key is included in this response and never again.
func CreateUser(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Name     string `json:"name" binding:"max=200"`
			Password string `json:"password" binding:"omitempty,min=8"`
			Role     string `json:"role" binding:"omitempty,oneof=member admin"`
			Credits  int64  `json:"credits" binding:"gte=0,lte=100000"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.Email = strings.TrimSpace(strings.ToLower(input.Email))

		actor := auth.CurrentUser(c)
		user, err := adm.CreateUser(c.Request.Context(), actor, input.Email, input.Name,
			input.Password, models.Role(input.Role), input.Credits)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "User created",
			"user":    user,
			"api_key": user.APIKey,
			"warning": "Save the API key now - it will not be shown again!",
		})
	}
}

// AdjustCredits sets an identity's balance to an absolute value (admin
// only).
func AdjustCredits(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			Credits *int64 `json:"credits" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		actor := auth.CurrentUser(c)
		user, err := adm.AdjustCredits(c.Request.Context(), actor, id, *input.Credits)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Credits updated", "user": user})
	}
}
