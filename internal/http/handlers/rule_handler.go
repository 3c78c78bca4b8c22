package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cmdgate/internal/admin"
	"cmdgate/internal/auth"
	"cmdgate/internal/models"
)

// ListRules returns all rules ordered by priority ascending then id
// ascending. Readable by any authenticated user.
func ListRules(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rules, err := adm.ListRules(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rules": rules, "total": len(rules)})
	}
}

// CreateRule stores a new admission rule (admin only).
func CreateRule(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Pattern     string `json:"pattern" binding:"required,max=255"`
			Action      string `json:"action" binding:"required,oneof=AUTO_ACCEPT AUTO_REJECT"`
			Priority    int    `json:"priority" binding:"omitempty,gte=1,lte=1000"`
			Description string `json:"description" binding:"max=255"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		actor := auth.CurrentUser(c)
		rule, err := adm.CreateRule(c.Request.Context(), actor, input.Pattern,
			models.RuleAction(input.Action), input.Priority, input.Description)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Rule created", "rule": rule})
	}
}

// DeleteRule removes a rule by id (admin only).
func DeleteRule(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
			return
		}

		actor := auth.CurrentUser(c)
		if err := adm.DeleteRule(c.Request.Context(), actor, id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
	}
}
