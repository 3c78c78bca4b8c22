package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cmdgate/internal/admin"
	"cmdgate/internal/auth"
	"cmdgate/internal/gateway"
	"cmdgate/internal/models"
	"cmdgate/internal/store"
)

// SubmitCommand runs one submission through the gateway. Rejections are
// normal 200 responses with a rejected status; only auth, validation
// and persistence failures surface as errors.
func SubmitCommand(gw *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Command string `json:"command" binding:"required,max=1000"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user := auth.CurrentUser(c)
		result, err := gw.Submit(c.Request.Context(), user, input.Command, c.ClientIP())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ListMyCommands returns the caller's own submission history, newest
// first, with an optional status filter and after_id cursor.
func ListMyCommands(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		q := commandQuery(c, 100)
		q.UserID = &user.ID
		listCommands(c, adm, q)
	}
}

// RecentCommands is the short own-history listing (default 5).
func RecentCommands(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		q := commandQuery(c, 5)
		q.UserID = &user.ID
		listCommands(c, adm, q)
	}
}

// ListAllCommands returns every user's submissions (admin only).
func ListAllCommands(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		listCommands(c, adm, commandQuery(c, 100))
	}
}

func listCommands(c *gin.Context, adm *admin.Service, q store.CommandQuery) {
	// fetch one extra row to decide whether a next page exists
	limit := q.Limit
	q.Limit = limit + 1
	cmds, err := adm.ListCommands(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	var nextCursor *int64
	if len(cmds) > limit {
		next := cmds[limit].ID
		cmds = cmds[:limit]
		nextCursor = &next
	}
	c.JSON(http.StatusOK, gin.H{
		"commands":    cmds,
		"total":       len(cmds),
		"next_cursor": nextCursor,
	})
}

func commandQuery(c *gin.Context, defaultLimit int) store.CommandQuery {
	q := store.CommandQuery{Limit: defaultLimit}
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 500 {
			q.Limit = parsed
		}
	}
	if cursorStr := c.Query("after_id"); cursorStr != "" {
		if parsed, err := strconv.ParseInt(cursorStr, 10, 64); err == nil && parsed > 0 {
			q.AfterID = parsed
		}
	}
	switch c.Query("status") {
	case string(models.StatusExecuted):
		q.Status = models.StatusExecuted
	case string(models.StatusRejected):
		q.Status = models.StatusRejected
	}
	return q
}

// MeHandler returns the authenticated identity.
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": auth.CurrentUser(c)})
	}
}

// CreditsHandler returns the caller's current balance from the ledger,
// not the (possibly stale) identity snapshot.
func CreditsHandler(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		balance, err := adm.Balance(c.Request.Context(), user.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"credits": balance, "email": user.Email})
	}
}
