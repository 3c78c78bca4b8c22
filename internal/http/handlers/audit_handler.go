package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cmdgate/internal/admin"
	"cmdgate/internal/store"
)

// ListAudit returns the audit trail, newest first, cursor paginated
// (admin only).
func ListAudit(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 100
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 500 {
				limit = parsed
			}
		}
		var afterID int64
		if cursorStr := c.Query("after_id"); cursorStr != "" {
			if parsed, err := strconv.ParseInt(cursorStr, 10, 64); err == nil && parsed > 0 {
				afterID = parsed
			}
		}

		logs, err := adm.ListAudit(c.Request.Context(), store.AuditQuery{AfterID: afterID, Limit: limit + 1})
		if err != nil {
			writeError(c, err)
			return
		}

		var nextCursor *int64
		if len(logs) > limit {
			next := logs[limit].ID
			logs = logs[:limit]
			nextCursor = &next
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "next_cursor": nextCursor})
	}
}

// ExportAudit streams the audit trail as a flat CSV of
// (timestamp, actor, action, command, details), newest first.
func ExportAudit(adm *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := adm.ListAudit(c.Request.Context(), store.AuditQuery{})
		if err != nil {
			writeError(c, err)
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="audit.csv"`)

		w := csv.NewWriter(c.Writer)
		_ = w.Write([]string{"timestamp", "actor", "action", "command", "details"})
		for _, entry := range logs {
			actor := "system"
			if entry.User != nil {
				actor = entry.User.Email
			}
			_ = w.Write([]string{
				entry.CreatedAt.UTC().Format(time.RFC3339),
				actor,
				entry.Action,
				entry.CommandText,
				entry.Details,
			})
		}
		w.Flush()
	}
}
