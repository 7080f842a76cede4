// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/redline/services/editor/middleware"
	"github.com/AleutianAI/redline/services/editor/observability"
	"github.com/AleutianAI/redline/services/editor/workflow"
)

// ListSessions returns admin summaries of live sessions.
func ListSessions(coordinator *workflow.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := coordinator.Sessions(c.Request.Context())
		if err != nil {
			requestID := middleware.GetRequestID(c)
			status, envelope := MapError(err, requestID)
			slog.Error("list sessions failed", "request_id", requestID, "error", err)
			c.JSON(status, envelope)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": summaries})
	}
}

// DeleteSession removes a session by id.
func DeleteSession(coordinator *workflow.Coordinator, metrics *observability.EditorMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("sessionId")

		if err := coordinator.DeleteSession(c.Request.Context(), id); err != nil {
			requestID := middleware.GetRequestID(c)
			status, envelope := MapError(err, requestID)
			slog.Error("delete session failed", "request_id", requestID,
				"session_id", id, "error", err)
			c.JSON(status, envelope)
			return
		}

		metrics.RecordSessionEvent("deleted")
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_session_id": id})
	}
}
