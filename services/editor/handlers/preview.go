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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/redline/services/editor/datatypes"
	"github.com/AleutianAI/redline/services/editor/middleware"
	"github.com/AleutianAI/redline/services/editor/observability"
	"github.com/AleutianAI/redline/services/editor/workflow"
)

// HandlePreview proposes edits for a document without mutating it.
func HandlePreview(coordinator *workflow.Coordinator, metrics *observability.EditorMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := middleware.GetRequestID(c)

		var req datatypes.PreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("preview request failed binding", "request_id", requestID, "error", err)
			metrics.RecordRequest("preview", "error")
			c.JSON(http.StatusBadRequest, datatypes.NewError(
				datatypes.ErrorTypeValidation, "invalid_request", err.Error()))
			return
		}

		resp, err := coordinator.Preview(c.Request.Context(), &req)
		if err != nil {
			status, envelope := MapError(err, requestID)
			slog.Error("preview failed", "request_id", requestID,
				"status", status, "error", err)
			metrics.RecordRequest("preview", "error")
			c.JSON(status, envelope)
			return
		}

		if metrics != nil {
			metrics.RecordRequest("preview", resp.Status)
			metrics.RequestDurationSeconds.WithLabelValues("preview").
				Observe(time.Since(start).Seconds())
			if resp.Status == datatypes.PreviewSuccess {
				metrics.RecordSessionEvent("created")
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
