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

// HandleApply commits a previewed change set.
func HandleApply(coordinator *workflow.Coordinator, metrics *observability.EditorMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := middleware.GetRequestID(c)

		var req datatypes.ApplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("apply request failed binding", "request_id", requestID, "error", err)
			metrics.RecordRequest("apply", "error")
			c.JSON(http.StatusBadRequest, datatypes.NewError(
				datatypes.ErrorTypeValidation, "invalid_request", err.Error()))
			return
		}

		resp, err := coordinator.Apply(c.Request.Context(), &req)
		if err != nil {
			status, envelope := MapError(err, requestID)
			slog.Error("apply failed", "request_id", requestID,
				"session_id", req.SessionID, "status", status, "error", err)
			metrics.RecordRequest("apply", "error")
			c.JSON(status, envelope)
			return
		}

		if metrics != nil {
			metrics.RecordRequest("apply", resp.Status)
			metrics.RequestDurationSeconds.WithLabelValues("apply").
				Observe(time.Since(start).Seconds())
			for _, outcome := range resp.AppliedChanges {
				metrics.RecordEditOutcome(string(outcome.Status))
			}
			if resp.Status == datatypes.ApplyFailed {
				metrics.RecordSessionEvent("reopened")
			} else {
				metrics.RecordSessionEvent("applied")
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
