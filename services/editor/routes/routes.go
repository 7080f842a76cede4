// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/redline/services/editor/handlers"
	"github.com/AleutianAI/redline/services/editor/observability"
	"github.com/AleutianAI/redline/services/editor/workflow"
)

// SetupRoutes registers the editor API on the router.
func SetupRoutes(router *gin.Engine, coordinator *workflow.Coordinator,
	metrics *observability.EditorMetrics) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadyCheck(coordinator))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		edits := v1.Group("/edits")
		{
			edits.POST("/preview", handlers.HandlePreview(coordinator, metrics))
			edits.POST("/apply", handlers.HandleApply(coordinator, metrics))
		}
		// Session administration routes
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", handlers.ListSessions(coordinator))
			sessions.DELETE("/:sessionId", handlers.DeleteSession(coordinator, metrics))
		}
	}
}
