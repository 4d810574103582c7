package handlers

import (
	"featurestore/internal/services/dashboard"
	"featurestore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService dashboard.Service
}

func NewDashboardHandler(dashboardService dashboard.Service) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetGlobalStats returns totals across the whole transaction log
func (h *DashboardHandler) GetGlobalStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.GlobalStats(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Global stats retrieved successfully", stats)
}

// GetAnalytics returns sales per day and the top spenders
func (h *DashboardHandler) GetAnalytics(c *fiber.Ctx) error {
	analytics, err := h.dashboardService.Analytics(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Analytics retrieved successfully", analytics)
}
