package handlers

import (
	apperr "featurestore/internal/errors"
	"featurestore/internal/services/risk"
	"featurestore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	risk RiskSettings
}

func NewSettingsHandler(risk RiskSettings) *SettingsHandler {
	return &SettingsHandler{risk: risk}
}

func (h *SettingsHandler) GetRisk(c *fiber.Ctx) error {
	return response.Success(c, "Risk settings retrieved successfully", h.risk.Thresholds())
}

// UpdateRisk replaces the challenge thresholds. Both fields are required.
func (h *SettingsHandler) UpdateRisk(c *fiber.Ctx) error {
	var t risk.Thresholds
	if err := c.BodyParser(&t); err != nil {
		return response.FromError(c, apperr.Newf(apperr.ErrValidation, "invalid request body"))
	}
	if err := h.risk.SetThresholds(t); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Risk settings updated successfully", h.risk.Thresholds())
}
