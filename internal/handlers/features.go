package handlers

import (
	"featurestore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type FeatureHandler struct {
	pipeline FeaturePipeline
}

func NewFeatureHandler(pipeline FeaturePipeline) *FeatureHandler {
	return &FeatureHandler{pipeline: pipeline}
}

func (h *FeatureHandler) Online(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return response.FromError(c, err)
	}

	features, err := h.pipeline.OnlineFeatures(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Online features retrieved successfully", features)
}

func (h *FeatureHandler) Historical(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return response.FromError(c, err)
	}

	agg, err := h.pipeline.HistoricalFeatures(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Historical features retrieved successfully", agg)
}
