package handlers

import (
	"strconv"

	apperr "featurestore/internal/errors"
	"featurestore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AggregationHandler struct {
	runner AggregationRunner
}

func NewAggregationHandler(runner AggregationRunner) *AggregationHandler {
	return &AggregationHandler{runner: runner}
}

// Run recomputes aggregates for every user, or for one when user_id is set.
func (h *AggregationHandler) Run(c *fiber.Ctx) error {
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			return response.FromError(c, apperr.Newf(apperr.ErrValidation, "user_id must be a positive integer"))
		}

		agg, err := h.runner.RunUser(c.UserContext(), userID)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "User aggregate recomputed", agg)
	}

	res, err := h.runner.RunAll(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Aggregates recomputed", res)
}
