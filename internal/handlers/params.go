package handlers

import (
	"strconv"

	apperr "featurestore/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.ErrValidation, "user_id must be a positive integer")
	}
	return id, nil
}

func parseTransaction(c *fiber.Ctx) (transactionRequest, error) {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperr.Newf(apperr.ErrValidation, "invalid request body")
	}
	return req, nil
}
