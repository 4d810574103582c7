package handlers

import (
	"strconv"

	"featurestore/internal/utils/pagination"
	"featurestore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	pipeline FeaturePipeline
}

func NewTransactionHandler(pipeline FeaturePipeline) *TransactionHandler {
	return &TransactionHandler{pipeline: pipeline}
}

// Submit scores a transaction and commits it when approved.
func (h *TransactionHandler) Submit(c *fiber.Ctx) error {
	req, err := parseTransaction(c)
	if err != nil {
		return response.FromError(c, err)
	}

	res, err := h.pipeline.Submit(c.UserContext(), req.UserID, req.Amount)
	if err != nil {
		return response.FromError(c, err)
	}
	return c.JSON(res)
}

// Confirm commits a previously challenged transaction as flagged.
func (h *TransactionHandler) Confirm(c *fiber.Ctx) error {
	req, err := parseTransaction(c)
	if err != nil {
		return response.FromError(c, err)
	}

	res, err := h.pipeline.Confirm(c.UserContext(), req.UserID, req.Amount)
	if err != nil {
		return response.FromError(c, err)
	}
	return c.JSON(res)
}

// Recent returns the newest transactions across all users.
func (h *TransactionHandler) Recent(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	txs, err := h.pipeline.RecentTransactions(c.UserContext(), limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Recent transactions retrieved successfully", txs)
}

// ByUser returns one page of a user's transactions.
func (h *TransactionHandler) ByUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return response.FromError(c, err)
	}

	p := pagination.ParseFromRequest(c)
	txs, total, err := h.pipeline.UserTransactions(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return response.FromError(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, txs))
}
