package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

type BalanceHandler struct {
	balances *services.BalanceService
	payments *services.PaymentService
}

func NewBalanceHandler(balances *services.BalanceService, payments *services.PaymentService) *BalanceHandler {
	return &BalanceHandler{balances: balances, payments: payments}
}

// MembersWithBalance lists every member still owing money
func (h *BalanceHandler) MembersWithBalance(c echo.Context) error {
	balances, err := h.balances.ListMembersWithBalance()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse{Data: balances, Count: len(balances)})
}

// MemberBalance returns the derived balance for one member
func (h *BalanceHandler) MemberBalance(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	balance, err := h.balances.GetMemberBalance(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: balance})
}

// partialPaymentRequest is the JSON body for recording a balance payment
type partialPaymentRequest struct {
	MemberID      uint    `json:"member_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	PaymentDate   string  `json:"payment_date"`
	PlanID        *uint   `json:"plan_id"`
	Description   string  `json:"description"`
}

// RecordPartialPayment records a payment against an outstanding balance
func (h *BalanceHandler) RecordPartialPayment(c echo.Context) error {
	var req partialPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	input := services.RecordPaymentInput{
		MemberID:      req.MemberID,
		Amount:        req.Amount,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		PlanID:        req.PlanID,
		Description:   req.Description,
	}
	if req.PaymentDate != "" {
		date, err := parseDate(req.PaymentDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payment_date, use YYYY-MM-DD")
		}
		input.PaymentDate = date
	}

	record, err := h.payments.RecordPayment(input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dataResponse{Message: "Payment recorded successfully", Data: record})
}

// Summary returns the gym-wide balance aggregate
func (h *BalanceHandler) Summary(c echo.Context) error {
	summary, err := h.balances.Summary()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: summary})
}
