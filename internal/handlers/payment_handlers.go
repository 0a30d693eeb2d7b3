package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

type PaymentHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
	balances *services.BalanceService
}

func NewPaymentHandler(db *gorm.DB, payments *services.PaymentService, balances *services.BalanceService) *PaymentHandler {
	return &PaymentHandler{db: db, payments: payments, balances: balances}
}

// createPaymentRequest is the JSON body for recording a payment
type createPaymentRequest struct {
	MemberID      uint    `json:"member_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	PaymentDate   string  `json:"payment_date"`
	PlanID        *uint   `json:"plan_id"`
	Description   string  `json:"description"`
	PaymentType   string  `json:"payment_type"`
	Status        string  `json:"status"`
}

// Create records a new payment through the recorder
func (h *PaymentHandler) Create(c echo.Context) error {
	var req createPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	input := services.RecordPaymentInput{
		MemberID:      req.MemberID,
		Amount:        req.Amount,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		PlanID:        req.PlanID,
		Description:   req.Description,
		TypeOverride:  models.PaymentType(req.PaymentType),
		Status:        models.PaymentStatus(req.Status),
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

	return c.JSON(http.StatusCreated, dataResponse{Message: "Payment created successfully", Data: record})
}

// List returns payments, optionally filtered by member and status,
// newest first
func (h *PaymentHandler) List(c echo.Context) error {
	query := h.db.Preload("Member").Preload("Plan").Order("payment_date desc")
	if memberID := queryInt(c, "member_id", 0); memberID > 0 {
		query = query.Where("member_id = ?", memberID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return &services.PersistenceError{Op: "list payments", Err: err}
	}

	return c.JSON(http.StatusOK, listResponse{Data: payments, Count: len(payments)})
}

// Get returns a payment by ID
func (h *PaymentHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var payment models.Payment
	if err := h.db.Preload("Member").Preload("Plan").First(&payment, id).Error; err != nil {
		return &services.NotFoundError{Entity: "payment", ID: id}
	}

	return c.JSON(http.StatusOK, dataResponse{Data: payment})
}

// paymentUpdateRequest carries administrative corrections
type paymentUpdateRequest struct {
	Amount        *float64 `json:"amount"`
	PaymentMethod *string  `json:"payment_method"`
	PaymentDate   *string  `json:"payment_date"`
	Description   *string  `json:"description"`
	Status        *string  `json:"status"`
}

// Update applies an administrative correction and recomputes the owning
// member's balance snapshot
func (h *PaymentHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var payment models.Payment
	if err := h.db.First(&payment, id).Error; err != nil {
		return &services.NotFoundError{Entity: "payment", ID: id}
	}

	var req paymentUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	updates := map[string]interface{}{}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return &services.ValidationError{Field: "amount", Reason: "must be greater than zero"}
		}
		updates["amount"] = *req.Amount
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.PaymentDate != nil {
		date, err := parseDate(*req.PaymentDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payment_date, use YYYY-MM-DD")
		}
		updates["payment_date"] = date
	}

	if len(updates) > 0 {
		if err := h.db.Model(&payment).Updates(updates).Error; err != nil {
			return &services.PersistenceError{Op: "update payment", Err: err}
		}
		// Amount or status changes shift the derived balance
		if _, err := h.balances.RecomputeBalance(payment.MemberID); err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, dataResponse{Message: "Payment updated successfully", Data: payment})
}

// Delete removes a payment and recomputes the member's balance
func (h *PaymentHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.payments.DeletePayment(id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Payment deleted successfully"})
}
