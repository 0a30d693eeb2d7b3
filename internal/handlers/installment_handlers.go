package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

type InstallmentHandler struct {
	installments *services.InstallmentService
	forecasts    *services.ForecastService
	gateway      *services.GatewayService
}

func NewInstallmentHandler(installments *services.InstallmentService, forecasts *services.ForecastService, gateway *services.GatewayService) *InstallmentHandler {
	return &InstallmentHandler{installments: installments, forecasts: forecasts, gateway: gateway}
}

// createInstallmentPlanRequest is the JSON body for a new schedule
type createInstallmentPlanRequest struct {
	MemberID          uint    `json:"member_id"`
	PlanID            *uint   `json:"plan_id"`
	TotalAmount       float64 `json:"total_amount"`
	InstallmentAmount float64 `json:"installment_amount"`
	InstallmentCount  int     `json:"installment_count"`
	Frequency         string  `json:"frequency"`
	StartDate         string  `json:"start_date"`
	AutoDebit         bool    `json:"auto_debit"`
}

// CreatePlan creates an installment plan and its full payment schedule
func (h *InstallmentHandler) CreatePlan(c echo.Context) error {
	var req createInstallmentPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	startDate := time.Now()
	if req.StartDate != "" {
		parsed, err := parseDate(req.StartDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date, use YYYY-MM-DD")
		}
		startDate = parsed
	}

	plan, err := h.installments.CreateInstallmentPlan(services.CreateInstallmentPlanInput{
		MemberID:          req.MemberID,
		PlanID:            req.PlanID,
		TotalAmount:       req.TotalAmount,
		InstallmentAmount: req.InstallmentAmount,
		InstallmentCount:  req.InstallmentCount,
		Frequency:         models.InstallmentFrequency(req.Frequency),
		StartDate:         startDate,
		AutoDebit:         req.AutoDebit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dataResponse{Message: "Installment plan created successfully", Data: plan})
}

// ListPlans returns installment plans filtered by member_id and status
func (h *InstallmentHandler) ListPlans(c echo.Context) error {
	memberID := uint(queryInt(c, "member_id", 0))
	status := models.InstallmentPlanStatus(c.QueryParam("status"))

	plans, err := h.installments.ListPlans(memberID, status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{Data: plans, Count: len(plans)})
}

// GetPlan returns one installment plan with its ordered schedule
func (h *InstallmentHandler) GetPlan(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	plan, err := h.installments.GetPlan(id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse{Data: plan})
}

// CancelPlan cancels a plan and its unpaid installments
func (h *InstallmentHandler) CancelPlan(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.installments.CancelPlan(id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Installment plan cancelled"})
}

// payInstallmentRequest records an offline settlement
type payInstallmentRequest struct {
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	Notes         string `json:"notes"`
}

// PayInstallment marks a single installment paid and refreshes the
// parent plan's progress
func (h *InstallmentHandler) PayInstallment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req payInstallmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = string(models.PaymentMethodCash)
	}

	payment, err := h.installments.MarkPaid(id, req.PaymentMethod, req.TransactionID, req.Notes)
	if err != nil {
		return err
	}

	plan, err := h.installments.RefreshPlanProgress(payment.InstallmentPlanID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse{
		Message: "Installment paid successfully",
		Data: map[string]interface{}{
			"payment": payment,
			"plan":    plan,
		},
	})
}

// checkoutRequest controls online checkout initiation
type checkoutRequest struct {
	ForceNew    bool   `json:"force_new"`
	CallbackURL string `json:"callback_url"`
}

// Checkout starts (or resumes) an online gateway checkout for an
// installment payment
func (h *InstallmentHandler) Checkout(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	result, err := h.gateway.InitiateCheckout(id, req.ForceNew, req.CallbackURL)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse{Data: result})
}

// ListPayments returns installment payments filtered by plan_id and status
func (h *InstallmentHandler) ListPayments(c echo.Context) error {
	planID := uint(queryInt(c, "plan_id", 0))
	status := models.InstallmentStatus(c.QueryParam("status"))

	payments, err := h.installments.ListPayments(planID, status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{Data: payments, Count: len(payments)})
}

// ListDue returns pending installments due inside the window given by
// ?days=N (default 7)
func (h *InstallmentHandler) ListDue(c echo.Context) error {
	days := queryInt(c, "days", 7)
	if days < 0 {
		return &services.ValidationError{Field: "days", Reason: "must not be negative"}
	}

	payments, err := h.installments.ListDue(days)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{Data: payments, Count: len(payments)})
}

// ListOverdue returns installments past their due date
func (h *InstallmentHandler) ListOverdue(c echo.Context) error {
	payments, err := h.installments.ListOverdue()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{Data: payments, Count: len(payments)})
}

// RevenueForecast projects installment revenue over ?days=N (default 30)
func (h *InstallmentHandler) RevenueForecast(c echo.Context) error {
	days := queryInt(c, "days", 30)
	if days < 1 {
		return &services.ValidationError{Field: "days", Reason: "must be at least 1"}
	}

	forecast, err := h.forecasts.Forecast(c.Request().Context(), days)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse{Data: forecast})
}

// Analytics returns the aggregate view of the installment book
func (h *InstallmentHandler) Analytics(c echo.Context) error {
	analytics, err := h.forecasts.Analytics(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse{Data: analytics})
}

// MidtransCallback ingests gateway notifications. Unauthenticated:
// Midtrans calls it directly, and every payload is archived before any
// state change.
func (h *InstallmentHandler) MidtransCallback(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	if err := h.gateway.HandleCallback(payload); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Callback processed"})
}
