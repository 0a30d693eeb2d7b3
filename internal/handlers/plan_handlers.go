package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

type PlanHandler struct {
	db *gorm.DB
}

func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{db: db}
}

// planRequest is the JSON body for creating or replacing a catalog plan
type planRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	DurationMonths int      `json:"duration_months"`
	Features       []string `json:"features"`
	IsActive       *bool    `json:"is_active"`
}

// Create adds a membership plan to the catalog
func (h *PlanHandler) Create(c echo.Context) error {
	var req planRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	if req.Name == "" {
		return &services.ValidationError{Field: "name", Reason: "is required"}
	}
	if req.Price <= 0 {
		return &services.ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	if req.DurationMonths < 1 {
		return &services.ValidationError{Field: "duration_months", Reason: "must be at least 1"}
	}

	plan := models.Plan{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		DurationMonths: req.DurationMonths,
		Features:       req.Features,
		IsActive:       true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := h.db.Create(&plan).Error; err != nil {
		return &services.PersistenceError{Op: "create plan", Err: err}
	}

	return c.JSON(http.StatusCreated, dataResponse{Message: "Plan created successfully", Data: plan})
}

// List returns catalog plans; pass active=true to hide retired ones
func (h *PlanHandler) List(c echo.Context) error {
	query := h.db.Order("price")
	if c.QueryParam("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var plans []models.Plan
	if err := query.Find(&plans).Error; err != nil {
		return &services.PersistenceError{Op: "list plans", Err: err}
	}

	return c.JSON(http.StatusOK, listResponse{Data: plans, Count: len(plans)})
}

// Get returns a plan by ID
func (h *PlanHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var plan models.Plan
	if err := h.db.First(&plan, id).Error; err != nil {
		return &services.NotFoundError{Entity: "plan", ID: id}
	}

	return c.JSON(http.StatusOK, dataResponse{Data: plan})
}

// planUpdateRequest carries partial catalog edits
type planUpdateRequest struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Price          *float64  `json:"price"`
	DurationMonths *int      `json:"duration_months"`
	Features       *[]string `json:"features"`
	IsActive       *bool     `json:"is_active"`
}

// Update edits a catalog plan. A price change does not rewrite existing
// members' balances until their snapshot is next recomputed.
func (h *PlanHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var plan models.Plan
	if err := h.db.First(&plan, id).Error; err != nil {
		return &services.NotFoundError{Entity: "plan", ID: id}
	}

	var req planUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return &services.ValidationError{Field: "price", Reason: "must be greater than zero"}
		}
		plan.Price = *req.Price
	}
	if req.DurationMonths != nil {
		if *req.DurationMonths < 1 {
			return &services.ValidationError{Field: "duration_months", Reason: "must be at least 1"}
		}
		plan.DurationMonths = *req.DurationMonths
	}
	if req.Features != nil {
		plan.Features = *req.Features
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := h.db.Save(&plan).Error; err != nil {
		return &services.PersistenceError{Op: "update plan", Err: err}
	}

	return c.JSON(http.StatusOK, dataResponse{Message: "Plan updated successfully", Data: plan})
}

// Delete removes a plan from the catalog. Refused while any member still
// references the plan; retire it with is_active=false instead.
func (h *PlanHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var plan models.Plan
	if err := h.db.First(&plan, id).Error; err != nil {
		return &services.NotFoundError{Entity: "plan", ID: id}
	}

	var memberCount int64
	if err := h.db.Model(&models.Member{}).Where("plan_id = ?", id).Count(&memberCount).Error; err != nil {
		return &services.PersistenceError{Op: "count plan members", Err: err}
	}
	if memberCount > 0 {
		return &services.ConflictError{Reason: "plan is still assigned to members; deactivate it instead"}
	}

	if err := h.db.Delete(&plan).Error; err != nil {
		return &services.PersistenceError{Op: "delete plan", Err: err}
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Plan deleted successfully"})
}
