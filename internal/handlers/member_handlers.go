package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

type MemberHandler struct {
	db         *gorm.DB
	enrollment *services.EnrollmentService
	balances   *services.BalanceService
}

func NewMemberHandler(db *gorm.DB, enrollment *services.EnrollmentService, balances *services.BalanceService) *MemberHandler {
	return &MemberHandler{db: db, enrollment: enrollment, balances: balances}
}

// enrollRequest is the JSON body for member enrollment with payment
type enrollRequest struct {
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	Password          string  `json:"password"`
	Phone             string  `json:"phone"`
	DateOfBirth       string  `json:"date_of_birth"`
	Gender            string  `json:"gender"`
	Address           string  `json:"address"`
	EmergencyContact  string  `json:"emergency_contact"`
	EmergencyPhone    string  `json:"emergency_phone"`
	BloodGroup        string  `json:"blood_group"`
	MedicalConditions string  `json:"medical_conditions"`
	PlanID            *uint   `json:"plan_id"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	PaymentAmount     float64 `json:"payment_amount"`
	PaymentMethod     string  `json:"payment_method"`
	PaymentDate       string  `json:"payment_date"`
}

// Enroll creates a member together with their identity account and
// initial payment
func (h *MemberHandler) Enroll(c echo.Context) error {
	var req enrollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date, use YYYY-MM-DD")
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date, use YYYY-MM-DD")
	}
	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth, use YYYY-MM-DD")
	}

	input := services.EnrollMemberInput{
		FullName:          req.FullName,
		Email:             req.Email,
		Password:          req.Password,
		Phone:             req.Phone,
		DateOfBirth:       dob,
		Gender:            req.Gender,
		Address:           req.Address,
		EmergencyContact:  req.EmergencyContact,
		EmergencyPhone:    req.EmergencyPhone,
		BloodGroup:        req.BloodGroup,
		MedicalConditions: req.MedicalConditions,
		PlanID:            req.PlanID,
		StartDate:         startDate,
		EndDate:           endDate,
		PaymentAmount:     req.PaymentAmount,
		PaymentMethod:     models.PaymentMethod(req.PaymentMethod),
	}
	if req.PaymentDate != "" {
		paymentDate, err := parseDate(req.PaymentDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payment_date, use YYYY-MM-DD")
		}
		input.PaymentDate = paymentDate
	}

	record, err := h.enrollment.EnrollMember(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dataResponse{Message: "Member enrolled successfully", Data: record})
}

// List returns all members, optionally filtered by status
func (h *MemberHandler) List(c echo.Context) error {
	query := h.db.Preload("Plan")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var members []models.Member
	if err := query.Find(&members).Error; err != nil {
		return &services.PersistenceError{Op: "list members", Err: err}
	}

	return c.JSON(http.StatusOK, listResponse{Data: members, Count: len(members)})
}

// Get returns a member by ID
func (h *MemberHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var member models.Member
	if err := h.db.Preload("Plan").First(&member, id).Error; err != nil {
		return &services.NotFoundError{Entity: "member", ID: id}
	}

	return c.JSON(http.StatusOK, dataResponse{Data: member})
}

// memberUpdateRequest carries the mutable profile fields; nil pointers
// leave the stored value untouched
type memberUpdateRequest struct {
	FullName          *string `json:"full_name"`
	Phone             *string `json:"phone"`
	Gender            *string `json:"gender"`
	Address           *string `json:"address"`
	EmergencyContact  *string `json:"emergency_contact"`
	EmergencyPhone    *string `json:"emergency_phone"`
	BloodGroup        *string `json:"blood_group"`
	MedicalConditions *string `json:"medical_conditions"`
	PlanID            *uint   `json:"plan_id"`
	StartDate         *string `json:"start_date"`
	EndDate           *string `json:"end_date"`
	Status            *string `json:"status"`
}

// Update applies an administrative profile edit
func (h *MemberHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var member models.Member
	if err := h.db.First(&member, id).Error; err != nil {
		return &services.NotFoundError{Entity: "member", ID: id}
	}

	var req memberUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.EmergencyContact != nil {
		updates["emergency_contact"] = *req.EmergencyContact
	}
	if req.EmergencyPhone != nil {
		updates["emergency_phone"] = *req.EmergencyPhone
	}
	if req.BloodGroup != nil {
		updates["blood_group"] = *req.BloodGroup
	}
	if req.MedicalConditions != nil {
		updates["medical_conditions"] = *req.MedicalConditions
	}
	if req.PlanID != nil {
		updates["plan_id"] = *req.PlanID
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.StartDate != nil {
		startDate, err := parseDate(*req.StartDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date, use YYYY-MM-DD")
		}
		updates["start_date"] = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date, use YYYY-MM-DD")
		}
		updates["end_date"] = endDate
	}

	if len(updates) > 0 {
		if err := h.db.Model(&member).Updates(updates).Error; err != nil {
			return &services.PersistenceError{Op: "update member", Err: err}
		}
	}

	// A plan change shifts the total due, so refresh the snapshot
	if req.PlanID != nil {
		if _, err := h.balances.RecomputeBalance(member.ID); err != nil {
			return err
		}
	}

	if err := h.db.Preload("Plan").First(&member, id).Error; err != nil {
		return &services.PersistenceError{Op: "reload member", Err: err}
	}

	return c.JSON(http.StatusOK, dataResponse{Message: "Member updated successfully", Data: member})
}

// Delete soft-deletes a member
func (h *MemberHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var member models.Member
	if err := h.db.First(&member, id).Error; err != nil {
		return &services.NotFoundError{Entity: "member", ID: id}
	}

	if err := h.db.Delete(&member).Error; err != nil {
		return &services.PersistenceError{Op: "delete member", Err: err}
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Member deleted successfully"})
}
