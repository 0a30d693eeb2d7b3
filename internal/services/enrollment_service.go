package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vtfitness_api/internal/models"
)

// compensation is one undo action of a multi-step enrollment
type compensation struct {
	name string
	run  func() error
}

// saga collects compensating actions as steps succeed and runs them in
// reverse order when a later step fails. The backing store has no
// cross-table transactions covering the identity provider, so enrollment
// compensates manually.
type saga struct {
	steps []compensation
}

func (s *saga) push(name string, fn func() error) {
	s.steps = append(s.steps, compensation{name: name, run: fn})
}

func (s *saga) rollback() {
	for i := len(s.steps) - 1; i >= 0; i-- {
		if err := s.steps[i].run(); err != nil {
			log.Printf("Rollback step %q failed: %v", s.steps[i].name, err)
		}
	}
}

// EnrollMemberInput carries the member profile plus the mandatory
// first payment
type EnrollMemberInput struct {
	FullName          string     `json:"full_name"`
	Email             string     `json:"email"`
	Password          string     `json:"password"`
	Phone             string     `json:"phone"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
	Gender            string     `json:"gender"`
	Address           string     `json:"address"`
	EmergencyContact  string     `json:"emergency_contact"`
	EmergencyPhone    string     `json:"emergency_phone"`
	BloodGroup        string     `json:"blood_group"`
	MedicalConditions string     `json:"medical_conditions"`
	PlanID            *uint      `json:"plan_id"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           time.Time  `json:"end_date"`

	PaymentAmount float64              `json:"payment_amount"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	PaymentDate   time.Time            `json:"payment_date"`
}

// EnrollmentService onboards a member: identity account, member row and
// the initial payment, with compensating rollback
type EnrollmentService struct {
	db       *gorm.DB
	identity IdentityProvider
	notifier Notifier
}

func NewEnrollmentService(db *gorm.DB, identity IdentityProvider, notifier Notifier) *EnrollmentService {
	return &EnrollmentService{db: db, identity: identity, notifier: notifier}
}

// EnrollMember runs the multi-step enrollment. Identity provisioning
// failure degrades to an unlinked member; payment-insert failure rolls
// the member (and the identity account, best effort) back.
func (s *EnrollmentService) EnrollMember(ctx context.Context, in EnrollMemberInput) (*PaymentRecord, error) {
	if in.PaymentAmount <= 0 {
		return nil, &ValidationError{Field: "payment_amount", Reason: "must be greater than zero"}
	}
	if in.PaymentMethod == "" {
		return nil, &ValidationError{Field: "payment_method", Reason: "is required"}
	}
	if in.Email == "" {
		return nil, &ValidationError{Field: "email", Reason: "is required"}
	}

	var count int64
	if err := s.db.Model(&models.Member{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, &PersistenceError{Op: "check email uniqueness", Err: err}
	}
	if count > 0 {
		return nil, &ConflictError{Reason: fmt.Sprintf("member with email %s already exists", in.Email)}
	}

	var plan *models.Plan
	planPrice := 0.0
	planName := ""
	if in.PlanID != nil {
		plan = &models.Plan{}
		if err := s.db.First(plan, *in.PlanID).Error; err != nil {
			return nil, &NotFoundError{Entity: "plan", ID: *in.PlanID}
		}
		planPrice = plan.Price
		planName = plan.Name
	}

	var rollback saga

	// Identity account provisioning is non-fatal: enrollment continues
	// with an unlinked member if the provider is down.
	password := in.Password
	generated := false
	if password == "" {
		password = GeneratePassword(12)
		generated = true
	}

	var userID *string
	if s.identity != nil {
		uid, err := s.identity.CreateAccount(ctx, in.Email, password, in.FullName, in.Phone)
		if err != nil {
			log.Printf("Identity provisioning failed for %s, continuing without account: %v", in.Email, err)
		} else {
			userID = &uid
			rollback.push("delete identity account", func() error {
				return s.identity.DeleteAccount(ctx, uid)
			})
		}
	}

	totalDue := planPrice
	if totalDue <= 0 {
		totalDue = in.PaymentAmount
	}
	balanceDue := math.Max(0, totalDue-in.PaymentAmount)

	status := models.MembershipStatusActive
	if balanceDue > 0 {
		status = models.MembershipStatusInactive
	}

	member := models.Member{
		UserID:            userID,
		FullName:          in.FullName,
		Email:             in.Email,
		Phone:             in.Phone,
		DateOfBirth:       in.DateOfBirth,
		Gender:            in.Gender,
		Address:           in.Address,
		EmergencyContact:  in.EmergencyContact,
		EmergencyPhone:    in.EmergencyPhone,
		BloodGroup:        in.BloodGroup,
		MedicalConditions: in.MedicalConditions,
		PlanID:            in.PlanID,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		Status:            status,
		QRCode:            "VT-MEMBER-" + uuid.New().String(),
		TotalAmountDue:    totalDue,
		AmountPaid:        in.PaymentAmount,
		BalanceDue:        balanceDue,
	}

	if err := s.db.Create(&member).Error; err != nil {
		rollback.rollback()
		return nil, &PersistenceError{Op: "create member", Err: err}
	}
	rollback.push("delete member", func() error {
		return s.db.Unscoped().Delete(&models.Member{}, member.ID).Error
	})

	paymentType := models.PaymentTypeInitial
	isPartial := balanceDue > 0
	if isPartial {
		paymentType = models.PaymentTypePartial
	}
	paymentDate := in.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	payment := models.Payment{
		MemberID:         member.ID,
		PlanID:           in.PlanID,
		Amount:           in.PaymentAmount,
		PaymentMethod:    in.PaymentMethod,
		PaymentDate:      paymentDate,
		Description:      "Enrollment payment",
		Status:           models.PaymentStatusCompleted,
		PaymentType:      paymentType,
		IsPartial:        isPartial,
		RemainingBalance: balanceDue,
		ReceiptRef:       uuid.New().String(),
	}

	if err := s.db.Create(&payment).Error; err != nil {
		rollback.rollback()
		return nil, &PersistenceError{Op: "create enrollment payment", Err: err}
	}

	if s.notifier != nil {
		details := WelcomeDetails{
			PlanName:  planName,
			StartDate: in.StartDate.Format("2006-01-02"),
			EndDate:   in.EndDate.Format("2006-01-02"),
			Amount:    in.PaymentAmount,
		}
		// Only mail the credentials when we generated them
		if generated && userID != nil {
			details.Password = password
		}
		if err := s.notifier.SendWelcome(member.Email, member.FullName, details); err != nil {
			log.Printf("Welcome notification failed for member %d: %v", member.ID, err)
		}
	}

	return &PaymentRecord{
		Payment:    payment,
		MemberName: member.FullName,
		PlanName:   planName,
	}, nil
}
