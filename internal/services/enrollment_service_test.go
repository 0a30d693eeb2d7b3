package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtfitness_api/internal/models"
)

// fakeIdentity records account lifecycle calls
type fakeIdentity struct {
	createErr error
	created   []string
	deleted   []string
	nextUID   string
}

func (f *fakeIdentity) CreateAccount(ctx context.Context, email, password, displayName, phone string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	uid := f.nextUID
	if uid == "" {
		uid = "uid-" + email
	}
	f.created = append(f.created, uid)
	return uid, nil
}

func (f *fakeIdentity) DeleteAccount(ctx context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	return nil
}

// fakeNotifier records welcome emails
type fakeNotifier struct {
	welcomes []WelcomeDetails
	receipts []ReceiptDetails
}

func (f *fakeNotifier) SendWelcome(email, name string, details WelcomeDetails) error {
	f.welcomes = append(f.welcomes, details)
	return nil
}

func (f *fakeNotifier) SendReceipt(email, name string, details ReceiptDetails) error {
	f.receipts = append(f.receipts, details)
	return nil
}

func enrollInput(email string, planID *uint, amount float64) EnrollMemberInput {
	return EnrollMemberInput{
		FullName:      "New Member",
		Email:         email,
		Phone:         "0811111111",
		PlanID:        planID,
		StartDate:     time.Now(),
		EndDate:       time.Now().AddDate(1, 0, 0),
		PaymentAmount: amount,
		PaymentMethod: models.PaymentMethodCash,
	}
}

func TestEnrollMember_FullPayment(t *testing.T) {
	db := newTestDB(t)
	identity := &fakeIdentity{}
	notifier := &fakeNotifier{}
	enrollment := NewEnrollmentService(db, identity, notifier)

	plan := createTestPlan(t, db, 100)

	record, err := enrollment.EnrollMember(context.Background(), enrollInput("full@example.com", &plan.ID, 100))
	require.NoError(t, err)

	assert.Equal(t, models.PaymentTypeInitial, record.PaymentType)
	assert.False(t, record.IsPartial)
	assert.Equal(t, 0.0, record.RemainingBalance)

	var member models.Member
	require.NoError(t, db.Where("email = ?", "full@example.com").First(&member).Error)
	assert.Equal(t, models.MembershipStatusActive, member.Status)
	assert.NotNil(t, member.UserID)
	assert.Contains(t, member.QRCode, "VT-MEMBER-")

	require.Len(t, identity.created, 1)
	require.Len(t, notifier.welcomes, 1)
	// Generated credentials are included in the welcome email
	assert.NotEmpty(t, notifier.welcomes[0].Password)
}

func TestEnrollMember_PartialPaymentStartsInactive(t *testing.T) {
	db := newTestDB(t)
	enrollment := NewEnrollmentService(db, &fakeIdentity{}, nil)

	plan := createTestPlan(t, db, 100)

	record, err := enrollment.EnrollMember(context.Background(), enrollInput("partial@example.com", &plan.ID, 40))
	require.NoError(t, err)

	assert.True(t, record.IsPartial)
	assert.Equal(t, models.PaymentTypePartial, record.PaymentType)
	assert.Equal(t, 60.0, record.RemainingBalance)

	var member models.Member
	require.NoError(t, db.Where("email = ?", "partial@example.com").First(&member).Error)
	assert.Equal(t, models.MembershipStatusInactive, member.Status)
	assert.Equal(t, 60.0, member.BalanceDue)
}

func TestEnrollMember_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	enrollment := NewEnrollmentService(db, nil, nil)

	plan := createTestPlan(t, db, 100)
	createTestMember(t, db, "taken@example.com", &plan.ID)

	_, err := enrollment.EnrollMember(context.Background(), enrollInput("taken@example.com", &plan.ID, 100))

	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestEnrollMember_UnknownPlan(t *testing.T) {
	db := newTestDB(t)
	enrollment := NewEnrollmentService(db, nil, nil)

	missing := uint(9999)
	_, err := enrollment.EnrollMember(context.Background(), enrollInput("noplan@example.com", &missing, 100))

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestEnrollMember_IdentityFailureIsNonFatal(t *testing.T) {
	db := newTestDB(t)
	identity := &fakeIdentity{createErr: errors.New("provider down")}
	notifier := &fakeNotifier{}
	enrollment := NewEnrollmentService(db, identity, notifier)

	plan := createTestPlan(t, db, 100)

	_, err := enrollment.EnrollMember(context.Background(), enrollInput("degraded@example.com", &plan.ID, 100))
	require.NoError(t, err)

	var member models.Member
	require.NoError(t, db.Where("email = ?", "degraded@example.com").First(&member).Error)
	assert.Nil(t, member.UserID)

	// No account, so no credentials in the welcome email
	require.Len(t, notifier.welcomes, 1)
	assert.Empty(t, notifier.welcomes[0].Password)
}

func TestEnrollMember_PaymentFailureRollsBack(t *testing.T) {
	db := newTestDB(t)
	identity := &fakeIdentity{nextUID: "uid-rollback"}
	enrollment := NewEnrollmentService(db, identity, nil)

	plan := createTestPlan(t, db, 100)

	// Force the payment insert to fail after the member insert succeeded
	require.NoError(t, db.Migrator().DropTable(&models.Payment{}))

	_, err := enrollment.EnrollMember(context.Background(), enrollInput("rollback@example.com", &plan.ID, 100))

	var persistence *PersistenceError
	require.ErrorAs(t, err, &persistence)

	// The member row was compensated away, including the soft-delete shadow
	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Member{}).
		Where("email = ?", "rollback@example.com").Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// The provisioned identity account was compensated too
	assert.Equal(t, []string{"uid-rollback"}, identity.deleted)
}

func TestEnrollMember_Validation(t *testing.T) {
	db := newTestDB(t)
	enrollment := NewEnrollmentService(db, nil, nil)

	tests := []struct {
		name  string
		input EnrollMemberInput
	}{
		{
			name:  "zero payment amount",
			input: enrollInput("a@example.com", nil, 0),
		},
		{
			name: "missing payment method",
			input: EnrollMemberInput{
				Email:         "b@example.com",
				PaymentAmount: 100,
			},
		},
		{
			name: "missing email",
			input: EnrollMemberInput{
				PaymentAmount: 100,
				PaymentMethod: models.PaymentMethodCash,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enrollment.EnrollMember(context.Background(), tt.input)
			var validation *ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}
