package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vtfitness_api/internal/models"
)

func newTestPaymentService(db *gorm.DB) *PaymentService {
	return NewPaymentService(db, NewBalanceService(db), nil)
}

func TestRecordPayment_PartialThenClearing(t *testing.T) {
	db := newTestDB(t)
	payments := newTestPaymentService(db)

	plan := createTestPlan(t, db, 100)
	member := createTestMember(t, db, "ledger@example.com", &plan.ID)

	first, err := payments.RecordPayment(RecordPaymentInput{
		MemberID:      member.ID,
		Amount:        40,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.True(t, first.IsPartial)
	assert.Equal(t, models.PaymentTypePartial, first.PaymentType)
	assert.Equal(t, 60.0, first.RemainingBalance)
	assert.NotEmpty(t, first.ReceiptRef)

	second, err := payments.RecordPayment(RecordPaymentInput{
		MemberID:      member.ID,
		Amount:        60,
		PaymentMethod: models.PaymentMethodUPI,
	})
	require.NoError(t, err)

	assert.False(t, second.IsPartial)
	assert.Equal(t, 0.0, second.RemainingBalance)

	var reloaded models.Member
	require.NoError(t, db.First(&reloaded, member.ID).Error)
	assert.Equal(t, 0.0, reloaded.BalanceDue)
	assert.Equal(t, 100.0, reloaded.AmountPaid)
	assert.Equal(t, models.MembershipStatusActive, reloaded.Status)
}

func TestRecordPayment_TypeOverride(t *testing.T) {
	db := newTestDB(t)
	payments := newTestPaymentService(db)

	plan := createTestPlan(t, db, 100)
	member := createTestMember(t, db, "renewal@example.com", &plan.ID)

	record, err := payments.RecordPayment(RecordPaymentInput{
		MemberID:      member.ID,
		Amount:        100,
		PaymentMethod: models.PaymentMethodCard,
		TypeOverride:  models.PaymentTypeRenewal,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentTypeRenewal, record.PaymentType)
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	payments := newTestPaymentService(db)

	_, err := payments.RecordPayment(RecordPaymentInput{
		MemberID: 1,
		Amount:   0,
	})

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestRecordPayment_UnknownMember(t *testing.T) {
	db := newTestDB(t)
	payments := newTestPaymentService(db)

	_, err := payments.RecordPayment(RecordPaymentInput{
		MemberID:      9999,
		Amount:        50,
		PaymentMethod: models.PaymentMethodCash,
	})

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeletePayment_RecomputesBalance(t *testing.T) {
	db := newTestDB(t)
	payments := newTestPaymentService(db)

	plan := createTestPlan(t, db, 100)
	member := createTestMember(t, db, "correction@example.com", &plan.ID)

	record, err := payments.RecordPayment(RecordPaymentInput{
		MemberID:      member.ID,
		Amount:        100,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	var cleared models.Member
	require.NoError(t, db.First(&cleared, member.ID).Error)
	require.Equal(t, 0.0, cleared.BalanceDue)

	require.NoError(t, payments.DeletePayment(record.ID))

	var reloaded models.Member
	require.NoError(t, db.First(&reloaded, member.ID).Error)
	assert.Equal(t, 100.0, reloaded.BalanceDue)
	assert.Equal(t, 0.0, reloaded.AmountPaid)
}
