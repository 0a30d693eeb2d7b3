package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtfitness_api/internal/models"
)

func TestParseInstallmentOrderID(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		want    uint
		wantErr bool
	}{
		{name: "valid", orderID: "installment-42-1700000000", want: 42},
		{name: "wrong prefix", orderID: "order-42-1700000000", wantErr: true},
		{name: "missing timestamp", orderID: "installment-42", wantErr: true},
		{name: "non numeric id", orderID: "installment-abc-1700000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInstallmentOrderID(tt.orderID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleCallback_SettlementMarksPaid(t *testing.T) {
	db := newTestDB(t)
	installments := NewInstallmentService(db)
	gateway := NewGatewayService(db, nil, installments)

	member := createTestMember(t, db, "callback@example.com", nil)
	plan := newTestInstallmentPlan(t, installments, member.ID, 2, models.FrequencyMonthly, time.Now())
	target := plan.Payments[0]

	orderID := fmt.Sprintf("installment-%d-%d", target.ID, time.Now().Unix())
	session := models.PaymentSession{
		InstallmentPlanID:    plan.ID,
		InstallmentPaymentID: target.ID,
		MemberID:             member.ID,
		PaymentGateway:       models.PaymentGatewayMidtrans,
		OrderID:              orderID,
		IsActive:             true,
	}
	require.NoError(t, db.Create(&session).Error)

	err := gateway.HandleCallback(map[string]interface{}{
		"order_id":           orderID,
		"transaction_status": "settlement",
		"transaction_id":     "mt-123",
		"payment_type":       "qris",
	})
	require.NoError(t, err)

	var paid models.InstallmentPayment
	require.NoError(t, db.First(&paid, target.ID).Error)
	assert.Equal(t, models.InstallmentStatusPaid, paid.Status)
	assert.Equal(t, "mt-123", paid.TransactionID)
	assert.Equal(t, "qris", paid.PaymentMethod)

	var reloadedPlan models.InstallmentPlan
	require.NoError(t, db.First(&reloadedPlan, plan.ID).Error)
	assert.Equal(t, 1, reloadedPlan.PaidInstallments)

	var reloadedSession models.PaymentSession
	require.NoError(t, db.First(&reloadedSession, session.ID).Error)
	assert.False(t, reloadedSession.IsActive)

	// The raw payload was archived
	var historyCount int64
	require.NoError(t, db.Model(&models.PaymentCallbackHistory{}).
		Where("order_id = ?", orderID).Count(&historyCount).Error)
	assert.Equal(t, int64(1), historyCount)
}

func TestHandleCallback_ExpiryDeactivatesSession(t *testing.T) {
	db := newTestDB(t)
	installments := NewInstallmentService(db)
	gateway := NewGatewayService(db, nil, installments)

	member := createTestMember(t, db, "expiry@example.com", nil)
	plan := newTestInstallmentPlan(t, installments, member.ID, 1, models.FrequencyMonthly, time.Now())
	target := plan.Payments[0]

	orderID := fmt.Sprintf("installment-%d-%d", target.ID, time.Now().Unix())
	session := models.PaymentSession{
		InstallmentPlanID:    plan.ID,
		InstallmentPaymentID: target.ID,
		MemberID:             member.ID,
		PaymentGateway:       models.PaymentGatewayMidtrans,
		OrderID:              orderID,
		IsActive:             true,
	}
	require.NoError(t, db.Create(&session).Error)

	err := gateway.HandleCallback(map[string]interface{}{
		"order_id":           orderID,
		"transaction_status": "expire",
	})
	require.NoError(t, err)

	// The installment stays payable
	var payment models.InstallmentPayment
	require.NoError(t, db.First(&payment, target.ID).Error)
	assert.Equal(t, models.InstallmentStatusPending, payment.Status)

	var reloadedSession models.PaymentSession
	require.NoError(t, db.First(&reloadedSession, session.ID).Error)
	assert.False(t, reloadedSession.IsActive)
}

func TestHandleCallback_UnrecognizedOrderID(t *testing.T) {
	db := newTestDB(t)
	gateway := NewGatewayService(db, nil, NewInstallmentService(db))

	err := gateway.HandleCallback(map[string]interface{}{
		"order_id":           "something-else",
		"transaction_status": "settlement",
	})

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}
