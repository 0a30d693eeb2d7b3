package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"

	"vtfitness_api/internal/models"
)

// MidtransService wraps the Snap and Core API clients
type MidtransService struct {
	SnapClient snap.Client
	CoreClient coreapi.Client
}

func NewMidtransService() *MidtransService {
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	clientKey := os.Getenv("MIDTRANS_CLIENT_KEY")
	envStr := os.Getenv("MIDTRANS_IS_PRODUCTION")

	env := midtrans.Sandbox
	if envStr == "true" {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(serverKey, env)

	var c coreapi.Client
	c.New(serverKey, env)

	midtrans.ServerKey = serverKey
	midtrans.ClientKey = clientKey
	midtrans.Environment = env

	return &MidtransService{
		SnapClient: s,
		CoreClient: c,
	}
}

// CreateTransaction creates a Snap transaction and returns token and redirect URL
func (s *MidtransService) CreateTransaction(param *snap.Request) (*snap.Response, error) {
	resp, err := s.SnapClient.CreateTransaction(param)
	if err != nil {
		return nil, fmt.Errorf("midtrans create transaction error: %v", err)
	}
	return resp, nil
}

// CheckTransaction fetches the current gateway-side status of an order
func (s *MidtransService) CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, error) {
	resp, err := s.CoreClient.CheckTransaction(orderID)
	if err != nil {
		return nil, fmt.Errorf("midtrans check transaction error: %v", err)
	}
	return resp, nil
}

// CancelTransaction voids a pending order at the gateway
func (s *MidtransService) CancelTransaction(orderID string) error {
	if _, err := s.CoreClient.CancelTransaction(orderID); err != nil {
		return fmt.Errorf("midtrans cancel transaction error: %v", err)
	}
	return nil
}

// CheckoutResult holds the outcome of an initiation attempt
type CheckoutResult struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	IsExisting  bool   `json:"is_existing"`
}

// GatewayService starts and reconciles online checkouts for installment
// payments
type GatewayService struct {
	db           *gorm.DB
	midtrans     *MidtransService
	installments *InstallmentService
}

func NewGatewayService(db *gorm.DB, midtrans *MidtransService, installments *InstallmentService) *GatewayService {
	return &GatewayService{db: db, midtrans: midtrans, installments: installments}
}

// CheckActiveSession returns the newest active checkout session for an
// installment payment, or nil when none exists
func (s *GatewayService) CheckActiveSession(installmentPaymentID uint) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.db.Where("installment_payment_id = ? AND is_active = ?", installmentPaymentID, true).
		Order("created_at desc").First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "load payment session", Err: err}
	}
	return &session, nil
}

// InitiateCheckout starts (or resumes) a Snap checkout for an installment
// payment. An unexpired pending session is reused unless forceNew is set.
func (s *GatewayService) InitiateCheckout(installmentPaymentID uint, forceNew bool, callbackURL string) (*CheckoutResult, error) {
	var payment models.InstallmentPayment
	err := s.db.Preload("InstallmentPlan.Member").Preload("InstallmentPlan.Plan").
		First(&payment, installmentPaymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "installment payment", ID: installmentPaymentID}
		}
		return nil, &PersistenceError{Op: "load installment payment", Err: err}
	}

	if payment.Status == models.InstallmentStatusPaid {
		return nil, &ConflictError{Reason: "installment is already paid"}
	}
	if payment.Status == models.InstallmentStatusCancelled {
		return nil, &ConflictError{Reason: "installment is cancelled"}
	}

	existing, err := s.CheckActiveSession(payment.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		statusResp, err := s.midtrans.CheckTransaction(existing.OrderID)
		if err == nil {
			switch statusResp.TransactionStatus {
			case "settlement", "capture":
				return nil, &ConflictError{Reason: "payment already made"}
			case "deny", "expire", "cancel", "failure":
				s.deactivateSession(existing)
			default:
				// Still pending at the gateway
				if forceNew {
					if err := s.midtrans.CancelTransaction(existing.OrderID); err != nil {
						log.Printf("Failed to cancel gateway order %s: %v", existing.OrderID, err)
					}
					s.deactivateSession(existing)
				} else {
					var snapResp snap.Response
					if err := json.Unmarshal(existing.ResponseMetadata, &snapResp); err == nil {
						return &CheckoutResult{
							Token:       snapResp.Token,
							RedirectURL: snapResp.RedirectURL,
							IsExisting:  true,
						}, nil
					}
					// Broken metadata, start over
					s.deactivateSession(existing)
				}
			}
		} else {
			// Status check failed, treat local session as broken
			s.deactivateSession(existing)
		}
	}

	member := payment.InstallmentPlan.Member
	planName := "Installment plan"
	if payment.InstallmentPlan.Plan != nil {
		planName = payment.InstallmentPlan.Plan.Name
	}

	orderID := fmt.Sprintf("installment-%d-%d", payment.ID, time.Now().Unix())

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: int64(payment.Amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: member.FullName,
			Email: member.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("installment-plan-%d", payment.InstallmentPlanID),
				Name:  fmt.Sprintf("%s - installment %d of %d", planName, payment.InstallmentNumber, payment.InstallmentPlan.InstallmentCount),
				Price: int64(payment.Amount),
				Qty:   1,
			},
		},
	}
	if callbackURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: callbackURL}
	}

	resp, err := s.midtrans.CreateTransaction(req)
	if err != nil {
		return nil, &DependencyDegraded{Dependency: "payment gateway", Err: err}
	}

	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)

	session := models.PaymentSession{
		InstallmentPlanID:    payment.InstallmentPlanID,
		InstallmentPaymentID: payment.ID,
		MemberID:             payment.InstallmentPlan.MemberID,
		PaymentGateway:       models.PaymentGatewayMidtrans,
		OrderID:              orderID,
		IsActive:             true,
		RequestMetadata:      reqBytes,
		ResponseMetadata:     respBytes,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, &PersistenceError{Op: "create payment session", Err: err}
	}

	return &CheckoutResult{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// HandleCallback processes a gateway notification. Every payload is
// archived; settlements mark the installment paid and roll the parent
// plan's progress forward.
func (s *GatewayService) HandleCallback(payload map[string]interface{}) error {
	orderID, _ := payload["order_id"].(string)
	transactionStatus, _ := payload["transaction_status"].(string)
	fraudStatus, _ := payload["fraud_status"].(string)

	raw, _ := json.Marshal(payload)
	history := models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayMidtrans,
		OrderID:        orderID,
		Metadata:       raw,
	}
	if err := s.db.Create(&history).Error; err != nil {
		log.Printf("Failed to archive gateway callback for %s: %v", orderID, err)
	}

	paymentID, err := parseInstallmentOrderID(orderID)
	if err != nil {
		return &ValidationError{Field: "order_id", Reason: err.Error()}
	}

	settled := transactionStatus == "settlement" ||
		(transactionStatus == "capture" && fraudStatus != "challenge")

	switch {
	case settled:
		transactionID, _ := payload["transaction_id"].(string)
		paymentType, _ := payload["payment_type"].(string)
		if paymentType == "" {
			paymentType = string(models.PaymentGatewayMidtrans)
		}

		payment, err := s.installments.MarkPaid(paymentID, paymentType, transactionID, "settled via gateway callback")
		if err != nil {
			return err
		}
		if _, err := s.installments.RefreshPlanProgress(payment.InstallmentPlanID); err != nil {
			return err
		}
		s.deactivateSessionsFor(paymentID)

	case transactionStatus == "deny" || transactionStatus == "expire" || transactionStatus == "cancel":
		s.deactivateSessionsFor(paymentID)
	}

	return nil
}

func (s *GatewayService) deactivateSession(session *models.PaymentSession) {
	session.IsActive = false
	if err := s.db.Save(session).Error; err != nil {
		log.Printf("Failed to deactivate payment session %d: %v", session.ID, err)
	}
}

func (s *GatewayService) deactivateSessionsFor(installmentPaymentID uint) {
	err := s.db.Model(&models.PaymentSession{}).
		Where("installment_payment_id = ?", installmentPaymentID).
		Update("is_active", false).Error
	if err != nil {
		log.Printf("Failed to deactivate sessions for installment payment %d: %v", installmentPaymentID, err)
	}
}

// parseInstallmentOrderID extracts the installment payment ID from an
// order ID of the form installment-{id}-{timestamp}
func parseInstallmentOrderID(orderID string) (uint, error) {
	parts := strings.Split(orderID, "-")
	if len(parts) < 3 || parts[0] != "installment" {
		return 0, fmt.Errorf("unrecognized order id format %q", orderID)
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid installment payment id in order id %q", orderID)
	}
	return uint(id), nil
}
