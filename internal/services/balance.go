package services

import (
	"errors"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"vtfitness_api/internal/models"
)

// BalanceBreakdown is the derived balance state for one member
type BalanceBreakdown struct {
	TotalDue   float64 `json:"total_amount_due"`
	TotalPaid  float64 `json:"amount_paid"`
	BalanceDue float64 `json:"balance_due"`
}

// ComputeBalance derives a member's balance from plan price and payment
// history. Pure: no store access, re-derivable at any time, independent
// of whatever snapshot is cached on the member row.
//
// totalDue is the plan price when one is set, otherwise fallbackAmount
// (planless ad-hoc enrollment, where the first payment defines the due).
// Only completed/paid payments count toward the total.
func ComputeBalance(planPrice, fallbackAmount float64, payments []models.Payment) BalanceBreakdown {
	totalPaid := 0.0
	for _, p := range payments {
		if p.CountsTowardBalance() {
			totalPaid += p.Amount
		}
	}

	totalDue := planPrice
	if totalDue <= 0 {
		totalDue = fallbackAmount
	}

	return BalanceBreakdown{
		TotalDue:   totalDue,
		TotalPaid:  totalPaid,
		BalanceDue: math.Max(0, totalDue-totalPaid),
	}
}

// MemberBalance is the read-side balance projection for one member
type MemberBalance struct {
	MemberID   uint                    `json:"member_id"`
	MemberName string                  `json:"member_name"`
	Email      string                  `json:"email"`
	Phone      string                  `json:"phone"`
	PlanName   string                  `json:"plan_name,omitempty"`
	Status     models.MembershipStatus `json:"status"`
	EndDate    time.Time               `json:"end_date"`
	BalanceBreakdown
}

// BalanceSummary is the gym-wide aggregate for the admin dashboard
type BalanceSummary struct {
	TotalAmountDue     float64 `json:"total_amount_due"`
	TotalAmountPaid    float64 `json:"total_amount_paid"`
	TotalBalanceDue    float64 `json:"total_balance_due"`
	MembersWithBalance int     `json:"members_with_balance"`
	CollectionRate     float64 `json:"collection_rate"`
}

// BalanceService derives and maintains member balance state
type BalanceService struct {
	db *gorm.DB
}

func NewBalanceService(db *gorm.DB) *BalanceService {
	return &BalanceService{db: db}
}

// RecomputeBalance rebuilds the member's balance snapshot from the full
// payment history and writes it back, promoting the member to active once
// the balance is cleared. Recomputing from the aggregate instead of
// read-modify-writing the cached fields keeps concurrent payments from
// losing updates.
func (s *BalanceService) RecomputeBalance(memberID uint) (*models.Member, error) {
	var member models.Member
	if err := s.db.Preload("Plan").First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "member", ID: memberID}
		}
		return nil, &PersistenceError{Op: "load member", Err: err}
	}

	var payments []models.Payment
	if err := s.db.Where("member_id = ?", memberID).Find(&payments).Error; err != nil {
		return nil, &PersistenceError{Op: "load payments", Err: err}
	}

	planPrice := 0.0
	if member.Plan != nil {
		planPrice = member.Plan.Price
	}
	breakdown := ComputeBalance(planPrice, member.TotalAmountDue, payments)

	updates := map[string]interface{}{
		"total_amount_due": breakdown.TotalDue,
		"amount_paid":      breakdown.TotalPaid,
		"balance_due":      breakdown.BalanceDue,
	}
	if breakdown.BalanceDue <= 0 && member.Status == models.MembershipStatusInactive {
		updates["status"] = models.MembershipStatusActive
	}

	if err := s.db.Model(&member).Updates(updates).Error; err != nil {
		return nil, &PersistenceError{Op: "update member balance", Err: err}
	}

	return &member, nil
}

// GetMemberBalance returns the derived balance for one member
func (s *BalanceService) GetMemberBalance(memberID uint) (*MemberBalance, error) {
	var member models.Member
	if err := s.db.Preload("Plan").First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "member", ID: memberID}
		}
		return nil, &PersistenceError{Op: "load member", Err: err}
	}

	var payments []models.Payment
	if err := s.db.Where("member_id = ?", member.ID).Find(&payments).Error; err != nil {
		return nil, &PersistenceError{Op: "load payments", Err: err}
	}

	return s.projection(&member, payments), nil
}

// ListMembersWithBalance returns every member still owing money,
// sorted by balance due, highest first
func (s *BalanceService) ListMembersWithBalance() ([]MemberBalance, error) {
	var members []models.Member
	if err := s.db.Preload("Plan").Find(&members).Error; err != nil {
		return nil, &PersistenceError{Op: "load members", Err: err}
	}

	var payments []models.Payment
	if err := s.db.Find(&payments).Error; err != nil {
		return nil, &PersistenceError{Op: "load payments", Err: err}
	}

	byMember := make(map[uint][]models.Payment)
	for _, p := range payments {
		byMember[p.MemberID] = append(byMember[p.MemberID], p)
	}

	var balances []MemberBalance
	for i := range members {
		proj := s.projection(&members[i], byMember[members[i].ID])
		if proj.BalanceDue > 0 {
			balances = append(balances, *proj)
		}
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].BalanceDue > balances[j].BalanceDue
	})

	return balances, nil
}

// Summary aggregates dues and collections across all members
func (s *BalanceService) Summary() (*BalanceSummary, error) {
	var members []models.Member
	if err := s.db.Preload("Plan").Find(&members).Error; err != nil {
		return nil, &PersistenceError{Op: "load members", Err: err}
	}

	var payments []models.Payment
	if err := s.db.Find(&payments).Error; err != nil {
		return nil, &PersistenceError{Op: "load payments", Err: err}
	}

	byMember := make(map[uint][]models.Payment)
	for _, p := range payments {
		byMember[p.MemberID] = append(byMember[p.MemberID], p)
	}

	summary := &BalanceSummary{}
	for i := range members {
		proj := s.projection(&members[i], byMember[members[i].ID])
		summary.TotalAmountDue += proj.TotalDue
		summary.TotalAmountPaid += proj.TotalPaid
		summary.TotalBalanceDue += proj.BalanceDue
		if proj.BalanceDue > 0 {
			summary.MembersWithBalance++
		}
	}
	if summary.TotalAmountDue > 0 {
		summary.CollectionRate = summary.TotalAmountPaid / summary.TotalAmountDue * 100
	}

	return summary, nil
}

func (s *BalanceService) projection(member *models.Member, payments []models.Payment) *MemberBalance {
	planPrice := 0.0
	planName := ""
	if member.Plan != nil {
		planPrice = member.Plan.Price
		planName = member.Plan.Name
	}

	return &MemberBalance{
		MemberID:         member.ID,
		MemberName:       member.FullName,
		Email:            member.Email,
		Phone:            member.Phone,
		PlanName:         planName,
		Status:           member.Status,
		EndDate:          member.EndDate,
		BalanceBreakdown: ComputeBalance(planPrice, member.TotalAmountDue, payments),
	}
}
