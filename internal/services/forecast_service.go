package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vtfitness_api/internal/models"
)

// RevenueForecast splits scheduled installment revenue inside a window
// into confirmed (paid) and potential (everything else)
type RevenueForecast struct {
	Period           string    `json:"period"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	ConfirmedRevenue float64   `json:"confirmed_revenue"`
	PotentialRevenue float64   `json:"potential_revenue"`
	TotalPredicted   float64   `json:"total_predicted"`
	PaymentCount     int       `json:"payment_count"`
}

// InstallmentAnalytics is the aggregate view of the installment book
type InstallmentAnalytics struct {
	ActivePlans           int64   `json:"active_plans"`
	CompletedPlans        int64   `json:"completed_plans"`
	TotalRevenueCollected float64 `json:"total_revenue_collected"`
	TotalPending          float64 `json:"total_pending"`
	OverdueCount          int64   `json:"overdue_count"`
	CollectionRate        float64 `json:"collection_rate"`
}

// ForecastService aggregates installment schedules into revenue
// projections. Pure reads; results are cached briefly in Redis since
// the dashboard polls them.
type ForecastService struct {
	db    *gorm.DB
	cache *RedisCache
}

func NewForecastService(db *gorm.DB, cache *RedisCache) *ForecastService {
	return &ForecastService{db: db, cache: cache}
}

// Forecast sums installment amounts due within [today, today+windowDays]:
// paid rows into confirmed revenue, all others into potential revenue
func (s *ForecastService) Forecast(ctx context.Context, windowDays int) (RevenueForecast, error) {
	key := fmt.Sprintf("forecast:revenue:%d", windowDays)
	return GetOrSet(s.cache, ctx, key, 5*time.Minute, func() (RevenueForecast, error) {
		today := startOfDay(time.Now())
		until := today.AddDate(0, 0, windowDays)

		var payments []models.InstallmentPayment
		err := s.db.Where("due_date >= ? AND due_date <= ?", today, until).Find(&payments).Error
		if err != nil {
			return RevenueForecast{}, &PersistenceError{Op: "load installment payments", Err: err}
		}

		forecast := RevenueForecast{
			Period:       fmt.Sprintf("next_%d_days", windowDays),
			StartDate:    today,
			EndDate:      until,
			PaymentCount: len(payments),
		}
		for _, p := range payments {
			if p.Status == models.InstallmentStatusPaid {
				forecast.ConfirmedRevenue += p.Amount
			} else {
				forecast.PotentialRevenue += p.Amount
			}
		}
		forecast.TotalPredicted = forecast.ConfirmedRevenue + forecast.PotentialRevenue

		return forecast, nil
	})
}

// Analytics aggregates plan counts, collected vs pending revenue and the
// collection rate across the whole installment book
func (s *ForecastService) Analytics(ctx context.Context) (InstallmentAnalytics, error) {
	return GetOrSet(s.cache, ctx, "forecast:analytics", 5*time.Minute, func() (InstallmentAnalytics, error) {
		var analytics InstallmentAnalytics

		err := s.db.Model(&models.InstallmentPlan{}).
			Where("status = ?", models.InstallmentPlanStatusActive).
			Count(&analytics.ActivePlans).Error
		if err != nil {
			return analytics, &PersistenceError{Op: "count active plans", Err: err}
		}

		err = s.db.Model(&models.InstallmentPlan{}).
			Where("status = ?", models.InstallmentPlanStatusCompleted).
			Count(&analytics.CompletedPlans).Error
		if err != nil {
			return analytics, &PersistenceError{Op: "count completed plans", Err: err}
		}

		var payments []models.InstallmentPayment
		if err := s.db.Find(&payments).Error; err != nil {
			return analytics, &PersistenceError{Op: "load installment payments", Err: err}
		}

		for _, p := range payments {
			switch p.Status {
			case models.InstallmentStatusPaid:
				analytics.TotalRevenueCollected += p.Amount
			case models.InstallmentStatusPending, models.InstallmentStatusOverdue:
				analytics.TotalPending += p.Amount
				if p.Status == models.InstallmentStatusOverdue {
					analytics.OverdueCount++
				}
			}
		}

		if total := analytics.TotalRevenueCollected + analytics.TotalPending; total > 0 {
			analytics.CollectionRate = analytics.TotalRevenueCollected / total * 100
		}

		return analytics, nil
	})
}
