package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vtfitness_api/internal/models"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive for the test
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func createTestPlan(t *testing.T, db *gorm.DB, price float64) *models.Plan {
	t.Helper()

	plan := models.Plan{
		Name:           "Gold",
		Price:          price,
		DurationMonths: 12,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&plan).Error)
	return &plan
}

func createTestMember(t *testing.T, db *gorm.DB, email string, planID *uint) *models.Member {
	t.Helper()

	member := models.Member{
		FullName:  "Test Member",
		Email:     email,
		Phone:     "0987654321",
		PlanID:    planID,
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(1, 0, 0),
		Status:    models.MembershipStatusInactive,
	}
	require.NoError(t, db.Create(&member).Error)
	return &member
}
