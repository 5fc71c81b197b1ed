package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nepse-paper-trader-go/internal/models"
)

// NewDatabase opens the sqlite database and performs auto-migration.
// Unlike a scratch bot database, user state here must survive restarts, so
// existing tables are never dropped.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the schema and seeds the synthetic
// leaderboard population on first run.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Balance{},
		&models.Holding{},
		&models.LeaderboardEntry{},
		&models.BonusClaim{},
		&models.Preference{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	if err := seedLeaderboard(db); err != nil {
		return err
	}

	return nil
}

// sampleInvestors is the synthetic population shown on the leaderboard
// alongside the local investor.
var sampleInvestors = []struct {
	Name     string
	NetWorth string
}{
	{"Aarav Shrestha", "184250.75"},
	{"Sita Gurung", "157930.00"},
	{"Bibek Thapa", "141085.40"},
	{"Anisha Karki", "128600.25"},
	{"Prakash Adhikari", "117440.00"},
	{"Muna Rai", "109875.50"},
	{"Dipesh Maharjan", "103210.00"},
	{"Sarita Poudel", "97560.80"},
	{"Kiran Tamang", "91230.00"},
	{"Rojina Basnet", "86475.25"},
}

func seedLeaderboard(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.LeaderboardEntry{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count leaderboard entries: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	for _, s := range sampleInvestors {
		netWorth, err := decimal.NewFromString(s.NetWorth)
		if err != nil {
			return fmt.Errorf("bad seed net worth for %s: %w", s.Name, err)
		}
		entry := models.LeaderboardEntry{
			ID:          uuid.NewString(),
			DisplayName: s.Name,
			NetWorth:    netWorth,
			LastUpdated: now,
		}
		if err := db.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to seed leaderboard entry '%s': %w", s.Name, err)
		}
	}

	return nil
}
