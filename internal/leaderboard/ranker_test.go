package leaderboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nepse-paper-trader-go/internal/models"
)

const week = 7 * 24 * time.Hour

func entry(name string, netWorth int64, updated time.Time) models.LeaderboardEntry {
	return models.LeaderboardEntry{
		ID:          uuid.NewString(),
		DisplayName: name,
		NetWorth:    decimal.NewFromInt(netWorth),
		LastUpdated: updated,
	}
}

func TestRank_SortsDescendingAndPurges(t *testing.T) {
	now := time.Now()
	entries := []models.LeaderboardEntry{
		entry("mid", 120000, now),
		entry("stale", 999999, now.Add(-8*24*time.Hour)), // over a week old
		entry("top", 150000, now.Add(-time.Hour)),
		entry("low", 90000, now.Add(-6*24*time.Hour)), // six days: kept
	}

	ranked := Rank(entries, now, week, 50)

	assert.Len(t, ranked, 3)
	assert.Equal(t, "top", ranked[0].DisplayName)
	assert.Equal(t, "mid", ranked[1].DisplayName)
	assert.Equal(t, "low", ranked[2].DisplayName)

	cutoff := now.Add(-week)
	for _, e := range ranked {
		assert.False(t, e.LastUpdated.Before(cutoff), "%s is stale", e.DisplayName)
	}
}

func TestRank_TruncatesToSize(t *testing.T) {
	now := time.Now()
	var entries []models.LeaderboardEntry
	for i := 0; i < 60; i++ {
		entries = append(entries, entry(fmt.Sprintf("investor-%d", i), int64(100000+i), now))
	}

	ranked := Rank(entries, now, week, 50)

	assert.Len(t, ranked, 50)
	// Strictly descending across the kept slice.
	for i := 1; i < len(ranked); i++ {
		assert.True(t, ranked[i-1].NetWorth.GreaterThanOrEqual(ranked[i].NetWorth))
	}
	// The weakest ten fell off the board.
	assert.Equal(t, "investor-59", ranked[0].DisplayName)
	assert.Equal(t, "investor-10", ranked[49].DisplayName)
}

func setupRanker(t *testing.T) (*Ranker, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.LeaderboardEntry{}, &models.Preference{}))

	ranker, err := NewRanker(db, zap.NewNop(), 50, 7)
	assert.NoError(t, err)
	return ranker, db
}

func TestRanker_RefreshUserUpserts(t *testing.T) {
	ranker, db := setupRanker(t)
	now := time.Now()

	assert.NoError(t, ranker.RefreshUser(decimal.NewFromInt(110000), now))
	assert.NoError(t, ranker.RefreshUser(decimal.NewFromInt(125000), now.Add(time.Minute)))

	// Keyed by a stable id: refreshing twice leaves exactly one user row.
	var count int64
	assert.NoError(t, db.Model(&models.LeaderboardEntry{}).Where("is_user = ?", true).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var userEntry models.LeaderboardEntry
	assert.NoError(t, db.First(&userEntry, "is_user = ?", true).Error)
	assert.True(t, userEntry.NetWorth.Equal(decimal.NewFromInt(125000)))
	assert.Equal(t, "Investor", userEntry.DisplayName)
}

func TestRanker_RefreshUserHonorsDisplayNamePreference(t *testing.T) {
	ranker, db := setupRanker(t)
	assert.NoError(t, db.Create(&models.Preference{Key: models.PrefInvestorName, Value: "Gita"}).Error)

	assert.NoError(t, ranker.RefreshUser(decimal.NewFromInt(110000), time.Now()))

	var userEntry models.LeaderboardEntry
	assert.NoError(t, db.First(&userEntry, "is_user = ?", true).Error)
	assert.Equal(t, "Gita", userEntry.DisplayName)
}

func TestRanker_StandingsPurgesStaleRows(t *testing.T) {
	ranker, db := setupRanker(t)
	now := time.Now()

	fresh := entry("fresh", 140000, now)
	stale := entry("stale", 200000, now.Add(-8*24*time.Hour))
	assert.NoError(t, db.Create(&fresh).Error)
	assert.NoError(t, db.Create(&stale).Error)

	standings, err := ranker.Standings(now)
	assert.NoError(t, err)

	assert.Len(t, standings, 1)
	assert.Equal(t, "fresh", standings[0].DisplayName)

	// The stale row is gone from the database, not just filtered.
	var count int64
	assert.NoError(t, db.Model(&models.LeaderboardEntry{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRanker_Podium(t *testing.T) {
	ranker, db := setupRanker(t)
	now := time.Now()
	for i, name := range []string{"fourth", "third", "second", "first"} {
		e := entry(name, int64(100000+i*10000), now)
		assert.NoError(t, db.Create(&e).Error)
	}

	podium, err := ranker.Podium(now)
	assert.NoError(t, err)

	assert.Len(t, podium, PodiumSize)
	assert.Equal(t, "first", podium[0].DisplayName)
	assert.Equal(t, "second", podium[1].DisplayName)
	assert.Equal(t, "third", podium[2].DisplayName)
}

func TestNewRanker_ReusesExistingUserEntryID(t *testing.T) {
	ranker, db := setupRanker(t)
	assert.NoError(t, ranker.RefreshUser(decimal.NewFromInt(110000), time.Now()))

	again, err := NewRanker(db, zap.NewNop(), 50, 7)
	assert.NoError(t, err)
	assert.NoError(t, again.RefreshUser(decimal.NewFromInt(115000), time.Now()))

	var count int64
	assert.NoError(t, db.Model(&models.LeaderboardEntry{}).Where("is_user = ?", true).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
