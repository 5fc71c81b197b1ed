package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nepse-paper-trader-go/internal/models"
)

// PodiumSize is the number of entries shown on the podium view.
const PodiumSize = 3

// Ranker derives the net-worth ranking from the synthetic population plus
// the local investor's entry.
type Ranker struct {
	db     *gorm.DB
	logger *zap.Logger
	size   int
	maxAge time.Duration
	userID string
}

// NewRanker creates the ranker, locating or assigning the stable id for the
// local investor's leaderboard entry. Keying the user by an assigned id
// rather than by net-worth value keeps two coincidentally-equal entries
// from colliding.
func NewRanker(db *gorm.DB, logger *zap.Logger, size, maxAgeDays int) (*Ranker, error) {
	r := &Ranker{
		db:     db,
		logger: logger,
		size:   size,
		maxAge: time.Duration(maxAgeDays) * 24 * time.Hour,
	}

	var entry models.LeaderboardEntry
	err := db.Where("is_user = ?", true).First(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		r.userID = uuid.NewString()
	case err != nil:
		return nil, fmt.Errorf("failed to locate user leaderboard entry: %w", err)
	default:
		r.userID = entry.ID
	}

	return r, nil
}

// RefreshUser upserts the local investor's entry with a freshly computed
// net worth.
func (r *Ranker) RefreshUser(netWorth decimal.Decimal, now time.Time) error {
	name := r.displayName()
	entry := models.LeaderboardEntry{
		ID:          r.userID,
		DisplayName: name,
		NetWorth:    netWorth,
		LastUpdated: now,
		IsUser:      true,
	}
	if err := r.db.Save(&entry).Error; err != nil {
		return fmt.Errorf("failed to refresh user leaderboard entry: %w", err)
	}
	r.logger.Debug("Refreshed leaderboard entry",
		zap.String("display_name", name),
		zap.String("net_worth", netWorth.String()))
	return nil
}

// displayName reads the investor's chosen name, falling back to a default.
func (r *Ranker) displayName() string {
	var pref models.Preference
	err := r.db.First(&pref, "key = ?", models.PrefInvestorName).Error
	if err != nil || pref.Value == "" {
		return "Investor"
	}
	return pref.Value
}

// Standings purges stale entries and returns the current top-N ranking.
func (r *Ranker) Standings(now time.Time) ([]models.LeaderboardEntry, error) {
	cutoff := now.Add(-r.maxAge)
	if err := r.db.Where("last_updated < ?", cutoff).Delete(&models.LeaderboardEntry{}).Error; err != nil {
		return nil, fmt.Errorf("failed to purge stale leaderboard entries: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := r.db.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load leaderboard entries: %w", err)
	}

	return Rank(entries, now, r.maxAge, r.size), nil
}

// Podium returns the top three of the current standings.
func (r *Ranker) Podium(now time.Time) ([]models.LeaderboardEntry, error) {
	standings, err := r.Standings(now)
	if err != nil {
		return nil, err
	}
	if len(standings) > PodiumSize {
		standings = standings[:PodiumSize]
	}
	return standings, nil
}

// Rank filters out entries older than maxAge, sorts the rest descending by
// net worth and truncates to size. Pure function, exported for reuse.
func Rank(entries []models.LeaderboardEntry, now time.Time, maxAge time.Duration, size int) []models.LeaderboardEntry {
	cutoff := now.Add(-maxAge)

	ranked := make([]models.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.LastUpdated.Before(cutoff) {
			continue
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NetWorth.GreaterThan(ranked[j].NetWorth)
	})

	if size > 0 && len(ranked) > size {
		ranked = ranked[:size]
	}
	return ranked
}
