// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for ETag
// generation in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// SignalsStats returns the number of visible signals under f and the newest
// collected_at among them. maxCollectedAt is nil when there are no rows.
// The hidden-row count is folded in so that hiding a signal changes the
// result even though the newest timestamp does not move.
func SignalsStats(ctx context.Context, db *gorm.DB, f SignalFilter) (count, hidden int64, maxCollectedAt *time.Time, err error) {
	if count, err = CountSignals(ctx, db, f); err != nil {
		return 0, 0, nil, err
	}
	if err = db.WithContext(ctx).Model(&domain.Hidden{}).Count(&hidden).Error; err != nil {
		return 0, 0, nil, err
	}
	if count == 0 {
		return 0, hidden, nil, nil
	}

	// Get latest collected_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CollectedAt time.Time
	}
	if err = signalQuery(ctx, db, f).Select("signals.collected_at AS collected_at").
		Order("signals.collected_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return count, hidden, &row.CollectedAt, nil
}

// FavoritesStats returns the favorite count and the newest favorited_at.
func FavoritesStats(ctx context.Context, db *gorm.DB) (count int64, maxFavoritedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Favorite{})
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var row struct {
		FavoritedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Favorite{}).Select("favorited_at").
		Order("favorited_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.FavoritedAt, nil
}
