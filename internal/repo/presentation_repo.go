// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the inbox projection writes: hiding
// signals and pinning favorites.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// HideSignal hides id from the inbox. Returns ErrNotFound when the signal
// does not exist.
func HideSignal(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := GetSignal(ctx, tx, id); err != nil {
			return err
		}
		h := domain.Hidden{SignalID: id, HiddenAt: now}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Signal").Create(&h).Error
	})
}

// UnhideSignal restores a single hidden signal.
func UnhideSignal(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).Where("signal_id = ?", id).Delete(&domain.Hidden{})
	return res.RowsAffected > 0, res.Error
}

// RestoreHidden unhides every signal and returns how many were restored.
func RestoreHidden(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Where("1 = 1").Delete(&domain.Hidden{})
	return res.RowsAffected, res.Error
}

// FavoriteSignal pins id, copying the signal and its analysis headline into
// the favorites table. Re-favoriting refreshes the copy.
func FavoriteSignal(ctx context.Context, db *gorm.DB, id string, now time.Time) (*domain.Favorite, error) {
	var fav domain.Favorite
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sig, err := GetSignal(ctx, tx, id)
		if err != nil {
			return err
		}
		fav = domain.Favorite{
			SignalID:    sig.ID,
			Source:      sig.Source,
			Author:      sig.Author,
			Title:       sig.Title,
			URL:         sig.URL,
			Snippet:     sig.Snippet,
			PublishedAt: sig.PublishedAt,
			FavoritedAt: now,
		}
		an, err := GetAnalysis(ctx, tx, id)
		switch {
		case err == nil:
			score := an.Score
			fav.Summary = an.Summary
			fav.Score = &score
			fav.Urgency = an.Urgency
		case !errors.Is(err, ErrNotFound):
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "signal_id"}},
			UpdateAll: true,
		}).Create(&fav).Error
	})
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// UnfavoriteSignal removes a favorite. It reports whether a row was removed.
func UnfavoriteSignal(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).Where("signal_id = ?", id).Delete(&domain.Favorite{})
	return res.RowsAffected > 0, res.Error
}

// CountFavorites returns the number of favorites.
func CountFavorites(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Favorite{}).Count(&n).Error
	return n, err
}

// ListFavoritesPage returns favorites, most recently pinned first.
func ListFavoritesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Favorite, error) {
	var out []domain.Favorite
	err := db.WithContext(ctx).
		Order("favorited_at DESC").
		Order("signal_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
