// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for signals,
// their analyses and delivery history.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - When a signal is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// HasSignal reports whether a signal with id has already been stored.
func HasSignal(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Signal{}).Where("id = ?", id).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveEnrichedSignal stores ev (insert-or-ignore) and upserts its analysis in
// one transaction. Re-saving an existing signal leaves the signal row intact
// and replaces the analysis.
func SaveEnrichedSignal(ctx context.Context, db *gorm.DB, ev domain.SignalEvent, a domain.AnalysisResult, now time.Time) error {
	a = a.Clamp()
	sig := domain.Signal{
		ID:          ev.ID,
		Source:      string(ev.Source),
		Author:      ev.Author,
		Title:       ev.Title,
		URL:         ev.URL,
		Snippet:     ev.Snippet,
		PublishedAt: ev.PublishedAt,
		Tags:        ev.Tags,
		CollectedAt: now,
	}
	an := domain.Analysis{
		SignalID:   ev.ID,
		Summary:    a.Summary,
		Pros:       a.Pros,
		Cons:       a.Cons,
		HowToUse:   a.HowToUse,
		WhereToUse: a.WhereToUse,
		Audience:   a.Audience,
		Score:      a.Score,
		Urgency:    string(a.Urgency),
		Confidence: a.Confidence,
		AnalyzedAt: now,
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sig).Error; err != nil {
			return fmt.Errorf("insert signal: %w", err)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "signal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"summary", "pros", "cons", "how_to_use", "where_to_use", "audience", "score", "urgency", "confidence", "analyzed_at"}),
		}).Omit("Signal").Create(&an).Error
		if err != nil {
			return fmt.Errorf("upsert analysis: %w", err)
		}
		return nil
	})
}

// RecordDeliveries appends attempts for signalID in a single transaction.
// An empty slice is a no-op.
func RecordDeliveries(ctx context.Context, db *gorm.DB, signalID string, attempts []domain.DeliveryAttempt, now time.Time) error {
	if len(attempts) == 0 {
		return nil
	}
	rows := make([]domain.Delivery, 0, len(attempts))
	for _, a := range attempts {
		rows = append(rows, domain.Delivery{
			SignalID:  signalID,
			Channel:   string(a.Channel),
			Status:    string(a.Status),
			Error:     a.Error,
			CreatedAt: now,
		})
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Signal").Create(&rows).Error
	})
}

// GetSignal fetches a single signal by id, or ErrNotFound.
func GetSignal(ctx context.Context, db *gorm.DB, id string) (*domain.Signal, error) {
	var s domain.Signal
	if err := db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetAnalysis fetches the analysis for signalID, or ErrNotFound.
func GetAnalysis(ctx context.Context, db *gorm.DB, signalID string) (*domain.Analysis, error) {
	var a domain.Analysis
	if err := db.WithContext(ctx).First(&a, "signal_id = ?", signalID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListDeliveries returns the delivery history for signalID, oldest first.
func ListDeliveries(ctx context.Context, db *gorm.DB, signalID string) ([]domain.Delivery, error) {
	var out []domain.Delivery
	err := db.WithContext(ctx).
		Where("signal_id = ?", signalID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetSignalDetail assembles a signal with its analysis, deliveries and
// presentation flags.
func GetSignalDetail(ctx context.Context, db *gorm.DB, id string) (*domain.SignalDetail, error) {
	sig, err := GetSignal(ctx, db, id)
	if err != nil {
		return nil, err
	}
	d := &domain.SignalDetail{Signal: *sig}

	an, err := GetAnalysis(ctx, db, id)
	switch {
	case err == nil:
		d.Analysis = an
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if d.Deliveries, err = ListDeliveries(ctx, db, id); err != nil {
		return nil, err
	}
	if d.Hidden, err = exists(ctx, db, &domain.Hidden{}, "signal_id = ?", id); err != nil {
		return nil, err
	}
	if d.Favorite, err = exists(ctx, db, &domain.Favorite{}, "signal_id = ?", id); err != nil {
		return nil, err
	}
	return d, nil
}

// GetSignalExplain renders the expanded explanation for a stored signal:
//
//	<title>
//	Why it matters: <summary>
//	How to use: <step>; <step>
//
// found is false when the signal or its analysis is missing.
func GetSignalExplain(ctx context.Context, db *gorm.DB, id string) (text string, found bool, err error) {
	var row struct {
		Title    string
		Summary  string
		HowToUse string
	}
	res := db.WithContext(ctx).
		Table("signals").
		Select("signals.title AS title, analyses.summary AS summary, analyses.how_to_use AS how_to_use").
		Joins("JOIN analyses ON analyses.signal_id = signals.id").
		Where("signals.id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return "", false, res.Error
	}
	if res.RowsAffected == 0 {
		return "", false, nil
	}
	var steps []string
	if row.HowToUse != "" {
		if err := json.Unmarshal([]byte(row.HowToUse), &steps); err != nil {
			return "", false, fmt.Errorf("decode how_to_use: %w", err)
		}
	}
	return FormatExplain(row.Title, row.Summary, steps), true, nil
}

// FormatExplain builds the three-line explanation text.
func FormatExplain(title, summary string, howToUse []string) string {
	return fmt.Sprintf("%s\nWhy it matters: %s\nHow to use: %s", title, summary, strings.Join(howToUse, "; "))
}

// SignalFilter narrows inbox listings.
type SignalFilter struct {
	Source        string // empty means all sources
	IncludeHidden bool
}

func signalQuery(ctx context.Context, db *gorm.DB, f SignalFilter) *gorm.DB {
	q := db.WithContext(ctx).Table("signals")
	if f.Source != "" {
		q = q.Where("signals.source = ?", f.Source)
	}
	if !f.IncludeHidden {
		q = q.Where("NOT EXISTS (SELECT 1 FROM hidden_signals h WHERE h.signal_id = signals.id)")
	}
	return q
}

// CountSignals returns the number of signals visible under f.
func CountSignals(ctx context.Context, db *gorm.DB, f SignalFilter) (int64, error) {
	var n int64
	err := signalQuery(ctx, db, f).Count(&n).Error
	return n, err
}

// ListSignalsPage returns newest-first (by collection time) inbox rows joined
// with their analysis headline and favorite flag.
func ListSignalsPage(ctx context.Context, db *gorm.DB, f SignalFilter, offset, limit int) ([]domain.SignalView, error) {
	var out []domain.SignalView
	err := signalQuery(ctx, db, f).
		Select(`signals.id AS id, signals.source AS source, signals.author AS author,
			signals.title AS title, signals.url AS url, signals.snippet AS snippet,
			signals.published_at AS published_at, signals.collected_at AS collected_at,
			analyses.summary AS summary, analyses.score AS score, analyses.urgency AS urgency,
			CASE WHEN favorites.signal_id IS NULL THEN 0 ELSE 1 END AS favorite`).
		Joins("LEFT JOIN analyses ON analyses.signal_id = signals.id").
		Joins("LEFT JOIN favorites ON favorites.signal_id = signals.id").
		Order("signals.collected_at DESC").
		Order("signals.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func exists(ctx context.Context, db *gorm.DB, model any, where string, args ...any) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(model).Where(where, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
