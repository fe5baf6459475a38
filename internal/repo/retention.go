package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// purgeChunk bounds the size of IN (...) lists.
const purgeChunk = 500

// PurgeReport summarizes one retention pass.
type PurgeReport struct {
	Signals     int64
	Idempotency int64
}

// PurgeExpired deletes signals collected before cutoff that are not
// favorited, together with their analyses, deliveries and hidden markers,
// and drops idempotency rows that expired before now. Dependents are removed
// explicitly so the result does not depend on FK enforcement.
func PurgeExpired(ctx context.Context, db *gorm.DB, cutoff, now time.Time) (PurgeReport, error) {
	var rep PurgeReport
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&domain.Signal{}).
			Where("collected_at < ?", cutoff).
			Where("NOT EXISTS (SELECT 1 FROM favorites f WHERE f.signal_id = signals.id)").
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}

		for start := 0; start < len(ids); start += purgeChunk {
			end := start + purgeChunk
			if end > len(ids) {
				end = len(ids)
			}
			chunk := ids[start:end]
			for _, dep := range []any{&domain.Delivery{}, &domain.Analysis{}, &domain.Hidden{}} {
				if err := tx.Where("signal_id IN ?", chunk).Delete(dep).Error; err != nil {
					return err
				}
			}
			res := tx.Where("id IN ?", chunk).Delete(&domain.Signal{})
			if res.Error != nil {
				return res.Error
			}
			rep.Signals += res.RowsAffected
		}

		res := tx.Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
		if res.Error != nil {
			return res.Error
		}
		rep.Idempotency = res.RowsAffected
		return nil
	})
	return rep, err
}
