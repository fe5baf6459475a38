package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// MuteSource adds source to the mute set. Muting an already muted source is
// a no-op.
func MuteSource(ctx context.Context, db *gorm.DB, source domain.SourceKind, now time.Time) error {
	m := domain.Mute{Source: string(source), CreatedAt: now}
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
}

// UnmuteSource removes source from the mute set. It reports whether a row
// was removed.
func UnmuteSource(ctx context.Context, db *gorm.DB, source domain.SourceKind) (bool, error) {
	res := db.WithContext(ctx).Where("source = ?", string(source)).Delete(&domain.Mute{})
	return res.RowsAffected > 0, res.Error
}

// ListMutes returns every mute row ordered by source.
func ListMutes(ctx context.Context, db *gorm.DB) ([]domain.Mute, error) {
	var out []domain.Mute
	err := db.WithContext(ctx).Order("source ASC").Find(&out).Error
	return out, err
}

// GetMutedSources returns the mute set. Unknown source strings in storage
// are ignored.
func GetMutedSources(ctx context.Context, db *gorm.DB) (map[domain.SourceKind]struct{}, error) {
	var sources []string
	if err := db.WithContext(ctx).Model(&domain.Mute{}).Pluck("source", &sources).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.SourceKind]struct{}, len(sources))
	for _, s := range sources {
		if k, ok := domain.ParseSourceKind(s); ok {
			out[k] = struct{}{}
		}
	}
	return out, nil
}
