// Package services – SignalService
//
// This file implements the inbox presentation use-cases: paginated listing,
// detail lookup, hiding, favorites and the mute list. Pagination inputs are
// bounded here so that handlers can pass raw query values.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/repo"
	"github.com/tbourn/go-signal-pipeline/internal/utils"
)

// SignalRepo defines the repository contract required by SignalService.
type SignalRepo interface {
	CountSignals(ctx context.Context, db *gorm.DB, f repo.SignalFilter) (int64, error)
	ListSignalsPage(ctx context.Context, db *gorm.DB, f repo.SignalFilter, offset, limit int) ([]domain.SignalView, error)
	SignalsStats(ctx context.Context, db *gorm.DB, f repo.SignalFilter) (count, hidden int64, maxCollectedAt *time.Time, err error)
	GetSignalDetail(ctx context.Context, db *gorm.DB, id string) (*domain.SignalDetail, error)

	HideSignal(ctx context.Context, db *gorm.DB, id string, now time.Time) error
	UnhideSignal(ctx context.Context, db *gorm.DB, id string) (bool, error)
	RestoreHidden(ctx context.Context, db *gorm.DB) (int64, error)

	FavoriteSignal(ctx context.Context, db *gorm.DB, id string, now time.Time) (*domain.Favorite, error)
	UnfavoriteSignal(ctx context.Context, db *gorm.DB, id string) (bool, error)
	CountFavorites(ctx context.Context, db *gorm.DB) (int64, error)
	ListFavoritesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Favorite, error)

	ListMutes(ctx context.Context, db *gorm.DB) ([]domain.Mute, error)
	MuteSource(ctx context.Context, db *gorm.DB, source domain.SourceKind, now time.Time) error
	UnmuteSource(ctx context.Context, db *gorm.DB, source domain.SourceKind) (bool, error)
}

// SignalService provides the inbox operations.
type SignalService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the repository used by this service.
	Repo SignalRepo
	// Now is the clock used for hide/favorite/mute timestamps.
	Now func() time.Time
}

// NewSignalService constructs a SignalService using the UTC wall clock.
func NewSignalService(db *gorm.DB, r SignalRepo) *SignalService {
	return &SignalService{DB: db, Repo: r, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *SignalService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

// Filter validates a raw source query value. An empty source selects all.
func Filter(source string) (repo.SignalFilter, error) {
	if strings.TrimSpace(source) == "" {
		return repo.SignalFilter{}, nil
	}
	k, ok := domain.ParseSourceKind(source)
	if !ok {
		return repo.SignalFilter{}, ErrInvalidSource
	}
	return repo.SignalFilter{Source: string(k)}, nil
}

// ListPage returns a newest-first page of visible signals and the total.
func (s *SignalService) ListPage(ctx context.Context, source string, page, pageSize int) ([]domain.SignalView, int64, error) {
	f, err := Filter(source)
	if err != nil {
		return nil, 0, err
	}
	offset, limit := utils.PageBounds(page, pageSize)

	total, err := s.Repo.CountSignals(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.SignalView{}, 0, nil
	}
	items, err := s.Repo.ListSignalsPage(ctx, s.DB, f, offset, limit)
	return items, total, err
}

// ListStats is the aggregate behind list ETags. Any hide, favorite or new
// signal changes at least one field.
type ListStats struct {
	Count     int64
	Hidden    int64
	Favorites int64
	Newest    *time.Time
}

// Stats returns the ListStats for the listing selected by source.
func (s *SignalService) Stats(ctx context.Context, source string) (ListStats, error) {
	f, err := Filter(source)
	if err != nil {
		return ListStats{}, err
	}
	var st ListStats
	if st.Count, st.Hidden, st.Newest, err = s.Repo.SignalsStats(ctx, s.DB, f); err != nil {
		return ListStats{}, err
	}
	if st.Favorites, err = s.Repo.CountFavorites(ctx, s.DB); err != nil {
		return ListStats{}, err
	}
	return st, nil
}

// Get returns a signal with its analysis, deliveries and flags.
func (s *SignalService) Get(ctx context.Context, id string) (*domain.SignalDetail, error) {
	d, err := s.Repo.GetSignalDetail(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSignalNotFound
	}
	return d, err
}

// Hide removes a signal from the inbox listing.
func (s *SignalService) Hide(ctx context.Context, id string) error {
	err := s.Repo.HideSignal(ctx, s.DB, id, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSignalNotFound
	}
	return err
}

// Unhide restores one hidden signal.
func (s *SignalService) Unhide(ctx context.Context, id string) error {
	removed, err := s.Repo.UnhideSignal(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotHidden
	}
	return nil
}

// RestoreHidden unhides everything and reports how many rows changed.
func (s *SignalService) RestoreHidden(ctx context.Context) (int64, error) {
	return s.Repo.RestoreHidden(ctx, s.DB)
}

// Favorite pins a signal.
func (s *SignalService) Favorite(ctx context.Context, id string) (*domain.Favorite, error) {
	fav, err := s.Repo.FavoriteSignal(ctx, s.DB, id, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSignalNotFound
	}
	return fav, err
}

// Unfavorite removes a pin.
func (s *SignalService) Unfavorite(ctx context.Context, id string) error {
	removed, err := s.Repo.UnfavoriteSignal(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFavorite
	}
	return nil
}

// ListFavoritesPage returns a page of favorites and the total.
func (s *SignalService) ListFavoritesPage(ctx context.Context, page, pageSize int) ([]domain.Favorite, int64, error) {
	offset, limit := utils.PageBounds(page, pageSize)
	total, err := s.Repo.CountFavorites(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Favorite{}, 0, nil
	}
	items, err := s.Repo.ListFavoritesPage(ctx, s.DB, offset, limit)
	return items, total, err
}

// ListMutes returns the muted sources.
func (s *SignalService) ListMutes(ctx context.Context) ([]domain.Mute, error) {
	return s.Repo.ListMutes(ctx, s.DB)
}

// Mute adds a source to the mute set.
func (s *SignalService) Mute(ctx context.Context, source string) (domain.SourceKind, error) {
	k, ok := domain.ParseSourceKind(source)
	if !ok {
		return "", ErrInvalidSource
	}
	return k, s.Repo.MuteSource(ctx, s.DB, k, s.now())
}

// Unmute restores a muted source.
func (s *SignalService) Unmute(ctx context.Context, source string) error {
	k, ok := domain.ParseSourceKind(source)
	if !ok {
		return ErrInvalidSource
	}
	removed, err := s.Repo.UnmuteSource(ctx, s.DB, k)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotMuted
	}
	return nil
}
