package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// CallbackScope is the idempotency scope for Telegram callback ids.
const CallbackScope = "telegram_callback"

// Store adapts the repository free functions to the narrow store contracts
// used by the pipeline and the callback service. The clock is injectable for
// tests.
type Store struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewStore returns a Store using the UTC wall clock.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// HasSignal proxies HasSignal.
func (s *Store) HasSignal(ctx context.Context, id string) (bool, error) {
	return HasSignal(ctx, s.DB, id)
}

// SaveEnrichedSignal proxies SaveEnrichedSignal with the store clock.
func (s *Store) SaveEnrichedSignal(ctx context.Context, ev domain.SignalEvent, a domain.AnalysisResult) error {
	return SaveEnrichedSignal(ctx, s.DB, ev, a, s.now())
}

// RecordDeliveries proxies RecordDeliveries with the store clock.
func (s *Store) RecordDeliveries(ctx context.Context, signalID string, attempts []domain.DeliveryAttempt) error {
	return RecordDeliveries(ctx, s.DB, signalID, attempts, s.now())
}

// GetMutedSources proxies GetMutedSources.
func (s *Store) GetMutedSources(ctx context.Context) (map[domain.SourceKind]struct{}, error) {
	return GetMutedSources(ctx, s.DB)
}

// MuteSource proxies MuteSource with the store clock.
func (s *Store) MuteSource(ctx context.Context, source domain.SourceKind) error {
	return MuteSource(ctx, s.DB, source, s.now())
}

// GetSignalExplain proxies GetSignalExplain.
func (s *Store) GetSignalExplain(ctx context.Context, id string) (string, bool, error) {
	return GetSignalExplain(ctx, s.DB, id)
}

// ClaimCallback marks a callback id as processed for ttl. It returns false
// when the id was already claimed.
func (s *Store) ClaimCallback(ctx context.Context, callbackID, action string, ttl time.Duration) (bool, error) {
	_, err := ClaimIdempotency(ctx, s.DB, CallbackScope, callbackID, action, ttl, s.now())
	if errors.Is(err, ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired deletes non-favorited signals older than retention.
func (s *Store) PurgeExpired(ctx context.Context, retention time.Duration) (PurgeReport, error) {
	now := s.now()
	return PurgeExpired(ctx, s.DB, now.Add(-retention), now)
}

// ReleaseCallback drops the claim on callbackID, letting a retried delivery
// of the same callback be processed.
func (s *Store) ReleaseCallback(ctx context.Context, callbackID string) error {
	return ReleaseIdempotency(ctx, s.DB, CallbackScope, callbackID)
}
