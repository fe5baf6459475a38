package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClaimIdempotency_DuplicateAndExpiry(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	rec, err := ClaimIdempotency(ctx, db, CallbackScope, "cb-1", "mute", time.Hour, now)
	if err != nil || rec == nil {
		t.Fatalf("first claim: rec=%v err=%v", rec, err)
	}
	if _, err := ClaimIdempotency(ctx, db, CallbackScope, "cb-1", "mute", time.Hour, now.Add(time.Minute)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// After expiry the key can be claimed again.
	if _, err := ClaimIdempotency(ctx, db, CallbackScope, "cb-1", "explain", time.Hour, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("claim after expiry: %v", err)
	}
}

func TestGetIdempotency(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := GetIdempotency(ctx, db, CallbackScope, "  ", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank key should be ErrNotFound, got %v", err)
	}
	if _, err := ClaimIdempotency(ctx, db, CallbackScope, "cb-2", "explain", time.Minute, now); err != nil {
		t.Fatalf("claim: %v", err)
	}
	rec, err := GetIdempotency(ctx, db, CallbackScope, "cb-2", now)
	if err != nil || rec.Result != "explain" {
		t.Fatalf("GetIdempotency: rec=%+v err=%v", rec, err)
	}
	if _, err := GetIdempotency(ctx, db, CallbackScope, "cb-2", now.Add(2*time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should be ErrNotFound, got %v", err)
	}
}
