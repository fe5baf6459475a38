package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleEvent(id string, src domain.SourceKind) domain.SignalEvent {
	return domain.SignalEvent{
		ID:          id,
		Source:      src,
		Author:      "Alice",
		Title:       "New model release " + id,
		URL:         "https://example.com/" + id,
		Snippet:     "snippet " + id,
		PublishedAt: "2025-01-01T00:00:00Z",
		Tags:        []string{string(src)},
	}
}

func sampleAnalysis(score int) domain.AnalysisResult {
	return domain.AnalysisResult{
		Summary:    "summary",
		Pros:       []string{"fast"},
		Cons:       []string{"hype"},
		HowToUse:   []string{"Read source", "Try it"},
		WhereToUse: []string{"Roadmap"},
		Audience:   "Builders",
		Score:      score,
		Urgency:    domain.UrgencyToday,
		Confidence: 0.7,
	}
}

func mustSave(t *testing.T, db *gorm.DB, id string, src domain.SourceKind, at time.Time) {
	t.Helper()
	if err := SaveEnrichedSignal(context.Background(), db, sampleEvent(id, src), sampleAnalysis(60), at); err != nil {
		t.Fatalf("SaveEnrichedSignal(%s): %v", id, err)
	}
}
