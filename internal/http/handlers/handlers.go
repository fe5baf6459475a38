package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/services"
	"github.com/tbourn/go-signal-pipeline/internal/utils"
)

//
// Service contracts (context-aware)
//

// SignalService defines the inbox operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor ctx.
type SignalService interface {
	// ListPage returns a newest-first page of visible signals and the total.
	ListPage(ctx context.Context, source string, page, pageSize int) ([]domain.SignalView, int64, error)
	// Stats returns the aggregate used to build list ETags.
	Stats(ctx context.Context, source string) (services.ListStats, error)
	Get(ctx context.Context, id string) (*domain.SignalDetail, error)

	Hide(ctx context.Context, id string) error
	Unhide(ctx context.Context, id string) error
	RestoreHidden(ctx context.Context) (int64, error)

	Favorite(ctx context.Context, id string) (*domain.Favorite, error)
	Unfavorite(ctx context.Context, id string) error
	ListFavoritesPage(ctx context.Context, page, pageSize int) ([]domain.Favorite, int64, error)

	ListMutes(ctx context.Context) ([]domain.Mute, error)
	Mute(ctx context.Context, source string) (domain.SourceKind, error)
	Unmute(ctx context.Context, source string) error
}

// CallbackHandler executes Telegram inline-button callbacks.
type CallbackHandler interface {
	Handle(ctx context.Context, cb services.Callback) error
}

//
// Handler wiring
//

// Handlers groups the inbox API and the Telegram webhook endpoint.
type Handlers struct {
	signalSvc SignalService
	callbacks CallbackHandler
}

// New constructs Handlers. callbacks may be nil when the webhook is not
// mounted.
func New(signalSvc SignalService, callbacks CallbackHandler) *Handlers {
	return &Handlers{signalSvc: signalSvc, callbacks: callbacks}
}

// clampPagination parses page and page_size, bounding them to
// page >= 1 and 1 <= page_size <= 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), 1), 1)
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	pageSize = min(max(pageSize, 1), maxPageSize)
	return page, pageSize
}
