// Inbox HTTP handlers.
//
// This file exposes the read side of the pipeline:
//   - GET    /signals                 (list, paginated, ETag support)
//   - GET    /signals/{id}            (detail with analysis and deliveries)
//   - POST   /signals/{id}/hide       (dismiss)
//   - DELETE /signals/{id}/hide       (restore one)
//   - DELETE /hidden                  (restore all)
//   - GET    /favorites               (list, paginated)
//   - POST   /signals/{id}/favorite   (pin)
//   - DELETE /signals/{id}/favorite   (unpin)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/services"
)

//
// DTOs
//

// ListSignalsResponse wraps a page of signals and pagination information.
type ListSignalsResponse struct {
	Signals    []domain.SignalView `json:"signals"`
	Pagination Pagination          `json:"pagination"`
}

// ListFavoritesResponse wraps a page of favorites and pagination information.
type ListFavoritesResponse struct {
	Favorites  []domain.Favorite `json:"favorites"`
	Pagination Pagination        `json:"pagination"`
}

// RestoreHiddenResponse reports how many signals were restored.
type RestoreHiddenResponse struct {
	Restored int64 `json:"restored" example:"3"`
}

// signalID reads and trims the :id path parameter.
func signalID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" || len(id) > 64 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid signal id")
		return "", false
	}
	return id, true
}

// failSignal maps service errors for the per-signal endpoints.
func failSignal(c *gin.Context, err error, code string) {
	switch {
	case errors.Is(err, services.ErrSignalNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "signal not found")
	case errors.Is(err, services.ErrNotHidden):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "signal is not hidden")
	case errors.Is(err, services.ErrNotFavorite):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "signal is not a favorite")
	default:
		fail(c, http.StatusInternalServerError, code, err.Error())
	}
}

//
// Handlers
//

// ListSignals godoc
// @ID          listSignals
// @Summary     List signals (paginated)
// @Description Returns visible signals newest first with their analysis headline. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Signals
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       source         query   string  false "Source filter"                Enums(rss, youtube, x, github)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSignalsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Unknown source"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /signals [get]
func (h *Handlers) ListSignals(c *gin.Context) {
	ctx := c.Request.Context()
	source := strings.ToLower(strings.TrimSpace(c.Query("source")))
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	st, err := h.signalSvc.Stats(ctx, source)
	switch {
	case errors.Is(err, services.ErrInvalidSource):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown source")
		return
	case err == nil:
		var ts int64
		if st.Newest != nil {
			ts = st.Newest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"signals:%s:%d:%d:%d:%d:%d:%d"`,
			source, st.Count, st.Hidden, st.Favorites, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.signalSvc.ListPage(ctx, source, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSource) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown source")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListSignalsResponse{Signals: items, Pagination: paginate(page, pageSize, total)})
}

// GetSignal godoc
// @ID          getSignal
// @Summary     Get a signal
// @Description Returns a signal with its stored analysis, delivery history and inbox flags.
// @Tags        Signals
// @Produce     json
// @Param       id   path  string  true  "Signal ID"  example(rss-4f1c2a9b7d3e8f60)
// @Success     200  {object} domain.SignalDetail
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Signal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /signals/{id} [get]
func (h *Handlers) GetSignal(c *gin.Context) {
	id, valid := signalID(c)
	if !valid {
		return
	}
	d, err := h.signalSvc.Get(c.Request.Context(), id)
	if err != nil {
		failSignal(c, err, ErrCodeGetFailed)
		return
	}
	ok(c, http.StatusOK, d)
}

// HideSignal godoc
// @ID          hideSignal
// @Summary     Hide a signal
// @Description Removes a signal from the inbox listing. Hiding twice is a no-op.
// @Tags        Signals
// @Param       id   path  string  true  "Signal ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Signal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /signals/{id}/hide [post]
func (h *Handlers) HideSignal(c *gin.Context) {
	id, valid := signalID(c)
	if !valid {
		return
	}
	if err := h.signalSvc.Hide(c.Request.Context(), id); err != nil {
		failSignal(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// UnhideSignal godoc
// @ID          unhideSignal
// @Summary     Restore a hidden signal
// @Tags        Signals
// @Param       id   path  string  true  "Signal ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Signal is not hidden"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /signals/{id}/hide [delete]
func (h *Handlers) UnhideSignal(c *gin.Context) {
	id, valid := signalID(c)
	if !valid {
		return
	}
	if err := h.signalSvc.Unhide(c.Request.Context(), id); err != nil {
		failSignal(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// RestoreHidden godoc
// @ID          restoreHidden
// @Summary     Restore all hidden signals
// @Tags        Signals
// @Produce     json
// @Success     200  {object} handlers.RestoreHiddenResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /hidden [delete]
func (h *Handlers) RestoreHidden(c *gin.Context) {
	n, err := h.signalSvc.RestoreHidden(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, RestoreHiddenResponse{Restored: n})
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     List favorites (paginated)
// @Description Favorites keep a copy of the signal, so they survive retention.
// @Tags        Favorites
// @Produce     json
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListFavoritesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.signalSvc.ListFavoritesPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListFavoritesResponse{Favorites: items, Pagination: paginate(page, pageSize, total)})
}

// FavoriteSignal godoc
// @ID          favoriteSignal
// @Summary     Pin a signal
// @Tags        Favorites
// @Produce     json
// @Param       id   path  string  true  "Signal ID"
// @Success     201  {object} domain.Favorite
// @Failure     404  {object} handlers.ErrorResponse "Signal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /signals/{id}/favorite [post]
func (h *Handlers) FavoriteSignal(c *gin.Context) {
	id, valid := signalID(c)
	if !valid {
		return
	}
	fav, err := h.signalSvc.Favorite(c.Request.Context(), id)
	if err != nil {
		failSignal(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusCreated, fav)
}

// UnfavoriteSignal godoc
// @ID          unfavoriteSignal
// @Summary     Unpin a signal
// @Tags        Favorites
// @Param       id   path  string  true  "Signal ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Signal is not a favorite"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /signals/{id}/favorite [delete]
func (h *Handlers) UnfavoriteSignal(c *gin.Context) {
	id, valid := signalID(c)
	if !valid {
		return
	}
	if err := h.signalSvc.Unfavorite(c.Request.Context(), id); err != nil {
		failSignal(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}
