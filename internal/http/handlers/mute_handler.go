package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-signal-pipeline/internal/services"
)

// MuteResponse echoes the normalized source kind.
type MuteResponse struct {
	Source string `json:"source" example:"youtube"`
}

// ListMutes godoc
// @ID          listMutes
// @Summary     List muted sources
// @Tags        Mutes
// @Produce     json
// @Success     200  {array}  domain.Mute
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /mutes [get]
func (h *Handlers) ListMutes(c *gin.Context) {
	mutes, err := h.signalSvc.ListMutes(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, mutes)
}

// MuteSource godoc
// @ID          muteSource
// @Summary     Mute a source
// @Description Future signals from the source are dropped before analysis. Muting twice is a no-op.
// @Tags        Mutes
// @Produce     json
// @Param       source  path  string  true  "Source kind"  Enums(rss, youtube, x, github)
// @Success     200  {object} handlers.MuteResponse
// @Failure     400  {object} handlers.ErrorResponse "Unknown source"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /mutes/{source} [post]
func (h *Handlers) MuteSource(c *gin.Context) {
	k, err := h.signalSvc.Mute(c.Request.Context(), c.Param("source"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidSource) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown source")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, MuteResponse{Source: string(k)})
}

// UnmuteSource godoc
// @ID          unmuteSource
// @Summary     Restore a muted source
// @Tags        Mutes
// @Param       source  path  string  true  "Source kind"  Enums(rss, youtube, x, github)
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Unknown source"
// @Failure     404  {object} handlers.ErrorResponse "Source is not muted"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /mutes/{source} [delete]
func (h *Handlers) UnmuteSource(c *gin.Context) {
	err := h.signalSvc.Unmute(c.Request.Context(), c.Param("source"))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrInvalidSource):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown source")
	case errors.Is(err, services.ErrNotMuted):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "source is not muted")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
	}
}
