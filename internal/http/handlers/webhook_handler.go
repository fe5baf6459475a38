package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tele "gopkg.in/telebot.v4"

	"github.com/tbourn/go-signal-pipeline/internal/services"
)

// WebhookAck is the body of every non-error webhook response.
type WebhookAck struct {
	OK bool `json:"ok" example:"true"`
}

// TelegramWebhook godoc
// @ID          telegramWebhook
// @Summary     Telegram webhook
// @Description Receives Telegram updates. Only callback queries from inline buttons (mute:<source>, explain:<signalId>) change state; everything else is acknowledged as a no-op.
// @Tags        Telegram
// @Accept      json
// @Produce     json
// @Param       X-Telegram-Bot-Api-Secret-Token  header  string  false  "Webhook secret (required when configured)"
// @Success     200  {object} handlers.WebhookAck
// @Failure     401  {object} handlers.ErrorResponse "Invalid webhook secret"
// @Failure     500  {object} handlers.ErrorResponse "Store failure"
// @Router      /telegram/webhook [post]
func (h *Handlers) TelegramWebhook(c *gin.Context) {
	var upd tele.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		// Malformed updates are acknowledged so Telegram stops redelivering them.
		ok(c, http.StatusOK, WebhookAck{OK: true})
		return
	}
	cb := upd.Callback
	if cb == nil || h.callbacks == nil {
		ok(c, http.StatusOK, WebhookAck{OK: true})
		return
	}

	in := services.Callback{ID: cb.ID, Data: cb.Data}
	if cb.Message != nil && cb.Message.Chat != nil {
		in.ChatID = cb.Message.Chat.ID
	}
	if err := h.callbacks.Handle(c.Request.Context(), in); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeWebhookFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, WebhookAck{OK: true})
}
