// Telegram webhook handler.
//
// This file exposes the single inbound command endpoint:
//   - POST /telegram/webhook  (Bot API Update delivery)
//
// The handler is transport-thin: it parses the Update, dispatches the three
// supported commands to application services, and sends the reply text back
// through the delivery channel. Telegram redelivers updates on non-2xx
// responses, so the handler answers 200 even when a command fails and a
// reply could not be sent. Failures are logged, not surfaced, to avoid a
// redelivery loop for an update we already processed.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dfcarvalho/go-promo-bot/internal/http/middleware"
	"github.com/dfcarvalho/go-promo-bot/internal/notify"
	"github.com/dfcarvalho/go-promo-bot/internal/services"
)

// Reply texts, kept verbatim from the bot's original pt-BR copy.
const (
	replyWelcome       = "Bem vindo! Você será registrado para receber ofertas."
	replyPurchaseUsage = "Use: /compra <valor> [descrição]"
	replyInvalidAmount = "Valor inválido"
	replyGenericError  = "Não foi possível processar o comando. Tente novamente."
)

// Update is the subset of the Telegram Bot API Update object the bot
// consumes. Unknown fields are ignored by the JSON decoder.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64   `json:"message_id"`
	From      *TgUser `json:"from"`
	Chat      Chat    `json:"chat"`
	Text      string  `json:"text"`
}

// TgUser identifies the sending principal.
type TgUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Chat identifies the conversation to reply into.
type Chat struct {
	ID int64 `json:"id"`
}

// Handlers bundles the services and delivery channel the inbound surface
// needs.
type Handlers struct {
	db       *gorm.DB
	register *services.RegisterService
	expenses *services.ExpenseService
	sender   notify.Sender

	// replyTimeout bounds each outbound reply send.
	replyTimeout time.Duration
}

// New constructs the handler set used by the router.
func New(db *gorm.DB, register *services.RegisterService, expenses *services.ExpenseService, sender notify.Sender, replyTimeout time.Duration) *Handlers {
	if replyTimeout <= 0 {
		replyTimeout = 10 * time.Second
	}
	return &Handlers{
		db:           db,
		register:     register,
		expenses:     expenses,
		sender:       sender,
		replyTimeout: replyTimeout,
	}
}

// Webhook handles one Telegram Update. Non-command updates (edits, joins,
// plain chatter) are acknowledged and ignored.
func (h *Handlers) Webhook(c *gin.Context) {
	var upd Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed update payload")
		return
	}

	acked := gin.H{"ok": true}
	msg := upd.Message
	if msg == nil || msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		ok(c, http.StatusOK, acked)
		return
	}

	fields := strings.Fields(msg.Text)
	cmd := commandName(fields[0])
	args := fields[1:]
	p := services.Principal{
		TelegramID: msg.From.ID,
		Username:   msg.From.Username,
		FirstName:  msg.From.FirstName,
		LastName:   msg.From.LastName,
	}

	var reply string
	switch cmd {
	case "/start":
		reply = h.handleStart(c.Request.Context(), p)
	case "/compra":
		reply = h.handlePurchase(c.Request.Context(), p, args)
	case "/relatorio":
		reply = h.handleReport(c.Request.Context(), p)
	default:
		// Not a command we own; ack so Telegram does not redeliver.
		ok(c, http.StatusOK, acked)
		return
	}

	if reply != "" {
		h.reply(c, msg.Chat.ID, reply)
	}
	ok(c, http.StatusOK, acked)
}

// handleStart registers the principal and returns the welcome text.
func (h *Handlers) handleStart(ctx context.Context, p services.Principal) string {
	if _, err := h.register.Register(ctx, p); err != nil {
		return replyGenericError
	}
	return replyWelcome
}

// handlePurchase records an expense entry and returns the confirmation or a
// validation message.
func (h *Handlers) handlePurchase(ctx context.Context, p services.Principal, args []string) string {
	purchase, err := h.expenses.AddPurchase(ctx, p, args)
	switch {
	case errors.Is(err, services.ErrMissingAmount):
		return replyPurchaseUsage
	case errors.Is(err, services.ErrInvalidAmount):
		return replyInvalidAmount
	case err != nil:
		return replyGenericError
	}
	return fmt.Sprintf("Compra registrada: R$%.2f", purchase.Amount)
}

// handleReport returns the principal's spend total.
func (h *Handlers) handleReport(ctx context.Context, p services.Principal) string {
	total, err := h.expenses.Summary(ctx, p)
	if err != nil {
		return replyGenericError
	}
	return fmt.Sprintf("Total gasto: R$%.2f", total)
}

// reply sends text back into the originating chat under the reply timeout.
// A failed reply is logged and swallowed; the update is still acknowledged.
func (h *Handlers) reply(c *gin.Context, chatID int64, text string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.replyTimeout)
	defer cancel()

	if err := h.sender.Send(ctx, chatID, text); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Int64("chat_id", chatID).Msg("command reply failed")
	}
}

// commandName strips the @botname suffix Telegram appends in group chats,
// so "/start@promo_bot" dispatches as "/start".
func commandName(token string) string {
	if i := strings.IndexByte(token, '@'); i > 0 {
		return token[:i]
	}
	return token
}
