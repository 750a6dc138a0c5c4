package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reminder/internal/application/service"
	"reminder/internal/domain/constant"
	"reminder/internal/domain/entity"
	"reminder/internal/infrastructure/line"
	appErrors "reminder/internal/pkg/errors"
	"reminder/internal/pkg/logger"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

const (
	commandList   = "list"
	commandSearch = "search "
	commandHelp   = "help"
)

// LineHandler handles incoming LINE webhook events.
type LineHandler struct {
	lineClient      *line.Client
	reminderService service.ReminderService
	changes         chan<- string // External change signal, consumed by ReminderService.Watch
	log             logger.Logger
	now             func() time.Time
}

// NewLineHandler creates a new LineHandler. Opened postbacks are sent on
// changes; a nil channel refreshes the service directly.
func NewLineHandler(
	lineClient *line.Client,
	reminderService service.ReminderService,
	changes chan<- string,
	log logger.Logger,
) *LineHandler {
	return &LineHandler{
		lineClient:      lineClient,
		reminderService: reminderService,
		changes:         changes,
		log:             logger.OrNop(log),
		now:             time.Now,
	}
}

// HandleWebhook is the main entry point for webhook requests.
func (h *LineHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := h.lineClient.ParseRequest(c.Request())
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			h.log.Warn("Invalid LINE signature received")
			return c.String(http.StatusBadRequest, "Invalid signature")
		}
		h.log.Error("Failed to parse LINE webhook request", err)
		return c.String(http.StatusInternalServerError, "Error parsing request")
	}

	for _, event := range events {
		h.log.Info(fmt.Sprintf("Processing event type: %s", event.Type))
		switch event.Type {
		case linebot.EventTypeMessage:
			h.handleMessageEvent(ctx, event)
		case linebot.EventTypePostback:
			h.handlePostbackEvent(ctx, event)
		case linebot.EventTypeFollow:
			h.reply(event.ReplyToken, helpText())
		default:
			h.log.Info(fmt.Sprintf("Unhandled event type: %s", event.Type))
		}
	}

	return c.String(http.StatusOK, "OK")
}

// handlePostbackEvent treats "opened:<id>" as the notification-opened signal.
func (h *LineHandler) handlePostbackEvent(ctx context.Context, event *linebot.Event) {
	data := event.Postback.Data
	id, ok := strings.CutPrefix(data, constant.OpenedPostbackPrefix)
	if !ok || id == "" {
		h.log.Warn(fmt.Sprintf("Unknown postback data: %s", data))
		return
	}
	h.signalChange(ctx, data)

	reminder, err := h.reminderService.Get(ctx, id)
	if err != nil {
		if appErrors.IsNotFound(err) {
			h.reply(event.ReplyToken, "This reminder was deleted.")
			return
		}
		h.reply(event.ReplyToken, constant.MsgFetchFailed)
		return
	}
	h.reply(event.ReplyToken, describe(*reminder, h.now()))
}

func (h *LineHandler) signalChange(ctx context.Context, event string) {
	if h.changes != nil {
		select {
		case h.changes <- event:
			return
		default:
			h.log.Warn("External change channel full, refreshing directly")
		}
	}
	h.reminderService.NotifyExternalChange(ctx)
}

// handleMessageEvent processes text commands.
func (h *LineHandler) handleMessageEvent(ctx context.Context, event *linebot.Event) {
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		h.log.Info(fmt.Sprintf("Received non-text message type: %s", event.Message.Type()))
		return
	}
	text := strings.TrimSpace(message.Text)
	h.log.Info(fmt.Sprintf("Received text message from %s: %s", event.Source.UserID, text))

	switch {
	case strings.EqualFold(text, commandList):
		h.sendReminderList(ctx, event.ReplyToken, "")
	case strings.HasPrefix(strings.ToLower(text), commandSearch):
		h.sendReminderList(ctx, event.ReplyToken, strings.TrimSpace(text[len(commandSearch):]))
	default:
		h.reply(event.ReplyToken, helpText())
	}
}

func (h *LineHandler) sendReminderList(ctx context.Context, replyToken, query string) {
	reminders, err := h.reminderService.Find(ctx, query)
	if err != nil {
		h.reply(replyToken, constant.MsgFetchFailed)
		return
	}
	if len(reminders) == 0 {
		h.reply(replyToken, "No reminders.")
		return
	}

	now := h.now()
	lines := make([]string, 0, len(reminders))
	for _, r := range reminders {
		lines = append(lines, "• "+describe(*r, now))
	}
	h.reply(replyToken, strings.Join(lines, "\n"))
}

func (h *LineHandler) reply(replyToken, text string) {
	if err := h.lineClient.SendMessages(replyToken, linebot.NewTextMessage(text)); err != nil {
		h.log.Error("Failed to send reply message", err)
	}
}

// describe renders a reminder on one line, flagging expired ones.
func describe(r entity.Reminder, now time.Time) string {
	var b strings.Builder
	if r.IsExpired(now) {
		b.WriteString("⚠️ ")
	}
	b.WriteString(r.TitleText())
	if content := r.ContentText(); content != "" {
		b.WriteString(": ")
		b.WriteString(content)
	}
	if r.Date != nil {
		b.WriteString(" (")
		b.WriteString(r.Date.Local().Format(constant.DisplayDateLayout))
		b.WriteString(")")
	}
	return b.String()
}

func helpText() string {
	return fmt.Sprintf("Commands:\n%s - show all reminders\n%s<text> - search reminders\n%s - show this message",
		commandList, commandSearch, commandHelp)
}
