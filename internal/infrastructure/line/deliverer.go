package line

import (
	"context"
	"fmt"
	"reminder/internal/domain/constant"
	"reminder/internal/domain/entity"
	"strings"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// PushDeliverer pushes fired notifications to one LINE user. The message
// carries an "Opened" quick reply whose postback reports the reminder back
// through the webhook.
type PushDeliverer struct {
	client *Client
	to     string
}

// NewPushDeliverer creates a PushDeliverer sending to userID.
func NewPushDeliverer(client *Client, userID string) *PushDeliverer {
	return &PushDeliverer{client: client, to: userID}
}

// Deliver pushes n.
func (d *PushDeliverer) Deliver(ctx context.Context, n entity.Notification) error {
	if err := d.client.PushMessages(d.to, NotificationMessage(n)); err != nil {
		return fmt.Errorf("failed to push notification for reminder %s: %w", n.Identifier, err)
	}
	d.client.log.Info(fmt.Sprintf("Pushed notification for reminder %s to %s", n.Identifier, d.to))
	return nil
}

// NotificationMessage renders n as a text message with the opened postback.
func NotificationMessage(n entity.Notification) *linebot.TextMessage {
	var b strings.Builder
	b.WriteString("🔔 ")
	b.WriteString(n.Title)
	if n.Body != "" {
		b.WriteString("\n")
		b.WriteString(n.Body)
	}

	opened := &linebot.PostbackAction{
		Label:       "Opened",
		Data:        constant.OpenedPostbackPrefix + n.Identifier,
		DisplayText: "Opened",
	}
	quickReply := linebot.NewQuickReplyItems(linebot.NewQuickReplyButton("", opened))
	return linebot.NewTextMessage(b.String()).WithQuickReplies(quickReply).(*linebot.TextMessage)
}
