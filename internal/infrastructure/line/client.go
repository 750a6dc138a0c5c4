package line

import (
	"errors"
	"fmt"
	"net/http"
	"reminder/internal/pkg/logger"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// ErrMissingCredentials is returned when the channel secret or token is empty.
var ErrMissingCredentials = errors.New("CHANNEL_SECRET and CHANNEL_ACCESS_TOKEN must both be set")

// Client wraps the linebot.Client.
type Client struct {
	*linebot.Client
	log logger.Logger
}

// NewClient creates a LINE Bot client. options are passed to linebot.New.
func NewClient(channelSecret, channelToken string, log logger.Logger, options ...linebot.ClientOption) (*Client, error) {
	log = logger.OrNop(log)
	if channelSecret == "" || channelToken == "" {
		return nil, ErrMissingCredentials
	}

	bot, err := linebot.New(channelSecret, channelToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE Bot client: %w", err)
	}
	log.Info("Successfully created LINE Bot client.")
	return &Client{
		Client: bot,
		log:    log,
	}, nil
}

// SendMessages sends one or more messages using the ReplyMessage API.
func (c *Client) SendMessages(replyToken string, messages ...linebot.SendingMessage) error {
	_, err := c.ReplyMessage(replyToken, messages...).Do()
	if err != nil {
		return err
	}
	c.log.Debug("Successfully sent reply message.")
	return nil
}

// PushMessages sends one or more messages using the PushMessage API.
func (c *Client) PushMessages(to string, messages ...linebot.SendingMessage) error {
	_, err := c.PushMessage(to, messages...).Do()
	if err != nil {
		return err
	}
	c.log.Debug("Successfully sent push message.")
	return nil
}

// ParseRequest parses and verifies incoming webhook requests.
func (c *Client) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return c.Client.ParseRequest(r)
}
