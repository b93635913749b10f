// Package telegram wraps the Telegram Bot API for posting channel messages.
package telegram

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client posts MarkdownV2 messages to a single channel.
type Client struct {
	bot *tgbotapi.BotAPI
	// Exactly one of chatID/channelName is set, depending on whether the
	// configured channel is numeric or an @name.
	chatID      int64
	channelName string
	logger      *slog.Logger
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	endpoint string
}

// WithEndpoint overrides the Bot API endpoint, mainly for tests. The value
// must contain two %s verbs for token and method.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// NewClient builds a channel client. channel is either a numeric chat ID or
// an @channelname. Construction performs a getMe call, so it fails fast on a
// bad token or unreachable API.
func NewClient(token, channel string, logger *slog.Logger, opts ...Option) (*Client, error) {
	o := options{endpoint: tgbotapi.APIEndpoint}
	for _, opt := range opts {
		opt(&o)
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, o.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	c := &Client{bot: bot, logger: logger.With("component", "telegram")}
	if strings.HasPrefix(channel, "@") {
		c.channelName = channel
	} else {
		c.chatID, err = strconv.ParseInt(channel, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("channel must be numeric or start with @, got %q", channel)
		}
	}
	c.logger.Info("connected to Telegram", "bot", bot.Self.UserName)
	return c, nil
}

// Available reports whether the Bot API currently answers.
func (c *Client) Available() bool {
	_, err := c.bot.GetMe()
	return err == nil
}

// Send posts one MarkdownV2 message to the channel with link previews
// disabled. text must already be escaped; use Escape for dynamic content.
func (c *Client) Send(text string) error {
	var msg tgbotapi.MessageConfig
	if c.channelName != "" {
		msg = tgbotapi.NewMessageToChannel(c.channelName, text)
	} else {
		msg = tgbotapi.NewMessage(c.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Escape escapes text for literal inclusion in a MarkdownV2 message.
func Escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text)
}
