// Package telegramapi wraps the Telegram Bot API for channel discovery and
// announcement delivery. The client works against the channels it has been
// configured with and joined to; it never scans an account's dialog list.
package telegramapi

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/onnwee/live-relay/stream"
	"github.com/onnwee/live-relay/telemetry"
)

// Client is the Telegram channel capability.
type Client struct {
	bot *tgbotapi.BotAPI
}

// New authenticates the bot token against the API. endpoint overrides the
// api.telegram.org base (used by tests with a local mock server); empty means
// the production endpoint.
func New(token, endpoint string) (*Client, error) {
	var bot *tgbotapi.BotAPI
	var err error
	if endpoint != "" {
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint+"/bot%s/%s")
	} else {
		bot, err = tgbotapi.NewBotAPI(token)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: telegram auth: %v", stream.ErrUpstream, err)
	}
	slog.Info("telegram bot authenticated",
		slog.String("username", bot.Self.UserName),
		slog.String("component", "telegramapi"))
	return &Client{bot: bot}, nil
}

// BotID returns the authenticated bot's user id.
func (c *Client) BotID() int64 { return c.bot.Self.ID }

// ChannelInfo fetches title, username, and member count for a channel. The
// admin flag is filled by a separate IsAdmin call; here it defaults to false.
func (c *Client) ChannelInfo(ctx context.Context, channelID int64) (stream.Channel, error) {
	chat, err := c.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: channelID},
	})
	if err != nil {
		return stream.Channel{}, fmt.Errorf("%w: getChat %d: %v", stream.ErrUpstream, channelID, err)
	}

	ch := stream.Channel{
		ChannelID: channelID,
		Name:      chat.Title,
		Username:  chat.UserName,
	}

	count, err := c.bot.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: channelID},
	})
	if err != nil {
		// Member count is cosmetic; the channel row is still useful without it.
		slog.Warn("member count lookup failed",
			slog.Int64("channel_id", channelID),
			slog.Any("error", err),
			slog.String("component", "telegramapi"))
	} else {
		ch.ParticipantCount = count
	}

	return ch, nil
}

// IsAdmin reports whether the bot is an administrator of the channel. Any
// lookup failure counts as not-admin; a flaky API must not grant privileges.
func (c *Client) IsAdmin(ctx context.Context, channelID int64) bool {
	admins, err := c.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: channelID},
	})
	if err != nil {
		slog.Warn("admin lookup failed, treating as non-admin",
			slog.Int64("channel_id", channelID),
			slog.Any("error", err),
			slog.String("component", "telegramapi"))
		return false
	}
	for _, admin := range admins {
		if admin.User != nil && admin.User.ID == c.bot.Self.ID {
			return true
		}
	}
	return false
}

// Send delivers one Markdown-formatted message to a channel and returns the
// message id. Single attempt; failures wrap DeliveryFailed.
func (c *Client) Send(ctx context.Context, channelID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(channelID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	var sent tgbotapi.Message
	var err error
	telemetry.TimeFunc(telemetry.NotifyDuration, func() {
		sent, err = c.bot.Send(msg)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: sendMessage to %d: %v", stream.ErrDeliveryFailed, channelID, err)
	}
	return sent.MessageID, nil
}
