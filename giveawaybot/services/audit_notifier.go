package services

import (
	"context"
	"log/slog"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
)

// AuditNotifier mirrors audit events to a Discord channel or webhook so
// admins can follow activity without querying the database.
type AuditNotifier struct {
	client        bot.Client
	channelID     snowflake.ID
	webhookClient webhook.Client
}

func NewAuditNotifier(channelID snowflake.ID, webhookURL string) *AuditNotifier {
	n := &AuditNotifier{
		channelID: channelID,
	}
	if webhookURL != "" {
		wh, err := webhook.NewWithURL(webhookURL)
		if err != nil {
			slog.Error("Invalid audit webhook URL",
				slog.String("type", "sys"),
				slog.Any("error", err))
		} else {
			n.webhookClient = wh
		}
	}
	return n
}

// SetClient attaches the bot client once the gateway is built. The
// notifier is created before the client exists so this runs during setup.
func (n *AuditNotifier) SetClient(client bot.Client) {
	n.client = client
}

// Notify sends a single audit line. Delivery failures are logged and
// swallowed; the database audit log is the source of truth.
func (n *AuditNotifier) Notify(ctx context.Context, action, actorUserID, metadata string) {
	msg := "📋 `" + action + "` by <@" + actorUserID + ">"
	if metadata != "" {
		msg += " — " + metadata
	}

	if n.channelID != 0 && n.client != nil {
		if _, err := n.client.Rest().CreateMessage(n.channelID, discord.MessageCreate{
			Content: msg,
			AllowedMentions: &discord.AllowedMentions{
				Parse: []discord.AllowedMentionType{},
			},
		}); err != nil {
			slog.Warn("Failed to post audit message to channel",
				slog.String("type", "sys"),
				slog.String("action", action),
				slog.Any("error", err))
		} else {
			return
		}
	}

	if n.webhookClient != nil {
		if _, err := n.webhookClient.CreateContent(msg); err != nil {
			slog.Warn("Failed to post audit message to webhook",
				slog.String("type", "sys"),
				slog.String("action", action),
				slog.Any("error", err))
		} else {
			return
		}
	}

	slog.Info("Audit event",
		slog.String("type", "admin"),
		slog.String("action", action),
		slog.String("actor", actorUserID),
		slog.String("metadata", metadata))
}

// NotifyClaim posts a claim notice without revealing the code itself.
func (n *AuditNotifier) NotifyClaim(ctx context.Context, userID string) {
	n.Notify(ctx, giveaway.ActionClaim, userID, "")
}
