package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/config"
	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
)

var DisableLink = discord.SlashCommandCreate{
	Name:        "disable-link",
	Description: "🚫 Void a gift link so it can never be handed out",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "link",
			Description: "The exact gift link to disable",
			Required:    true,
		},
	},
}

func DisableLinkHandler(b *giveawaybot.Bot) handler.CommandHandler {
	return requireAdmin(b, func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		code := strings.TrimSpace(data.String("link"))
		if code == "" {
			return errorEmbed(e, "No link specified.")
		}

		disabled, err := b.Engine.DisableCode(ctx, code, e.User().ID.String())
		if err != nil {
			slog.Error("Failed to disable gift link",
				slog.String("type", "admin"),
				slog.String("actor", e.User().ID.String()),
				slog.Any("error", err))
			return errorEmbed(e, "Failed to disable the link. Please try again later.")
		}

		if !disabled {
			return errorEmbed(e, "That link is not in the pool.")
		}

		b.Notifier.Notify(ctx, giveaway.ActionDisableLink, e.User().ID.String(), "code="+code)

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🚫 Link Disabled",
				Description: fmt.Sprintf("```%s```\nThis link will never be handed out. If it was already claimed, revoke it with your gift provider too.", code),
				Color:       config.WarningColor,
			}},
			Flags: discord.MessageFlagEphemeral,
		})
	})
}
