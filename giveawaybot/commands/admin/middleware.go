package admin

import (
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/config"
)

// requireAdmin gates a handler behind the configured owner ID or the
// Administrator guild permission. Registering admin commands only in dev
// guilds is not a substitute; commands can leak into other guilds.
func requireAdmin(b *giveawaybot.Bot, next handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !isAdmin(b, e) {
			slog.Warn("Admin command rejected",
				slog.String("type", "admin"),
				slog.String("user_id", e.User().ID.String()),
				slog.String("user_name", e.User().Username))
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Description: "You don't have permission to use this command.",
					Color:       config.ErrorColor,
				}},
				Flags: discord.MessageFlagEphemeral,
			})
		}
		return next(e)
	}
}

func isAdmin(b *giveawaybot.Bot, e *handler.CommandEvent) bool {
	if b.Cfg.Bot.OwnerID != 0 && e.User().ID == b.Cfg.Bot.OwnerID {
		return true
	}
	if member := e.Member(); member != nil {
		return member.Permissions.Has(discord.PermissionAdministrator)
	}
	return false
}

func errorEmbed(e *handler.CommandEvent, description string) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "❌ Error",
			Description: description,
			Color:       config.ErrorColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}
