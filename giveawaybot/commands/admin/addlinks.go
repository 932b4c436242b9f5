package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/config"
	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
	"github.com/disgoorg/giveaway-bot/giveawaybot/loader"
)

var AddLinks = discord.SlashCommandCreate{
	Name:        "add-links",
	Description: "➕ Add gift links to the pool (comma or newline separated)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "links",
			Description: "The gift links to add",
			Required:    true,
		},
	},
}

func AddLinksHandler(b *giveawaybot.Bot) handler.CommandHandler {
	return requireAdmin(b, func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		codes := loader.ParseCodes(data.String("links"))
		if len(codes) == 0 {
			return errorEmbed(e, "No links found in the input.")
		}

		added, err := b.Engine.AddCodes(ctx, codes, e.User().ID.String())
		if err != nil {
			slog.Error("Failed to add gift links",
				slog.String("type", "admin"),
				slog.String("actor", e.User().ID.String()),
				slog.Any("error", err))
			return errorEmbed(e, "Failed to add links. Please try again later.")
		}

		skipped := len(codes) - added
		description := fmt.Sprintf("Added **%d** gift link(s) to the pool.", added)
		if skipped > 0 {
			description += fmt.Sprintf("\nSkipped **%d** duplicate(s).", skipped)
		}

		b.Notifier.Notify(ctx, giveaway.ActionAddLink, e.User().ID.String(), fmt.Sprintf("count=%d", added))

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "✅ Links Added",
				Description: description,
				Color:       config.SuccessColor,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Added by %s • %s", e.User().Username, time.Now().Format("2006-01-02 15:04")),
				},
			}},
			Flags: discord.MessageFlagEphemeral,
		})
	})
}
