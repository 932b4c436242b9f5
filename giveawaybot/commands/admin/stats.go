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
)

var Stats = discord.SlashCommandCreate{
	Name:        "stats",
	Description: "📊 Show gift pool and winner counts",
}

func StatsHandler(b *giveawaybot.Bot) handler.CommandHandler {
	return requireAdmin(b, func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		stats, err := b.Engine.Stats(ctx)
		if err != nil {
			slog.Error("Failed to load stats",
				slog.String("type", "db"),
				slog.Any("error", err))
			return errorEmbed(e, "Failed to load stats. Please try again later.")
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title: "📊 Giveaway Stats",
				Description: fmt.Sprintf("```md\n"+
					"# Gift Links\n"+
					"* Total:     %d\n"+
					"* Available: %d\n"+
					"* Claimed:   %d\n"+
					"* Disabled:  %d\n"+
					"\n"+
					"# Winners\n"+
					"* Registered: %d\n"+
					"```",
					stats.Total,
					stats.Available,
					stats.Claimed,
					stats.Disabled,
					stats.Winners),
				Color: config.InfoColor,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("As of %s", time.Now().Format("2006-01-02 15:04:05")),
				},
			}},
			Flags: discord.MessageFlagEphemeral,
		})
	})
}
