package admin

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/config"
	"github.com/disgoorg/giveaway-bot/giveawaybot/database/models"
)

var History = discord.SlashCommandCreate{
	Name:        "history",
	Description: "📜 Browse the audit trail",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "limit",
			Description: fmt.Sprintf("How many entries to load (default %d, max %d)", config.DefaultHistory, config.MaxHistoryLimit),
			Required:    false,
		},
	},
}

func HistoryHandler(b *giveawaybot.Bot) handler.CommandHandler {
	return requireAdmin(b, func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		limit, ok := data.OptInt("limit")
		if !ok || limit <= 0 {
			limit = config.DefaultHistory
		}
		if limit > config.MaxHistoryLimit {
			limit = config.MaxHistoryLimit
		}

		entries, err := b.Audit.ListRecent(ctx, limit)
		if err != nil {
			slog.Error("Failed to load audit history",
				slog.String("type", "db"),
				slog.Any("error", err))
			return errorEmbed(e, "Failed to load the audit trail. Please try again later.")
		}

		if len(entries) == 0 {
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Description: "The audit trail is empty.",
					Color:       config.InfoColor,
				}},
				Flags: discord.MessageFlagEphemeral,
			})
		}

		totalPages := int(math.Ceil(float64(len(entries)) / float64(config.EntriesPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * config.EntriesPerPage
				endIdx := min(startIdx+config.EntriesPerPage, len(entries))

				var description strings.Builder
				for _, entry := range entries[startIdx:endIdx] {
					description.WriteString(formatAuditEntry(entry))
				}

				embed.
					SetTitle("📜 Audit Trail").
					SetDescription(description.String()).
					SetColor(config.EmbedDefaultColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d entries", page+1, totalPages, len(entries)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, true)
	})
}

func formatAuditEntry(entry *models.AuditEntry) string {
	line := fmt.Sprintf("`%s` **%s** <@%s>",
		entry.Ts.Format("01-02 15:04"),
		entry.Action,
		entry.ActorUserID)
	if entry.Metadata != "" {
		line += fmt.Sprintf(" `%s`", entry.Metadata)
	}
	return line + "\n"
}
