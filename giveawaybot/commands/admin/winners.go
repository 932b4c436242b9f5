package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sahilm/fuzzy"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/config"
	"github.com/disgoorg/giveaway-bot/giveawaybot/database/models"
)

var Winners = discord.SlashCommandCreate{
	Name:        "winners",
	Description: "🏆 List registered winners, or inspect one user's claims",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "search",
			Description: "Filter winners by username",
			Required:    false,
		},
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Show this user's claim history instead",
			Required:    false,
		},
	},
}

// winnerSearchItems implements fuzzy.Source over usernames.
type winnerSearchItems []*models.Winner

func (w winnerSearchItems) String(i int) string { return w[i].Username }
func (w winnerSearchItems) Len() int            { return len(w) }

func WinnersHandler(b *giveawaybot.Bot) handler.CommandHandler {
	return requireAdmin(b, func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		if targetUser, ok := data.OptUser("user"); ok {
			return showClaimHistory(ctx, b, e, targetUser)
		}

		winners, err := b.Winners.GetAll(ctx)
		if err != nil {
			slog.Error("Failed to load winners",
				slog.String("type", "db"),
				slog.Any("error", err))
			return errorEmbed(e, "Failed to load the winner list. Please try again later.")
		}

		query, _ := data.OptString("search")
		if query != "" {
			items := winnerSearchItems(winners)
			matches := fuzzy.FindFrom(query, items)
			filtered := make([]*models.Winner, len(matches))
			for i, match := range matches {
				filtered[i] = items[match.Index]
			}
			winners = filtered
		}

		if len(winners) == 0 {
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Description: "No winners found.",
					Color:       config.InfoColor,
				}},
				Flags: discord.MessageFlagEphemeral,
			})
		}

		var description strings.Builder
		shown := min(len(winners), config.MaxWinnersShown)
		for _, winner := range winners[:shown] {
			description.WriteString(fmt.Sprintf("<@%s>", winner.UserID))
			if winner.Username != "" {
				description.WriteString(fmt.Sprintf(" (`%s`)", winner.Username))
			}
			if winner.AllowMultiple {
				description.WriteString(" — multiple claims")
			}
			description.WriteString("\n")
		}
		if len(winners) > shown {
			description.WriteString(fmt.Sprintf("\n…and %d more. Narrow it down with `search`.", len(winners)-shown))
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       fmt.Sprintf("🏆 Winners (%d)", len(winners)),
				Description: description.String(),
				Color:       config.EmbedDefaultColor,
			}},
			Flags: discord.MessageFlagEphemeral,
		})
	})
}

func showClaimHistory(ctx context.Context, b *giveawaybot.Bot, e *handler.CommandEvent, targetUser discord.User) error {
	winner, err := b.Winners.GetByUserID(ctx, targetUser.ID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Description: fmt.Sprintf("**%s** is not on the winner list.", targetUser.Username),
				Color:       config.InfoColor,
			}},
			Flags: discord.MessageFlagEphemeral,
		})
	}
	if err != nil {
		slog.Error("Failed to load winner",
			slog.String("type", "db"),
			slog.String("target_user_id", targetUser.ID.String()),
			slog.Any("error", err))
		return errorEmbed(e, "Failed to load the winner. Please try again later.")
	}

	links, err := b.Winners.ClaimHistory(ctx, targetUser.ID.String())
	if err != nil {
		slog.Error("Failed to load claim history",
			slog.String("type", "db"),
			slog.String("target_user_id", targetUser.ID.String()),
			slog.Any("error", err))
		return errorEmbed(e, "Failed to load claim history. Please try again later.")
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       fmt.Sprintf("🏆 %s", targetUser.Username),
			Description: winnerSummary(winner, links),
			Color:       config.EmbedDefaultColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

// winnerSummary renders one winner's registration status followed by
// their claimed gift links, oldest first.
func winnerSummary(winner *models.Winner, links []*models.GiftLink) string {
	var description strings.Builder
	description.WriteString(fmt.Sprintf("Registered %s", winner.CreatedAt.Format("2006-01-02")))
	if winner.AllowMultiple {
		description.WriteString(" · may claim multiple gift links")
	}
	description.WriteString("\n\n")

	if len(links) == 0 {
		description.WriteString("No claims yet.")
		return description.String()
	}

	for _, link := range links {
		when := "unknown time"
		if !link.ClaimedAt.IsZero() {
			when = link.ClaimedAt.Format("2006-01-02 15:04")
		}
		description.WriteString(fmt.Sprintf("`%s` — claimed %s\n", link.Code, when))
	}
	return description.String()
}
