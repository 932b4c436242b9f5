package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/config"
	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
)

var AddWinner = discord.SlashCommandCreate{
	Name:        "add-winner",
	Description: "🏆 Register a user as a giveaway winner",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "The user to register",
			Required:    true,
		},
		discord.ApplicationCommandOptionBool{
			Name:        "allow-multiple",
			Description: "Allow this user to claim more than once",
			Required:    false,
		},
	},
}

func AddWinnerHandler(b *giveawaybot.Bot) handler.CommandHandler {
	return requireAdmin(b, func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		targetUser := data.User("user")
		allowMultiple, _ := data.OptBool("allow-multiple")

		added, err := b.Engine.AddWinner(ctx, targetUser.ID.String(), targetUser.Username, allowMultiple, e.User().ID.String())
		if err != nil {
			slog.Error("Failed to add winner",
				slog.String("type", "admin"),
				slog.String("actor", e.User().ID.String()),
				slog.String("target_user_id", targetUser.ID.String()),
				slog.Any("error", err))
			return errorEmbed(e, "Failed to register the winner. Please try again later.")
		}

		if !added {
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Title:       "ℹ️ Already Registered",
					Description: fmt.Sprintf("**%s** is already on the winner list. Their settings were left unchanged.", targetUser.Username),
					Color:       config.InfoColor,
				}},
				Flags: discord.MessageFlagEphemeral,
			})
		}

		b.Notifier.Notify(ctx, giveaway.ActionAddWinner, e.User().ID.String(),
			fmt.Sprintf("user_id=%s,allow_multiple=%t", targetUser.ID, allowMultiple))

		description := fmt.Sprintf("**%s** can now use `/claim`.", targetUser.Username)
		if allowMultiple {
			description += "\nThey may claim **multiple** gift links."
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🏆 Winner Registered",
				Description: description,
				Color:       config.SuccessColor,
			}},
			Flags: discord.MessageFlagEphemeral,
		})
	})
}
