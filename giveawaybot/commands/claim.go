package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/config"
	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
)

var Claim = discord.SlashCommandCreate{
	Name:        "claim",
	Description: "🎁 Claim your gift link!",
}

func ClaimHandler(b *giveawaybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		userID := e.User().ID.String()

		ctx, cancel := context.WithTimeout(context.Background(), config.ClaimTimeout)
		defer cancel()

		// The response is always ephemeral so the code never shows up
		// in the channel even if DM delivery fails.
		if err := e.DeferCreateMessage(true); err != nil {
			return fmt.Errorf("failed to defer message: %w", err)
		}

		code, err := b.Engine.Claim(ctx, userID)
		if err != nil {
			switch {
			case errors.Is(err, giveaway.ErrNotEligible):
				return updateError(e, "Not Eligible",
					"Sorry, you are not on the winner list or have already claimed your gift.")
			case errors.Is(err, giveaway.ErrNoneAvailable):
				return updateError(e, "All Gone",
					"All gift links have been claimed. Better luck next time!")
			default:
				slog.Error("Claim failed",
					slog.String("type", "claim"),
					slog.String("user_id", userID),
					slog.Any("error", err))
				return updateError(e, "Error",
					"Something went wrong while claiming. Please try again later.")
			}
		}

		b.Notifier.NotifyClaim(ctx, userID)

		// The claim is committed at this point. If the DM bounces the
		// code stays spent; we fall back to showing it in the ephemeral
		// response instead of returning it to the pool.
		if err := sendCodeDM(b, e, code); err != nil {
			slog.Warn("Failed to DM gift link, falling back to ephemeral response",
				slog.String("type", "claim"),
				slog.String("user_id", userID),
				slog.Any("error", err))
			_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Title: "🎁 Your Gift Link",
					Description: fmt.Sprintf("I couldn't DM you (are your DMs closed?), so here it is:\n\n```%s```\n"+
						"Save it now — this message is only visible to you.", code),
					Color: config.WarningColor,
				}},
			})
			return err
		}

		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       "🎁 Gift Claimed!",
				Description: "Check your DMs — your gift link is waiting for you.",
				Color:       config.SuccessColor,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Claimed %s", time.Now().Format("2006-01-02 15:04")),
				},
			}},
		})
		return err
	}
}

func sendCodeDM(b *giveawaybot.Bot, e *handler.CommandEvent, code string) error {
	channel, err := b.Client.Rest().CreateDMChannel(e.User().ID)
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}

	_, err = b.Client.Rest().CreateMessage(channel.ID(), discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "🎁 Your Gift Link",
			Description: fmt.Sprintf("Congratulations! Here is your gift link:\n\n```%s```", code),
			Color:       config.SuccessColor,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}

func updateError(e *handler.CommandEvent, title, description string) error {
	_, err := e.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{{
			Title:       "❌ " + title,
			Description: description,
			Color:       config.ErrorColor,
		}},
	})
	return err
}
