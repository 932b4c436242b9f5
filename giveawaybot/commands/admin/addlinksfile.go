package admin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/config"
	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
	"github.com/disgoorg/giveaway-bot/giveawaybot/loader"
)

// maxAttachmentSize caps how much of an uploaded file we read.
const maxAttachmentSize = 2 << 20

var AddLinksFile = discord.SlashCommandCreate{
	Name:        "add-links-file",
	Description: "📄 Add gift links from an uploaded text file",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionAttachment{
			Name:        "file",
			Description: "Text file with one link per line",
			Required:    true,
		},
	},
}

func AddLinksFileHandler(b *giveawaybot.Bot) handler.CommandHandler {
	return requireAdmin(b, func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		if err := e.DeferCreateMessage(true); err != nil {
			return fmt.Errorf("failed to defer message: %w", err)
		}

		data := e.SlashCommandInteractionData()
		attachment := data.Attachment("file")

		text, err := fetchAttachment(ctx, attachment.URL)
		if err != nil {
			slog.Error("Failed to fetch attachment",
				slog.String("type", "admin"),
				slog.String("url", attachment.URL),
				slog.Any("error", err))
			return updateErrorEmbed(e, "Failed to download the attached file.")
		}

		codes := loader.ParseCodes(text)
		if len(codes) == 0 {
			return updateErrorEmbed(e, "No links found in the file.")
		}

		added, err := b.Engine.AddCodes(ctx, codes, e.User().ID.String())
		if err != nil {
			slog.Error("Failed to add gift links from file",
				slog.String("type", "admin"),
				slog.String("actor", e.User().ID.String()),
				slog.Any("error", err))
			return updateErrorEmbed(e, "Failed to add links. Please try again later.")
		}

		skipped := len(codes) - added
		description := fmt.Sprintf("Added **%d** gift link(s) from `%s`.", added, attachment.Filename)
		if skipped > 0 {
			description += fmt.Sprintf("\nSkipped **%d** duplicate(s).", skipped)
		}

		b.Notifier.Notify(ctx, giveaway.ActionAddLink, e.User().ID.String(), fmt.Sprintf("count=%d,file=%s", added, attachment.Filename))

		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       "✅ Links Added",
				Description: description,
				Color:       config.SuccessColor,
			}},
		})
		return err
	})
}

func fetchAttachment(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func updateErrorEmbed(e *handler.CommandEvent, description string) error {
	_, err := e.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{{
			Title:       "❌ Error",
			Description: description,
			Color:       config.ErrorColor,
		}},
	})
	return err
}
