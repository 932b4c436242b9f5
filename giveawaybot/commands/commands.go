package commands

import (
	"github.com/disgoorg/disgo/discord"

	"github.com/disgoorg/giveaway-bot/giveawaybot/commands/admin"
)

var Commands = []discord.ApplicationCommandCreate{}

func init() {
	Commands = append(Commands, Claim)
	Commands = append(Commands, admin.Commands...)
}
