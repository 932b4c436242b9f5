package admin

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	AddLinks,
	AddLinksFile,
	AddWinner,
	DisableLink,
	Stats,
	History,
	Winners,
}
