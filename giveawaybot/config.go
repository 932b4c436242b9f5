package giveawaybot

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/giveaway-bot/giveawaybot/database"
	"github.com/disgoorg/giveaway-bot/giveawaybot/database/mongodb"
	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Store == "" {
		cfg.Store = StorePostgres
	}
	if cfg.Store != StorePostgres && cfg.Store != StoreMongo {
		return nil, fmt.Errorf("unknown store %q (want %q or %q)", cfg.Store, StorePostgres, StoreMongo)
	}
	return &cfg, nil
}

type Config struct {
	Log   LogConfig         `toml:"log"`
	Bot   BotConfig         `toml:"bot"`
	Store string            `toml:"store"`
	DB    database.DBConfig `toml:"db"`
	Mongo mongodb.Config    `toml:"mongo"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`

	// OwnerID may always use admin commands, regardless of guild
	// permissions. Zero disables the override.
	OwnerID snowflake.ID `toml:"owner_id"`

	// Audit lines are mirrored to LogChannelID when set, else to
	// LogWebhookURL. Both empty means console only.
	LogChannelID  snowflake.ID `toml:"log_channel_id"`
	LogWebhookURL string       `toml:"log_webhook_url"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}
