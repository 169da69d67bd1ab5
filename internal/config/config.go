package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken string   `env:"DISCORD_TOKEN,required"`
	GroupID      string   `env:"GROUP_ID"`
	WallCookie   string   `env:"ROBLOX_COOKIE"`
	OperatorIDs  []string `env:"OPERATOR_IDS" envSeparator:","`

	ListenPort    int    `env:"PORT" envDefault:"8080"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"data"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"json"`

	LinkDomain        string `env:"LINK_DOMAIN" envDefault:"roblox.com"`
	BroadcastFallback bool   `env:"BROADCAST_FALLBACK" envDefault:"true"`

	InitSlashCommands bool `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
}

func New() *Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("[ERR] Failed to parse config: %v", err)
	}
	return &cfg
}

// IsOperator reports whether the given user id is in the operator set.
// An empty OPERATOR_IDS means no one is an operator.
func (c *Config) IsOperator(userID string) bool {
	for _, id := range c.OperatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}
