package bot

import "time"

type Config struct {
	Debug         bool   `env:"DEBUG"`
	Token         string `env:"BOT_TOKEN"`
	ApplicationID string `env:"APPLICATION_ID"`
	Intents       int    `env:"BOT_INTENTS" envDefault:"1"`
	ShardID       int    `env:"SHARD_ID" envDefault:"0"`
	ShardCount    int    `env:"SHARD_COUNT" envDefault:"1"`

	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationsURL string `env:"MIGRATIONS_URL" envDefault:"file://migrations"`
	CacheURL      string `env:"REDIS_URL"`

	PublicKey             string        `env:"PUBLIC_KEY"`
	EndpointPath          string        `env:"ENDPOINT_PATH" envDefault:"/interactions"`
	ServerHost            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort            int           `env:"SERVER_PORT" envDefault:"8030"`
	MaxSignatureTimestamp time.Duration `env:"MAX_SIGNATURE_TIMESTAMP" envDefault:"5s"`

	UnknownCommandResponse bool `env:"UNKNOWN_COMMAND_RESPONSE" envDefault:"true"`
}
