package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// NodeConfig describes one audio node. Nodes are configured as a
// semicolon-separated list of "host:port@password" entries; a "/tls"
// suffix switches the entry to https/wss.
type NodeConfig struct {
	Host     string
	Password string
	TLS      bool
}

type Config struct {
	DiscordToken  string
	ApplicationID string

	GuildID string

	Nodes []NodeConfig

	LogLevel            string
	EmptyChannelTimeout int
	MaxQueueSize        int
	SearchPrefixes      []string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	nodes, err := ParseNodes(os.Getenv("LAVALINK_NODES"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DiscordToken:  os.Getenv("DISCORD_TOKEN"),
		ApplicationID: os.Getenv("DISCORD_APPLICATION_ID"),

		GuildID: os.Getenv("DISCORD_GUILD_ID"),

		Nodes: nodes,

		LogLevel:            getEnvWithDefault("LOG_LEVEL", "info"),
		EmptyChannelTimeout: getEnvAsIntWithDefault("EMPTY_CHANNEL_TIMEOUT", 10),
		MaxQueueSize:        getEnvAsIntWithDefault("MAX_QUEUE_SIZE", 1000),
		SearchPrefixes:      getEnvAsList("SEARCH_PREFIXES"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvAsInt("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  os.Getenv("DB_SSLMODE"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvAsInt("REDIS_PORT"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsIntWithDefault("REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseNodes parses a "host:port@password[/tls];..." list.
func ParseNodes(raw string) ([]NodeConfig, error) {
	var nodes []NodeConfig

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		node := NodeConfig{}
		if rest, ok := strings.CutSuffix(entry, "/tls"); ok {
			node.TLS = true
			entry = rest
		}

		host, password, ok := strings.Cut(entry, "@")
		if !ok || host == "" || password == "" {
			return nil, fmt.Errorf("invalid node entry %q, want host:port@password", entry)
		}

		node.Host = host
		node.Password = password
		nodes = append(nodes, node)
	}

	return nodes, nil
}

func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}

	if c.ApplicationID == "" {
		return errors.New("DISCORD_APPLICATION_ID is required")
	}

	if len(c.Nodes) == 0 {
		return errors.New("LAVALINK_NODES must list at least one node")
	}

	if c.MaxQueueSize < 1 {
		return errors.New("MAX_QUEUE_SIZE must be at least 1")
	}

	if c.EmptyChannelTimeout < 1 {
		return errors.New("EMPTY_CHANNEL_TIMEOUT must be at least 1")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.GuildID != ""
}

func getEnvAsInt(key string) int {
	return getEnvAsIntWithDefault(key, 0)
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
