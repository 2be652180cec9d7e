package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"playtesting-bot/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Discord struct {
		Token string `yaml:"token"`
	} `yaml:"discord"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Emoji struct {
		TTL string `yaml:"ttl"`
	} `yaml:"emoji"`
	Encryption struct {
		Key string `yaml:"key"`
	} `yaml:"encryption"`
	Tally struct {
		Concurrency int    `yaml:"concurrency"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"tally"`
	Servers []Server `yaml:"servers"`
}

// Server maps one chat server's channels to their roles.
type Server struct {
	ID          string               `yaml:"id"`
	Playtesting []PlaytestingChannel `yaml:"playtesting"`
	Reacts      []string             `yaml:"reacts"`
	Echo        string               `yaml:"echo"`
}

// PlaytestingChannel pairs a channel where questions are posted with the
// channel that collects their results threads.
type PlaytestingChannel struct {
	Channel string `yaml:"channel"`
	Results string `yaml:"results"`
}

// Load reads YAML config from path. DISCORD_TOKEN, ENCRYPTION_KEY, REDIS_ADDR
// and DATABASE_URL override the file when set.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Discord.Token, "DISCORD_TOKEN")
	override(&c.Encryption.Key, "ENCRYPTION_KEY")
	override(&c.Redis.Addr, "REDIS_ADDR")
	override(&c.Postgres.URL, "DATABASE_URL")
	override(&c.Log.Level, "LOG_LEVEL")
}

func (c Config) validate() error {
	for i, s := range c.Servers {
		if s.ID == "" {
			return fmt.Errorf("servers[%d]: missing id", i)
		}
		for j, p := range s.Playtesting {
			if p.Channel == "" || p.Results == "" {
				return fmt.Errorf("servers[%d].playtesting[%d]: channel and results are required", i, j)
			}
		}
	}
	return nil
}

// Channels flattens the server configuration.
func (c Config) Channels() []domain.ServerChannel {
	var out []domain.ServerChannel
	for _, s := range c.Servers {
		for _, p := range s.Playtesting {
			out = append(out, domain.ServerChannel{
				ServerID:        s.ID,
				ChannelID:       p.Channel,
				ResultChannelID: p.Results,
				Type:            domain.ChannelPlaytesting,
			})
		}
		for _, r := range s.Reacts {
			out = append(out, domain.ServerChannel{ServerID: s.ID, ChannelID: r, Type: domain.ChannelReacts})
		}
		if s.Echo != "" {
			out = append(out, domain.ServerChannel{ServerID: s.ID, ChannelID: s.Echo, Type: domain.ChannelEcho})
		}
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
