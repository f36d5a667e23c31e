package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string `mapstructure:"PORT"`
	DatabasePath        string `mapstructure:"DATABASE_PATH"`
	CommandPrefix       string `mapstructure:"COMMAND_PREFIX"`
	DiscordBotToken     string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordClientID     string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL  string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID      string `mapstructure:"DISCORD_GUILD_ID"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	EnableAPI           bool   `mapstructure:"ENABLE_API"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_PATH", "achievements.db")
	viper.SetDefault("COMMAND_PREFIX", "!")
	viper.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	viper.SetDefault("ENABLE_API", true)

	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_CLIENT_ID")
	viper.BindEnv("DISCORD_CLIENT_SECRET")
	viper.BindEnv("DISCORD_GUILD_ID")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("COMMAND_PREFIX")
	viper.BindEnv("DATABASE_PATH")
	viper.BindEnv("ENABLE_API")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
