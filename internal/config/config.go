package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Path string
	}
	Server struct {
		Port int
	}
	Auth struct {
		JWTSecret string
	}
	Scheduler struct {
		SweepInterval  time.Duration
		MaxConcurrent  int
		ProduceTimeout time.Duration
	}
	Email struct {
		SMTPHost string
		SMTPPort int
		From     string
		Password string
	}
	Slack struct {
		Token   string
		Channel string
	}
}

// LoadConfig loads the configuration from config.yaml, falling back to
// defaults when the file does not exist.
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("database.path", "data/rentmaster.db")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("auth.jwtsecret", "change-me")
	viper.SetDefault("scheduler.sweepinterval", time.Minute)
	viper.SetDefault("scheduler.maxconcurrent", 8)
	viper.SetDefault("scheduler.producetimeout", 2*time.Minute)

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := os.MkdirAll("data", 0755); err != nil {
				fmt.Printf("Warning: Failed to create data directory: %v\n", err)
			}
			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Printf("Warning: Failed to write default config: %v\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	return &config
}
