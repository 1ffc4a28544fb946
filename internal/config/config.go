package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	API      API      `yaml:"api" env-prefix:"API_"`
	Business Business `yaml:"business" env-prefix:"BUSINESS_"`
	Redis    Redis    `yaml:"redis" env-prefix:"REDIS_"`
	Log      Log      `yaml:"log" env-prefix:"LOG_"`
}

type API struct {
	BaseURL   string `yaml:"BaseURL" env:"BASE_URL"`
	TimeoutMS int    `yaml:"TimeoutMS" env:"TIMEOUT_MS" env-default:"30000"`
	LiveURL   string `yaml:"LiveURL" env:"LIVE_URL"`
}

type Business struct {
	ID string `yaml:"ID" env:"ID"`
}

type Redis struct {
	URL string `yaml:"URL" env:"URL"`
}

type Log struct {
	Level string `yaml:"Level" env:"LEVEL" env-default:"info"`
}

func LoadConfig() (*Config, error) {
	configPath, exists := os.LookupEnv("CONFIG_PATH")
	if !exists {
		return nil, errors.New("Missing CONFIG_PATH env variable")
	}
	var config Config
	var err error
	if configPath == "environment" {
		err = cleanenv.ReadEnv(&config)
	} else {
		err = cleanenv.ReadConfig(configPath, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("Unable to process config: %v", err)
	}
	return &config, nil
}
