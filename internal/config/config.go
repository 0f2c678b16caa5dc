package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuracion del cliente y del stub server.
type Config struct {
	APIBaseURL    string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	APIKey        string `env:"API_KEY"`
	SettingsPath  string `env:"SETTINGS_PATH" envDefault:".chat-settings.json"`
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	JWTSecret     string `env:"JWT_SECRET"`
	StreamDelayMS int    `env:"STREAM_DELAY_MS" envDefault:"40"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
