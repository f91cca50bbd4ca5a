package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string `yaml:"env" env:"ENV" env-default:"local"`
	Lang    string `yaml:"lang" env:"APP_LANG" env-default:"en"`
	Backend `yaml:"backend"`
	HTTP    `yaml:"http"`
	Redis   `yaml:"redis"`
	Stripe  `yaml:"stripe"`
	Gemini  `yaml:"gemini"`
}

type Backend struct {
	BaseURL string `yaml:"base_url" env:"BACKEND_BASE_URL" env-required:"true"`
}

type HTTP struct {
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type Redis struct {
	// Addr left empty falls back to the in-memory store.
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Stripe struct {
	SecretKey    string `yaml:"secret_key" env:"STRIPE_SECRET_KEY" env-required:"true"`
	MerchantName string `yaml:"merchant_name" env:"STRIPE_MERCHANT_NAME" env-default:"Cyna"`
	// PaymentMethod used by the headless sheet to confirm intents.
	PaymentMethod string `yaml:"payment_method" env:"STRIPE_PAYMENT_METHOD" env-required:"true"`
}

type Gemini struct {
	// APIKey left empty disables the assistant routes' provider; the bridge
	// then reports not-ready.
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
}

// MustLoad reads CONFIG_PATH, falling back to environment variables only when
// no file is configured.
func MustLoad() (cfg Config) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("Error loading config from environment: %v", err)
		}
		return
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatal("CONFIG_PATH does not exist")
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	return
}
