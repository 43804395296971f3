package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
	JWT      JWTConfig      `json:"jwt"`
	Geocoder GeocoderConfig `json:"geocoder"`
	SOS      SOSConfig      `json:"sos"`
	Log      LogConfig      `json:"log"`
}

type ServerConfig struct {
	Port string `json:"port" env:"SENTINEL_PORT"`
	Mode string `json:"mode" env:"GIN_MODE"`
	// TrustGatewayHeaders accepts X-User-* identity headers set by a
	// fronting gateway. Leave off when the service is reachable directly.
	TrustGatewayHeaders bool `json:"trust_gateway_headers" env:"SENTINEL_TRUST_GATEWAY_HEADERS"`
}

type DatabaseConfig struct {
	Host     string `json:"host" env:"SENTINEL_DB_HOST"`
	Port     string `json:"port" env:"SENTINEL_DB_PORT"`
	User     string `json:"user" env:"SENTINEL_DB_USER"`
	Password string `json:"password" env:"SENTINEL_DB_PASSWORD"`
	DBName   string `json:"dbname" env:"SENTINEL_DB_NAME"`
	// Embedded starts a local PostgreSQL process instead of dialing Host.
	Embedded bool   `json:"embedded" env:"SENTINEL_DB_EMBEDDED"`
	DataPath string `json:"data_path" env:"SENTINEL_DB_DATA_PATH"`
}

// DSN returns a lib/pq keyword/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.DBName,
	)
}

type RabbitMQConfig struct {
	Host     string `json:"host" env:"SENTINEL_RABBITMQ_HOST"`
	Port     string `json:"port" env:"SENTINEL_RABBITMQ_PORT"`
	User     string `json:"user" env:"SENTINEL_RABBITMQ_USER"`
	Password string `json:"password" env:"SENTINEL_RABBITMQ_PASSWORD"`
}

type JWTConfig struct {
	Secret string `json:"secret" env:"SENTINEL_JWT_SECRET"`
}

type GeocoderConfig struct {
	BaseURL   string   `json:"base_url" env:"SENTINEL_GEOCODER_URL"`
	UserAgent string   `json:"user_agent" env:"SENTINEL_GEOCODER_USER_AGENT"`
	Timeout   Duration `json:"timeout"`
	Attempts  int      `json:"attempts" env:"SENTINEL_GEOCODER_ATTEMPTS"`
}

type SOSConfig struct {
	Duration     Duration `json:"duration"`
	Ticks        int      `json:"ticks" env:"SENTINEL_SOS_TICKS"`
	FinalTimeout Duration `json:"final_timeout"`
}

type LogConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL"`
	Format     string `json:"format" env:"LOG_FORMAT"`
	Output     string `json:"output" env:"LOG_OUTPUT"`
	Path       string `json:"path" env:"LOG_PATH"`
	MaxSize    int    `json:"max_size" env:"LOG_MAX_SIZE"`
	MaxBackups int    `json:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAge     int    `json:"max_age" env:"LOG_MAX_AGE"`
	Compress   bool   `json:"compress" env:"LOG_COMPRESS"`
}

// Duration decodes "5s"-style strings from JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Mode: "release"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			DBName:   "mountain_sentinel",
			DataPath: "./db_data",
		},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: "5672", User: "guest", Password: "guest"},
		Geocoder: GeocoderConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "mountain-sentinel/1.0",
			Timeout:   Duration{5 * time.Second},
			Attempts:  2,
		},
		SOS: SOSConfig{
			Duration:     Duration{5 * time.Second},
			Ticks:        50,
			FinalTimeout: Duration{3 * time.Second},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			Path:       "./logs",
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// LoadConfig reads the JSON file at path over the defaults, then applies
// .env and process environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	_ = godotenv.Load()

	// env.Parse does not descend into nested structs.
	sections := []interface{}{
		&config.Server,
		&config.Database,
		&config.RabbitMQ,
		&config.JWT,
		&config.Geocoder,
		&config.SOS,
		&config.Log,
	}
	for _, section := range sections {
		if err := env.Parse(section); err != nil {
			return nil, fmt.Errorf("env overrides: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.SOS.Ticks <= 0 {
		return errors.New("sos.ticks must be positive")
	}
	if c.SOS.Duration.Duration <= 0 {
		return errors.New("sos.duration must be positive")
	}
	switch c.Log.Output {
	case "", "stdout", "file", "both":
	default:
		return fmt.Errorf("log.output %q must be stdout, file or both", c.Log.Output)
	}
	return nil
}
