package config

import (
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the intake service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - HTTPPort: The port the intake form is served on.
// - HealthPort: The port for the monitoring server (health and metrics).
// - Geocoder: Reverse geocoding provider settings.
// - StoreType: Which record store to use (csv, postgres).
// - DataFile: Path of the CSV file used by the csv store.
// - SessionSecret: Key used to sign the form session cookie.
// - Database: Configuration settings for the PostgreSQL database.
type Config struct {
	Env           string         `yaml:"env"`            // Env is the current environment: local, development, production.
	HTTPPort      int            `yaml:"http.port"`      // HTTPPort is the intake form server port.
	HealthPort    int            `yaml:"health.port"`    // HealthPort is the monitoring server port.
	Geocoder      GeocoderConfig `yaml:"geocoder"`       // Geocoder holds the reverse geocoding provider configuration.
	StoreType     string         `yaml:"store.type"`     // StoreType selects the record store backend.
	DataFile      string         `yaml:"store.file"`     // DataFile is the CSV file the csv store appends to.
	SessionSecret string         `yaml:"session.secret"` // SessionSecret signs the session cookie.
	Database      PostgresConfig `yaml:"postgres"`       // Database holds the postgres database configuration.
}

// GeocoderConfig groups the settings of the reverse geocoding provider.
type GeocoderConfig struct {
	ProviderType string        `yaml:"type"`       // ProviderType specifies which provider to use (nominatim, google).
	APIKey       string        `yaml:"api_key"`    // APIKey is required by the google provider.
	BaseURL      string        `yaml:"base_url"`   // BaseURL of the nominatim instance.
	UserAgent    string        `yaml:"user_agent"` // UserAgent is sent with every nominatim request.
	Timeout      time.Duration `yaml:"timeout"`    // Timeout of a single reverse geocoding request.
	RateLimit    int           `yaml:"rate_limit"` // RateLimit is the number of requests per second.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`                        // Host is the database server address.
	Port     string `yaml:"port"     env-default:"5432"` // Port is the database server port.
	User     string `yaml:"user"`                        // User is the database user.
	Password string `yaml:"password"`                    // Password is the database user's password.
	Name     string `yaml:"db_name"`                     // Name is the name of the database.
}

// MustLoad reads an optional .env file and the process environment and returns a Config struct.
// It panics when a numeric or duration value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := newViper()

	timeout, err := time.ParseDuration(v.GetString("geocoder.timeout"))
	if err != nil {
		panic("failed to parse geocoder timeout from configuration")
	}

	httpPort, err := strconv.Atoi(v.GetString("http.port"))
	if err != nil {
		panic("failed to parse port for intake server from configuration")
	}

	healthPort, err := strconv.Atoi(v.GetString("health.port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("geocoder.rate_limit"))
	if err != nil {
		panic("failed to parse rate limit from configuration, must be an integer types")
	}

	return &Config{
		Env:        v.GetString("env"),
		HTTPPort:   httpPort,
		HealthPort: healthPort,
		Geocoder: GeocoderConfig{
			ProviderType: v.GetString("geocoder.type"),
			APIKey:       v.GetString("geocoder.api_key"),
			BaseURL:      v.GetString("geocoder.base_url"),
			UserAgent:    v.GetString("geocoder.user_agent"),
			Timeout:      timeout,
			RateLimit:    rateLimit,
		},
		StoreType:     v.GetString("store.type"),
		DataFile:      v.GetString("store.file"),
		SessionSecret: v.GetString("session.secret"),
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
	}
}

// newViper binds every key to its environment variable and registers the defaults.
func newViper() *viper.Viper {
	v := viper.New()

	bindings := []struct {
		key, env string
		def      any
	}{
		{"env", "GEOBIZ_ENV", "production"},
		{"http.port", "GEOBIZ_HTTP_PORT", "8000"},
		{"health.port", "GEOBIZ_HEALTH_PORT", "8080"},
		{"geocoder.type", "GEOBIZ_PROVIDER_TYPE", "nominatim"},
		{"geocoder.api_key", "GEOBIZ_PROVIDER_KEY", ""},
		{"geocoder.base_url", "GEOBIZ_PROVIDER_URL", "https://nominatim.openstreetmap.org"},
		{"geocoder.user_agent", "GEOBIZ_USER_AGENT", "GeoBizApp/1.0"},
		{"geocoder.timeout", "GEOBIZ_GEOCODER_TIMEOUT", "10s"},
		{"geocoder.rate_limit", "GEOBIZ_RATE_LIMIT", "1"},
		{"store.type", "GEOBIZ_STORE_TYPE", "csv"},
		{"store.file", "GEOBIZ_DATA_FILE", "data_usaha.csv"},
		{"session.secret", "GEOBIZ_SESSION_SECRET", ""},
		{"postgres.host", "DB_HOST", ""},
		{"postgres.port", "DB_PORT", "5432"},
		{"postgres.user", "DB_USERNAME", ""},
		{"postgres.password", "DB_PASSWORD", ""},
		{"postgres.db_name", "DB_NAME", ""},
	}

	for _, b := range bindings {
		_ = v.BindEnv(b.key, b.env)
		v.SetDefault(b.key, b.def)
	}

	return v
}
