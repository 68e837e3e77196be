package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultAPIURL = "http://localhost:8090/api"

type (
	APIConfig struct {
		URL        string
		Timeout    time.Duration
		MaxRetries int
		RetryDelay time.Duration
	}

	ServerConfig struct {
		Address         string
		ShutdownTimeout time.Duration
		BrowserTTL      time.Duration
		CookieName      string
		CookieSecure    bool
	}

	// StorageConfig selects where sessions are persisted: memory, sqlite, postgres or redis.
	StorageConfig struct {
		Engine string
		URL    string
		TTL    time.Duration // idle sessions older than this are purged
	}

	CLIConfig struct {
		StoragePath string
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		RollbarToken string

		API     APIConfig
		Server  ServerConfig
		Storage StorageConfig
		CLI     CLIConfig
	}
)

var conf *viper.Viper

func init() {
	conf = viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Veritas")
	conf.SetDefault("build", "dev")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("api.url", defaultAPIURL)
	conf.SetDefault("api.timeout", 30*time.Second)
	conf.SetDefault("api.maxRetries", 2)
	conf.SetDefault("api.retryDelay", time.Second)

	conf.SetDefault("server.address", ":8080")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.browserTTL", 24*time.Hour)
	conf.SetDefault("server.cookieName", "veritas_sid")
	conf.SetDefault("server.cookieSecure", false)

	conf.SetDefault("storage.engine", "memory")
	conf.SetDefault("storage.url", "")
	conf.SetDefault("storage.ttl", 30*24*time.Hour)

	conf.SetDefault("cli.storagePath", defaultCLIStoragePath())

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetDefault("env", env)
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if root, err := Getwd(); err == nil {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()
}

// NewConfig snapshots the current configuration.
func NewConfig() *Config {
	apiURL := conf.GetString("api.url")
	if v := os.Getenv("VITE_API_URL"); v != "" {
		apiURL = v
	}

	return &Config{
		Env:          conf.GetString("env"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		RollbarToken: conf.GetString("rollbarToken"),
		API: APIConfig{
			URL:        strings.TrimRight(apiURL, "/"),
			Timeout:    conf.GetDuration("api.timeout"),
			MaxRetries: conf.GetInt("api.maxRetries"),
			RetryDelay: conf.GetDuration("api.retryDelay"),
		},
		Server: ServerConfig{
			Address:         conf.GetString("server.address"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			BrowserTTL:      conf.GetDuration("server.browserTTL"),
			CookieName:      conf.GetString("server.cookieName"),
			CookieSecure:    conf.GetBool("server.cookieSecure"),
		},
		Storage: StorageConfig{
			Engine: strings.ToLower(conf.GetString("storage.engine")),
			URL:    conf.GetString("storage.url"),
			TTL:    conf.GetDuration("storage.ttl"),
		},
		CLI: CLIConfig{
			StoragePath: conf.GetString("cli.storagePath"),
		},
	}
}

func defaultCLIStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".veritas", "session.json")
	}
	return filepath.Join(home, ".veritas", "session.json")
}
