package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	AMQPConfig struct {
		URL   string
		Queue string
	}

	ImportConfig struct {
		DefaultLang       string
		PasswordLength    int
		NotifyNewAccounts bool
	}

	Config struct {
		Env              string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		Build            string
		FrontendBaseURL  string
		DefaultFromEmail string
		SendgridAPIKey   string
		RollbarToken     string
		Timezone         string

		Server   ServerConfig
		Database DatabaseConfig
		AMQP     AMQPConfig
		Import   ImportConfig
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DefaultFrom parses the configured sender, falling back to a bare address.
func (c *Config) DefaultFrom() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Address: c.DefaultFromEmail}
}

// Location returns the timezone used to format dates shown to admins.
func (c *Config) Location() *time.Location {
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// NewConfig loads the configuration of the current environment (ENV: DEV by default, TEST, QA, PROD).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Equipment Checkout")
	v.SetDefault("secretKey", "k9#u2v$w3l!x8@equipment-dev-secret-q7z1")
	v.SetDefault("build", "develop")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Equipment Checkout <noreply@localhost>")
	v.SetDefault("sendgridAPIKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("timezone", "UTC")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 4*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres") // or "memory"
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "equipment")
	v.SetDefault("database.user", "equipment")
	v.SetDefault("database.password", "equipment")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.queue", "equipment.events")

	v.SetDefault("import.defaultLang", "en")
	v.SetDefault("import.passwordLength", 6)
	v.SetDefault("import.notifyNewAccounts", false)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		Build:            v.GetString("build"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Timezone:         v.GetString("timezone"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetString("server.port"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		AMQP: AMQPConfig{
			URL:   v.GetString("amqp.url"),
			Queue: v.GetString("amqp.queue"),
		},
		Import: ImportConfig{
			DefaultLang:       v.GetString("import.defaultLang"),
			PasswordLength:    v.GetInt("import.passwordLength"),
			NotifyNewAccounts: v.GetBool("import.notifyNewAccounts"),
		},
	}
}

// NewTestConfig returns the configuration used by tests, without touching the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Debug:            true,
		TestMode:         true,
		AppName:          "Equipment Checkout",
		SecretKey:        "test-secret",
		Build:            "test",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "Equipment Checkout <noreply@test.local>",
		Timezone:         "UTC",
		Server: ServerConfig{
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
		Import: ImportConfig{
			DefaultLang:    "en",
			PasswordLength: 6,
		},
	}
}
