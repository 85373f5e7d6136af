package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName         string
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		SecretKey       string
		FrontendBaseURL string
		DefaultFromName string
		DefaultFrom     string
		RollbarToken    string
		SendgridApiKey  string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Chat     ChatConfig
		Catalog  CatalogConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      int
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DefaultPageSize           int
		MaxPageSize               int
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		InMemory      bool
	}

	ChatConfig struct {
		BaseURL     string
		ApiKey      string
		Timeout     time.Duration
		RetryMax    int
		HistorySize int
		HistoryTTL  time.Duration
	}

	CatalogConfig struct {
		MinAdmissionYear int
		MaxYearsAhead    int
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFrom}
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MaxAdmissionYear is the latest admission year accepted by catalog validators.
func (c CatalogConfig) MaxAdmissionYear() int {
	return time.Now().Year() + c.MaxYearsAhead
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("appName", "Tuyen Sinh")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "j8$2k-qv)mf3=wz&ro!u9x(h#l)t*c4(#ya6h^$dbgp7enz")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Tuyen Sinh")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 15*time.Minute)
	v.SetDefault("server.jwtRefreshExpirationDelta", 24*time.Hour)
	v.SetDefault("server.defaultPageSize", 10)
	v.SetDefault("server.maxPageSize", 100)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "admissions")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.inMemory", false)

	v.SetDefault("chat.baseURL", "http://localhost:5005")
	v.SetDefault("chat.apiKey", "")
	v.SetDefault("chat.timeout", 30*time.Second)
	v.SetDefault("chat.retryMax", 2)
	v.SetDefault("chat.historySize", 20)
	v.SetDefault("chat.historyTTL", 2*time.Hour)

	v.SetDefault("catalog.minAdmissionYear", 2000)
	v.SetDefault("catalog.maxYearsAhead", 5)
}

// NewConfig loads the app Config from defaults, `config/.env.<env>` (if it exists) and the environment.
// Environment variables are prefixed with the upper-cased env name, e.g. `PROD_SERVER_PORT`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("database.inMemory", true)
	case "PROD":
		v.SetDefault("debug", false)
		v.SetDefault("database.disableTLS", false)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppName:                   v.GetString("appName"),
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		DefaultFromName:           v.GetString("defaultFromName"),
		DefaultFrom:               v.GetString("defaultFromEmail"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetInt("server.port"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			DefaultPageSize:           v.GetInt("server.defaultPageSize"),
			MaxPageSize:               v.GetInt("server.maxPageSize"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			InMemory:      v.GetBool("database.inMemory"),
		},
		Chat: ChatConfig{
			BaseURL:     v.GetString("chat.baseURL"),
			ApiKey:      v.GetString("chat.apiKey"),
			Timeout:     v.GetDuration("chat.timeout"),
			RetryMax:    v.GetInt("chat.retryMax"),
			HistorySize: v.GetInt("chat.historySize"),
			HistoryTTL:  v.GetDuration("chat.historyTTL"),
		},
		Catalog: CatalogConfig{
			MinAdmissionYear: v.GetInt("catalog.minAdmissionYear"),
			MaxYearsAhead:    v.GetInt("catalog.maxYearsAhead"),
		},
	}
}

// NewTestConfig returns the Config used by tests: in-memory storage, no debug output.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = false
	conf.Database.InMemory = true
	return conf
}

// configDir returns the directory holding the `.env.*` files.
// CONFIG_DIR takes precedence; go-test changes the working directory to the test package,
// so fall back to walking up until a `config` dir next to go.mod is found.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "config"
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "config")
		}
		if parent := filepath.Dir(dir); parent == dir {
			return filepath.Join(wd, "config")
		}
	}
}
